package billing

import "github.com/milkline/milkline/internal/milk"

// Summary pairs the intake and settlement-time roll-ups of one
// transaction with its charge breakdown. It is derived on demand and
// never persisted.
type Summary struct {
	Delivery milk.Summary `json:"delivery"`
	Received milk.Summary `json:"received"`

	Purchase *PurchaseResult `json:"purchase,omitempty"`
	Sale     *SaleResult     `json:"sale,omitempty"`
}

// PurchaseSummary assembles the full purchase-side billing view.
func PurchaseSummary(delivery []milk.Line, received []milk.ReceivedLine, c PurchaseCommercials) Summary {
	recSummary, _ := milk.AggregateReceived(received)
	result := PurchaseSettlement(received, c)
	return Summary{
		Delivery: milk.Aggregate(delivery),
		Received: recSummary,
		Purchase: &result,
	}
}

// SaleSummary assembles the full sale-side billing view.
func SaleSummary(delivery []milk.Line, received []milk.ReceivedLine, c SaleCommercials) Summary {
	recSummary, _ := milk.AggregateReceived(received)
	result := SaleSettlement(received, c)
	return Summary{
		Delivery: milk.Aggregate(delivery),
		Received: recSummary,
		Sale:     &result,
	}
}
