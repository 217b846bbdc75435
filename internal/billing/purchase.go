// Package billing derives settlement figures from priced line sets and
// commercial parameters. All derivations keep full float precision
// internally; the 2-decimal rounding in the result structs is the
// final display rounding.
package billing

import (
	"github.com/milkline/milkline/internal/milk"
	"github.com/milkline/milkline/internal/quality"
)

// PurchaseCommercials are the charge parameters of a collection
// settlement. TaxPercent is a TDS-style percentage of the gross.
type PurchaseCommercials struct {
	FixedCost       float64 `json:"fixed_cost"`
	DistanceCharge  float64 `json:"distance_charge"`
	IncludeDistance bool    `json:"include_distance"`
	TollCharge      float64 `json:"toll_charge"`
	Discount        float64 `json:"discount"`
	TaxPercent      float64 `json:"tax_percent"`
}

// PurchaseResult is the settlement breakdown for a collection.
type PurchaseResult struct {
	TotalAmount     float64 `json:"total_amount"`
	TransportAmount float64 `json:"transport_amount"`
	GrossAmount     float64 `json:"gross_amount"`
	TaxDeduction    float64 `json:"tax_deduction"`
	NetAmount       float64 `json:"net_amount"`
}

// PurchaseSettlement computes the amount payable to the vendor from
// the received (re-verified) line set.
func PurchaseSettlement(received []milk.ReceivedLine, c PurchaseCommercials) PurchaseResult {
	var total float64
	for _, rl := range received {
		total += rl.Price * rl.Ltr
	}

	transport := c.FixedCost + c.TollCharge
	if c.IncludeDistance {
		transport += c.DistanceCharge
	}
	gross := total + transport
	tax := gross * c.TaxPercent / 100
	net := gross - c.Discount - tax

	return PurchaseResult{
		TotalAmount:     quality.Round2(total),
		TransportAmount: quality.Round2(transport),
		GrossAmount:     quality.Round2(gross),
		TaxDeduction:    quality.Round2(tax),
		NetAmount:       quality.Round2(net),
	}
}
