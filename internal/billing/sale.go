package billing

import (
	"github.com/milkline/milkline/internal/milk"
	"github.com/milkline/milkline/internal/quality"
)

// FixedCostMode says who owns the sale-side per-liter TS rate.
type FixedCostMode string

const (
	// FixedCostAuto derives the rate from receivedSolid × taxPercent/100
	// on every recompute.
	FixedCostAuto FixedCostMode = "AUTO"
	// FixedCostManual keeps an operator-entered rate until the tax
	// percentage changes again.
	FixedCostManual FixedCostMode = "MANUAL"
)

// SaleCommercials are the charge parameters of a dispatch settlement.
// Unlike the purchase side, the tax deduction is entered directly and
// the distance charge is quantity times unit price.
type SaleCommercials struct {
	FixedCost         float64       `json:"fixed_cost"`
	FixedCostMode     FixedCostMode `json:"fixed_cost_mode"`
	TaxPercent        float64       `json:"tax_percent"`
	DistanceQty       float64       `json:"distance_qty"`
	DistanceUnitPrice float64       `json:"distance_unit_price"`
	ExcludingDistance bool          `json:"excluding_distance"`
	TollCharge        float64       `json:"toll_charge"`
	Discount          float64       `json:"discount"`
	TaxDeduction      float64       `json:"tax_deduction"`
}

// SaleResult is the settlement breakdown for a dispatch.
type SaleResult struct {
	TotalAmount     float64 `json:"total_amount"`
	FixedCost       float64 `json:"fixed_cost"`
	TSTotal         float64 `json:"ts_total"`
	DistanceTotal   float64 `json:"distance_total"`
	TransportAmount float64 `json:"transport_amount"`
	GrossAmount     float64 `json:"gross_amount"`
	NetAmount       float64 `json:"net_amount"`
}

// DeriveFixedCost is the auto rate: the received solid priced at the
// entered percentage.
func DeriveFixedCost(receivedSolid, taxPercent float64) float64 {
	return receivedSolid * taxPercent / 100
}

// EditFixedCost records a direct operator edit of the rate. The value
// sticks until the tax percentage is touched again.
func (c SaleCommercials) EditFixedCost(value float64) SaleCommercials {
	c.FixedCost = value
	c.FixedCostMode = FixedCostManual
	return c
}

// EditTaxPercent records a tax-percentage change and hands the rate
// back to auto derivation.
func (c SaleCommercials) EditTaxPercent(value float64) SaleCommercials {
	c.TaxPercent = value
	c.FixedCostMode = FixedCostAuto
	return c
}

// EffectiveFixedCost resolves the rate for a settlement run. Auto mode
// only engages while the percentage is nonzero.
func (c SaleCommercials) EffectiveFixedCost(receivedSolid float64) float64 {
	if c.FixedCostMode != FixedCostManual && c.TaxPercent != 0 {
		return DeriveFixedCost(receivedSolid, c.TaxPercent)
	}
	return c.FixedCost
}

// SaleSettlement computes the amount receivable from the customer.
// The structure deliberately differs from the purchase settlement: the
// fixed cost is a per-liter rate and the tax deduction is a flat
// entered figure.
func SaleSettlement(received []milk.ReceivedLine, c SaleCommercials) SaleResult {
	summary, total := milk.AggregateReceived(received)

	fixedCost := c.EffectiveFixedCost(summary.Solid)
	tsTotal := fixedCost * summary.TotalLtr
	distanceTotal := c.DistanceQty * c.DistanceUnitPrice
	transport := distanceTotal + c.TollCharge

	gross := total + tsTotal
	if !c.ExcludingDistance {
		gross += transport
	}
	net := gross - c.Discount - c.TaxDeduction

	return SaleResult{
		TotalAmount:     quality.Round2(total),
		FixedCost:       quality.Round2(fixedCost),
		TSTotal:         quality.Round2(tsTotal),
		DistanceTotal:   quality.Round2(distanceTotal),
		TransportAmount: quality.Round2(transport),
		GrossAmount:     quality.Round2(gross),
		NetAmount:       quality.Round2(net),
	}
}
