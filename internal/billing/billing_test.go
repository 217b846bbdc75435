package billing

import (
	"math"
	"testing"

	"github.com/milkline/milkline/internal/milk"
)

func receivedFor(total float64) []milk.ReceivedLine {
	// One 100 L line priced so the amounts sum to total.
	return []milk.ReceivedLine{{
		Line:   milk.Line{Compartment: milk.CompartmentFront, Ltr: 100},
		Price:  total / 100,
		Amount: total,
	}}
}

func TestPurchaseSettlement(t *testing.T) {
	c := PurchaseCommercials{
		FixedCost:       50,
		DistanceCharge:  20,
		IncludeDistance: false,
		TollCharge:      10,
		Discount:        5,
		TaxPercent:      2,
	}
	res := PurchaseSettlement(receivedFor(1000), c)

	if res.TotalAmount != 1000 {
		t.Fatalf("total: expected 1000 got %.2f", res.TotalAmount)
	}
	if res.TransportAmount != 60 {
		t.Fatalf("transport: expected 60 got %.2f", res.TransportAmount)
	}
	if res.GrossAmount != 1060 {
		t.Fatalf("gross: expected 1060 got %.2f", res.GrossAmount)
	}
	if res.TaxDeduction != 21.2 {
		t.Fatalf("tax: expected 21.2 got %.2f", res.TaxDeduction)
	}
	if res.NetAmount != 1033.8 {
		t.Fatalf("net: expected 1033.8 got %.2f", res.NetAmount)
	}
}

func TestPurchaseSettlementIncludesDistance(t *testing.T) {
	c := PurchaseCommercials{FixedCost: 50, DistanceCharge: 20, IncludeDistance: true, TollCharge: 10}
	res := PurchaseSettlement(receivedFor(1000), c)
	if res.TransportAmount != 80 {
		t.Fatalf("transport: expected 80 got %.2f", res.TransportAmount)
	}
	if res.GrossAmount != 1080 {
		t.Fatalf("gross: expected 1080 got %.2f", res.GrossAmount)
	}
}

func TestPurchaseSettlementEmptyLines(t *testing.T) {
	res := PurchaseSettlement(nil, PurchaseCommercials{TaxPercent: 2})
	if res.NetAmount != 0 || res.GrossAmount != 0 {
		t.Fatalf("empty settlement should be zero: %+v", res)
	}
}

func TestSaleSettlement(t *testing.T) {
	received := []milk.ReceivedLine{{
		Line:   milk.Line{Compartment: milk.CompartmentFront, Ltr: 200, Fat: 4, SNF: 8.66},
		Price:  45,
		Amount: 9000,
	}}
	c := SaleCommercials{
		FixedCost:         1.5,
		FixedCostMode:     FixedCostManual,
		DistanceQty:       120,
		DistanceUnitPrice: 2,
		TollCharge:        30,
		Discount:          100,
		TaxDeduction:      50,
	}
	res := SaleSettlement(received, c)

	if res.TSTotal != 300 { // 1.5 × 200 L
		t.Fatalf("ts total: expected 300 got %.2f", res.TSTotal)
	}
	if res.DistanceTotal != 240 {
		t.Fatalf("distance: expected 240 got %.2f", res.DistanceTotal)
	}
	if res.TransportAmount != 270 {
		t.Fatalf("transport: expected 270 got %.2f", res.TransportAmount)
	}
	if res.GrossAmount != 9570 { // 9000 + 300 + 270
		t.Fatalf("gross: expected 9570 got %.2f", res.GrossAmount)
	}
	if res.NetAmount != 9420 {
		t.Fatalf("net: expected 9420 got %.2f", res.NetAmount)
	}

	c.ExcludingDistance = true
	res = SaleSettlement(received, c)
	if res.GrossAmount != 9300 {
		t.Fatalf("gross excluding distance: expected 9300 got %.2f", res.GrossAmount)
	}
}

func TestSaleFixedCostAutoDerivation(t *testing.T) {
	received := []milk.ReceivedLine{{
		Line:   milk.Line{Compartment: milk.CompartmentFront, Ltr: 100, Fat: 4, SNF: 8.66},
		Price:  40,
		Amount: 4000,
	}}
	// solid = 4 + 8.66 = 12.66; 12.66 × 5 / 100 = 0.633
	c := SaleCommercials{FixedCostMode: FixedCostAuto, TaxPercent: 5}
	res := SaleSettlement(received, c)
	if res.FixedCost != 0.63 {
		t.Fatalf("fixed cost: expected 0.63 got %.2f", res.FixedCost)
	}
	if math.Abs(res.TSTotal-63.3) > 1e-9 {
		t.Fatalf("ts total: expected 63.3 got %.4f", res.TSTotal)
	}

	// Zero percent disables the derivation even in auto mode.
	c = SaleCommercials{FixedCostMode: FixedCostAuto, TaxPercent: 0, FixedCost: 2}
	res = SaleSettlement(received, c)
	if res.FixedCost != 2 {
		t.Fatalf("fixed cost with zero percent: expected 2 got %.2f", res.FixedCost)
	}
}

func TestSaleFixedCostModeFlips(t *testing.T) {
	c := SaleCommercials{FixedCostMode: FixedCostAuto, TaxPercent: 5}

	c = c.EditFixedCost(3.25)
	if c.FixedCostMode != FixedCostManual {
		t.Fatal("direct edit should switch to manual")
	}
	if c.EffectiveFixedCost(12.66) != 3.25 {
		t.Fatalf("manual rate should hold: %.2f", c.EffectiveFixedCost(12.66))
	}

	c = c.EditTaxPercent(4)
	if c.FixedCostMode != FixedCostAuto {
		t.Fatal("tax percent edit should return to auto")
	}
	want := DeriveFixedCost(12.66, 4)
	if c.EffectiveFixedCost(12.66) != want {
		t.Fatalf("auto rate expected %.4f got %.4f", want, c.EffectiveFixedCost(12.66))
	}
}

func TestPurchaseSummary(t *testing.T) {
	delivery := []milk.Line{{Compartment: milk.CompartmentFront, KgQty: 103, Ltr: 100, Fat: 4, SNF: 8.66, CLR: 30}}
	received := milk.SeedReceived(delivery)
	received[0].Price = 40
	received[0].Amount = received[0].Price * received[0].Ltr

	s := PurchaseSummary(delivery, received, PurchaseCommercials{TaxPercent: 2})
	if s.Purchase == nil {
		t.Fatal("expected purchase result")
	}
	if s.Delivery.TotalLtr != 100 || s.Received.TotalLtr != 100 {
		t.Fatalf("summaries out of step: %+v", s)
	}
	if s.Purchase.TotalAmount != 4000 {
		t.Fatalf("total: expected 4000 got %.2f", s.Purchase.TotalAmount)
	}
}
