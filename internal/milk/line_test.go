package milk

import (
	"errors"
	"testing"

	"github.com/milkline/milkline/internal/quality"
)

func f(v float64) *float64 { return &v }

func TestApplyLineChangeRecomputesDerived(t *testing.T) {
	line := Line{Compartment: CompartmentFront, MilkTypeID: 1}

	line, err := ApplyLineChange(DirectionPurchase, "Tamil Nadu", line, LineChange{
		KgQty: f(103), Fat: f(4), CLR: f(30),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if line.SNF != 8.66 {
		t.Fatalf("expected snf 8.66 got %.2f", line.SNF)
	}
	if line.Ltr != 100.00 {
		t.Fatalf("expected ltr 100.00 got %.2f", line.Ltr)
	}
}

func TestPurchaseCLREditKeepsVolume(t *testing.T) {
	line, err := ApplyLineChange(DirectionPurchase, "Kerala", Line{}, LineChange{
		KgQty: f(103), Fat: f(4), CLR: f(30),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	before := line.Ltr

	line, err = ApplyLineChange(DirectionPurchase, "Kerala", line, LineChange{CLR: f(26)})
	if err != nil {
		t.Fatalf("apply clr: %v", err)
	}
	if line.Ltr != before {
		t.Fatalf("purchase volume moved on clr edit: %.2f -> %.2f", before, line.Ltr)
	}
	if line.SNF == 8.80 {
		t.Fatal("snf should have been recomputed for the new clr")
	}
}

func TestSaleCLREditMovesVolume(t *testing.T) {
	line, err := ApplyLineChange(DirectionSale, "Karnataka", Line{}, LineChange{
		KgQty: f(103), Fat: f(4), CLR: f(30),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if line.Ltr != 100.00 {
		t.Fatalf("expected ltr 100.00 got %.2f", line.Ltr)
	}

	line, err = ApplyLineChange(DirectionSale, "Karnataka", line, LineChange{CLR: f(20)})
	if err != nil {
		t.Fatalf("apply clr: %v", err)
	}
	if line.Ltr != quality.SaleLiters(103, 20) {
		t.Fatalf("sale volume did not follow clr: %.2f", line.Ltr)
	}
}

func TestSaleZeroCLRZeroesVolume(t *testing.T) {
	line, err := ApplyLineChange(DirectionSale, "Telangana", Line{}, LineChange{
		KgQty: f(100), Fat: f(4), CLR: f(0),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if line.Ltr != 0 {
		t.Fatalf("expected ltr 0 got %.2f", line.Ltr)
	}
}

func TestApplyLineChangeUnknownState(t *testing.T) {
	_, err := ApplyLineChange(DirectionPurchase, "Punjab", Line{}, LineChange{KgQty: f(10)})
	if err == nil {
		t.Fatal("expected unknown state error")
	}
	var unknown *quality.UnknownStateError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownStateError got %T", err)
	}
}

func TestApplyReceivedChangeSameUpdate(t *testing.T) {
	rl := ReceivedLine{Line: Line{Compartment: CompartmentBack}}

	rl, err := ApplyReceivedChange(DirectionSale, "Tamil Nadu", rl, ReceivedChange{
		LineChange: LineChange{KgQty: f(103), Fat: f(4), CLR: f(30)},
		Price:      f(42),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if rl.Amount != 42*100.00 {
		t.Fatalf("expected amount 4200 got %.2f", rl.Amount)
	}

	// A weight edit must land in the amount within the same update.
	rl, err = ApplyReceivedChange(DirectionSale, "Tamil Nadu", rl, ReceivedChange{
		LineChange: LineChange{KgQty: f(51.5)},
	})
	if err != nil {
		t.Fatalf("apply kg: %v", err)
	}
	if rl.Ltr != 50.00 {
		t.Fatalf("expected ltr 50.00 got %.2f", rl.Ltr)
	}
	if rl.Amount != 42*50.00 {
		t.Fatalf("expected amount 2100 got %.2f", rl.Amount)
	}
}

func TestSeedReceivedIndependence(t *testing.T) {
	delivery := []Line{{Compartment: CompartmentFront, KgQty: 103, Fat: 4, CLR: 30}}
	received := SeedReceived(delivery)
	if received[0].KgQty != 103 {
		t.Fatalf("seed did not copy: %.2f", received[0].KgQty)
	}

	received[0].KgQty = 90
	if delivery[0].KgQty != 103 {
		t.Fatal("received edit leaked into delivery set")
	}
}
