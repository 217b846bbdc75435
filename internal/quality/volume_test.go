package quality

import "testing"

func TestPurchaseLiters(t *testing.T) {
	if got := PurchaseLiters(103); got != 100.00 {
		t.Fatalf("expected 100.00 got %.2f", got)
	}
	if got := PurchaseLiters(0); got != 0 {
		t.Fatalf("expected 0 got %.2f", got)
	}
}

func TestSaleLiters(t *testing.T) {
	if got := SaleLiters(103, 30); got != 100.00 {
		t.Fatalf("expected 100.00 got %.2f", got)
	}
	// Missing CLR must zero the volume, not divide by the base density.
	if got := SaleLiters(100, 0); got != 0 {
		t.Fatalf("expected 0 got %.2f", got)
	}
	if got := SaleLiters(0, 30); got != 0 {
		t.Fatalf("expected 0 got %.2f", got)
	}
}

func TestSaleLitersTracksCLR(t *testing.T) {
	thin := SaleLiters(100, 20)
	dense := SaleLiters(100, 32)
	if thin <= dense {
		t.Fatalf("denser milk must yield fewer liters: %.2f vs %.2f", thin, dense)
	}
}
