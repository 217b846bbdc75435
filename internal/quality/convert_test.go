package quality

import (
	"errors"
	"math"
	"testing"
)

func TestComputeSNFTamilNadu(t *testing.T) {
	snf, err := ComputeSNF("Tamil Nadu", 30, 4)
	if err != nil {
		t.Fatalf("ComputeSNF returned error: %v", err)
	}
	// 30/4 + 0.20*4 + 0.36
	if snf != 8.66 {
		t.Fatalf("expected snf 8.66 got %.2f", snf)
	}
}

func TestComputeSNFPerState(t *testing.T) {
	cases := []struct {
		state string
		want  float64
	}{
		{"Tamil Nadu", 8.66},
		{"Kerala", 8.80},
		{"Karnataka", 8.85},
		{"Andhra Pradesh", 8.70},
		{"Telangana", 8.70},
		{"Maharashtra", 8.76},
	}
	for _, tc := range cases {
		snf, err := ComputeSNF(tc.state, 30, 4)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.state, err)
		}
		if snf != tc.want {
			t.Fatalf("%s: expected %.2f got %.2f", tc.state, tc.want, snf)
		}
	}
}

func TestComputeCLRRoundTrip(t *testing.T) {
	// Readings on the instrument grid (CLR in 0.2 steps, whole fat)
	// survive the intermediate SNF rounding exactly, so the round trip
	// must land within 0.01.
	fats := []float64{0, 2, 3, 4, 6, 9}
	clrs := []float64{0, 18.4, 24, 27.2, 30, 33.6}
	for _, state := range States() {
		for _, fat := range fats {
			for _, clr := range clrs {
				snf, err := ComputeSNF(state, clr, fat)
				if err != nil {
					t.Fatalf("%s: ComputeSNF: %v", state, err)
				}
				back, err := ComputeCLR(state, snf, fat)
				if err != nil {
					t.Fatalf("%s: ComputeCLR: %v", state, err)
				}
				if math.Abs(back-clr) > 0.01+1e-9 {
					t.Fatalf("%s clr=%.2f fat=%.2f: round trip gave %.4f", state, clr, fat, back)
				}
			}
		}
	}
}

func TestComputeCLRRoundTripDrift(t *testing.T) {
	// Off-grid readings pick up the SNF rounding times four plus one
	// final rounding, so the drift stays under 0.03.
	fats := []float64{2.5, 3.7, 6.12, 9.9}
	clrs := []float64{18.5, 27.3, 30.02, 33.33}
	for _, state := range States() {
		for _, fat := range fats {
			for _, clr := range clrs {
				snf, err := ComputeSNF(state, clr, fat)
				if err != nil {
					t.Fatalf("%s: ComputeSNF: %v", state, err)
				}
				back, err := ComputeCLR(state, snf, fat)
				if err != nil {
					t.Fatalf("%s: ComputeCLR: %v", state, err)
				}
				if math.Abs(back-clr) > 0.03 {
					t.Fatalf("%s clr=%.2f fat=%.2f: round trip gave %.4f", state, clr, fat, back)
				}
			}
		}
	}
}

func TestComputeSNFUnknownState(t *testing.T) {
	_, err := ComputeSNF("Goa", 30, 4)
	if err == nil {
		t.Fatal("expected error for unknown state")
	}
	var unknown *UnknownStateError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownStateError got %T", err)
	}
	if unknown.State != "Goa" {
		t.Fatalf("unexpected state in error: %q", unknown.State)
	}
}

func TestNormalizeState(t *testing.T) {
	if _, err := ComputeSNF("  tamil nadu ", 30, 4); err != nil {
		t.Fatalf("lowercase state should resolve: %v", err)
	}
	if NormalizeState("andhra pradesh") != "Andhra Pradesh" {
		t.Fatalf("unexpected normalization: %q", NormalizeState("andhra pradesh"))
	}
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	// 2.125 is exactly representable, so the .5 tie is real.
	if got := Round2(2.125); got != 2.13 {
		t.Fatalf("expected 2.13 got %v", got)
	}
	if got := Round2(-2.125); got != -2.13 {
		t.Fatalf("expected -2.13 got %v", got)
	}
	if got := Round2(2.004999); got != 2.0 {
		t.Fatalf("expected 2.0 got %v", got)
	}
}
