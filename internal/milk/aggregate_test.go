package milk

import (
	"math"
	"testing"
)

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	if s != (Summary{}) {
		t.Fatalf("expected zero summary got %+v", s)
	}
}

func TestAggregate(t *testing.T) {
	lines := []Line{
		{Compartment: CompartmentFront, KgQty: 103, Ltr: 100, Fat: 4, SNF: 8.66, CLR: 30},
		{Compartment: CompartmentMiddle, KgQty: 51.5, Ltr: 50, Fat: 5, SNF: 8.91, CLR: 30},
		{Compartment: CompartmentBack, KgQty: 0, Ltr: 0, Fat: 3, SNF: 8.41, CLR: 30},
	}
	s := Aggregate(lines)
	if s.Lines != 3 {
		t.Fatalf("expected 3 lines got %d", s.Lines)
	}
	if s.TotalKg != 154.5 {
		t.Fatalf("expected total kg 154.5 got %.2f", s.TotalKg)
	}
	if s.TotalLtr != 150 {
		t.Fatalf("expected total ltr 150 got %.2f", s.TotalLtr)
	}
	if s.AvgFat != 4 {
		t.Fatalf("expected avg fat 4 got %.2f", s.AvgFat)
	}
	if math.Abs(s.AvgSNF-8.66) > 1e-9 {
		t.Fatalf("expected avg snf 8.66 got %.4f", s.AvgSNF)
	}
	if math.Abs(s.Solid-12.66) > 1e-9 {
		t.Fatalf("expected solid 12.66 got %.4f", s.Solid)
	}
}

func TestAggregateReceived(t *testing.T) {
	lines := []ReceivedLine{
		{Line: Line{Compartment: CompartmentFront, Ltr: 100}, Price: 40, Amount: 4000},
		{Line: Line{Compartment: CompartmentBack, Ltr: 50}, Price: 44, Amount: 2200},
	}
	s, total := AggregateReceived(lines)
	if s.TotalLtr != 150 {
		t.Fatalf("expected total ltr 150 got %.2f", s.TotalLtr)
	}
	if total != 6200 {
		t.Fatalf("expected amount total 6200 got %.2f", total)
	}
}

func TestValidateLines(t *testing.T) {
	if err := ValidateLines(nil); err == nil {
		t.Fatal("empty set should be rejected")
	}

	dup := []Line{
		{Compartment: CompartmentFront},
		{Compartment: CompartmentFront},
	}
	err := ValidateLines(dup)
	if err == nil {
		t.Fatal("duplicate compartment should be rejected")
	}
	if _, ok := err.(*InvalidLineError); !ok {
		t.Fatalf("expected InvalidLineError got %T", err)
	}

	five := []Line{
		{Compartment: CompartmentFront},
		{Compartment: CompartmentMiddle},
		{Compartment: CompartmentBack},
		{Compartment: CompartmentAverage},
		{Compartment: CompartmentFront},
	}
	if err := ValidateLines(five); err == nil {
		t.Fatal("five lines should be rejected")
	}

	ok := []Line{
		{Compartment: CompartmentFront},
		{Compartment: CompartmentMiddle},
		{Compartment: CompartmentBack},
		{Compartment: CompartmentAverage},
	}
	if err := ValidateLines(ok); err != nil {
		t.Fatalf("four distinct compartments should pass: %v", err)
	}
}
