package milk

import (
	"errors"
	"testing"
)

func TestTransitionAccept(t *testing.T) {
	if err := Transition(StatusDelivered, StatusAccepted, false); err != nil {
		t.Fatalf("delivered -> accepted should pass: %v", err)
	}
}

func TestTransitionReAcceptIsNoOp(t *testing.T) {
	err := Transition(StatusAccepted, StatusAccepted, false)
	if !errors.Is(err, ErrAlreadyAccepted) {
		t.Fatalf("expected ErrAlreadyAccepted got %v", err)
	}
}

func TestTransitionRejectTerminal(t *testing.T) {
	err := Transition(StatusRejected, StatusRejected, false)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError got %v", err)
	}

	err = Transition(StatusAccepted, StatusRejected, false)
	if !errors.As(err, &te) {
		t.Fatalf("accepted -> rejected should fail, got %v", err)
	}
}

func TestTransitionDeletedRecord(t *testing.T) {
	err := Transition(StatusDelivered, StatusAccepted, true)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("deleted record should refuse transitions, got %v", err)
	}
}

func TestNoWayBackToDelivered(t *testing.T) {
	err := Transition(StatusAccepted, StatusDelivered, false)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError got %v", err)
	}
}

func TestCanEdit(t *testing.T) {
	if !CanEdit(StatusDelivered, false) {
		t.Fatal("delivered record should be editable")
	}
	if CanEdit(StatusAccepted, false) {
		t.Fatal("accepted record must not be editable")
	}
	if CanEdit(StatusDelivered, true) {
		t.Fatal("recycled record must not be editable")
	}
}
