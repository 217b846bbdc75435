package milk

import "fmt"

// InvalidLineError rejects a malformed line set before aggregation.
type InvalidLineError struct {
	Reason string
}

func (e *InvalidLineError) Error() string {
	return "milk: invalid line set: " + e.Reason
}

// TransitionError rejects a lifecycle action on a record that cannot
// accept it. The record is left unchanged.
type TransitionError struct {
	From   Status
	To     Status
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("milk: cannot move %s to %s: %s", e.From, e.To, e.Reason)
}

// MissingReferenceError marks a master-data id that could not be
// resolved. Aggregation and billing proceed; only the label is lost.
type MissingReferenceError struct {
	Kind string
	ID   int64
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("milk: %s %d not found in master data", e.Kind, e.ID)
}
