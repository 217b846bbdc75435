package milk

import "errors"

// Status is the transaction lifecycle state. Delivered records are
// mutable; Accepted and Rejected are terminal. Soft-delete is an
// orthogonal flag and never changes the status.
type Status string

const (
	StatusDelivered Status = "DELIVERED"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
)

// ErrAlreadyAccepted signals a repeated accept. Callers treat it as a
// no-op success so billing side effects never apply twice.
var ErrAlreadyAccepted = errors.New("milk: transaction already accepted")

// CanEdit reports whether lines and billing inputs may still change.
func CanEdit(status Status, deleted bool) bool {
	return status == StatusDelivered && !deleted
}

// Transition validates a lifecycle move. Only Delivered → Accepted and
// Delivered → Rejected exist; nothing returns to Delivered.
func Transition(current, target Status, deleted bool) error {
	if deleted {
		return &TransitionError{From: current, To: target, Reason: "record is in the recycle bin"}
	}
	switch target {
	case StatusAccepted:
		if current == StatusAccepted {
			return ErrAlreadyAccepted
		}
		if current != StatusDelivered {
			return &TransitionError{From: current, To: target, Reason: "only delivered records can be accepted"}
		}
	case StatusRejected:
		if current != StatusDelivered {
			return &TransitionError{From: current, To: target, Reason: "only delivered records can be rejected"}
		}
	default:
		return &TransitionError{From: current, To: target, Reason: "unknown target status"}
	}
	return nil
}
