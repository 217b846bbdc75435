package httpx

import (
	"errors"
	"net/http"

	"github.com/milkline/milkline/internal/milk"
	"github.com/milkline/milkline/internal/quality"
)

// Sentinel errors shared across the shell modules.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
	ErrLocked     = errors.New("record no longer editable")
)

// RespondError maps domain errors to RFC7807 responses.
func RespondError(w http.ResponseWriter, err error) {
	var (
		unknownState *quality.UnknownStateError
		invalidLine  *milk.InvalidLineError
		transition   *milk.TransitionError
		missingRef   *milk.MissingReferenceError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrLocked):
		Problem(w, http.StatusConflict, "Not Editable", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &unknownState), errors.As(err, &invalidLine):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &transition):
		Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.As(err, &missingRef):
		Problem(w, http.StatusUnprocessableEntity, "Missing Reference", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
