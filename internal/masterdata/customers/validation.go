package customers

import (
	"errors"
	"strings"

	"github.com/milkline/milkline/internal/quality"
)

// GSTINs are 15 characters when present. Registration is optional for
// small cooperatives, so blank is allowed.
func (s *Service) validate(c Customer) error {
	if strings.TrimSpace(c.Code) == "" {
		return errors.New("customer code is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("customer name is required")
	}
	if gstin := strings.TrimSpace(c.GSTIN); gstin != "" && len(gstin) != 15 {
		return errors.New("GSTIN must be 15 characters")
	}
	if strings.TrimSpace(c.State) != "" {
		if _, err := quality.StateCoefficients(c.State); err != nil {
			return err
		}
	}
	return nil
}
