package vendors

import (
	"errors"
	"strings"

	"github.com/milkline/milkline/internal/quality"
)

func (s *Service) validate(v Vendor) error {
	if strings.TrimSpace(v.Code) == "" {
		return errors.New("vendor code is required")
	}
	if strings.TrimSpace(v.Name) == "" {
		return errors.New("vendor name is required")
	}
	if strings.TrimSpace(v.State) != "" {
		if _, err := quality.StateCoefficients(v.State); err != nil {
			return err
		}
	}
	return nil
}
