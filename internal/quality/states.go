// Package quality converts raw milk lab readings (FAT, CLR) into the
// standardized figures the billing chain consumes (SNF, liters).
package quality

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Coefficients hold the state-specific SNF formula parameters.
type Coefficients struct {
	FatFactor float64
	Constant  float64
}

// Coefficient table per state. The SNF formula is
// snf = clr/4 + FatFactor*fat + Constant.
var stateCoefficients = map[string]Coefficients{
	"Tamil Nadu":     {FatFactor: 0.20, Constant: 0.36},
	"Kerala":         {FatFactor: 0.20, Constant: 0.50},
	"Karnataka":      {FatFactor: 0.25, Constant: 0.35},
	"Andhra Pradesh": {FatFactor: 0.21, Constant: 0.36},
	"Telangana":      {FatFactor: 0.21, Constant: 0.36},
	"Maharashtra":    {FatFactor: 0.22, Constant: 0.38},
}

// UnknownStateError indicates the state has no coefficient entry.
// Conversion must fail rather than fall back to a default pair.
type UnknownStateError struct {
	State string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("quality: unknown state %q", e.State)
}

var titleCaser = cases.Title(language.English)

// NormalizeState canonicalizes a user-entered state name for table
// lookup ("tamil nadu" becomes "Tamil Nadu"). It does not validate
// membership; StateCoefficients does.
func NormalizeState(state string) string {
	return titleCaser.String(strings.TrimSpace(state))
}

// StateCoefficients returns the coefficient pair for a state.
func StateCoefficients(state string) (Coefficients, error) {
	c, ok := stateCoefficients[NormalizeState(state)]
	if !ok {
		return Coefficients{}, &UnknownStateError{State: state}
	}
	return c, nil
}

// States lists the states with coefficient entries.
func States() []string {
	out := make([]string, 0, len(stateCoefficients))
	for s := range stateCoefficients {
		out = append(out, s)
	}
	return out
}
