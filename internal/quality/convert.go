package quality

import "math"

// Round2 rounds half away from zero to two decimal places. Applied once
// at the end of each derivation, never on intermediate terms.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeSNF derives solids-not-fat from a corrected lactometer reading
// and fat percentage using the state's coefficient pair.
func ComputeSNF(state string, clr, fat float64) (float64, error) {
	c, err := StateCoefficients(state)
	if err != nil {
		return 0, err
	}
	return Round2(clr/4 + c.FatFactor*fat + c.Constant), nil
}

// ComputeCLR is the algebraic inverse of ComputeSNF. Round-tripping a
// reading through both may drift by at most 0.01 from rounding.
func ComputeCLR(state string, snf, fat float64) (float64, error) {
	c, err := StateCoefficients(state)
	if err != nil {
		return 0, err
	}
	return Round2((snf - c.FatFactor*fat - c.Constant) * 4), nil
}
