package milk

// Summary is the roll-up of one line set. Solid (avg fat + avg SNF) is
// the quality proxy the sale settlement prices against; it is a sum of
// the two averages, not a weighted figure.
type Summary struct {
	Lines    int     `json:"lines"`
	TotalKg  float64 `json:"total_kg"`
	TotalLtr float64 `json:"total_ltr"`
	AvgFat   float64 `json:"avg_fat"`
	AvgSNF   float64 `json:"avg_snf"`
	AvgCLR   float64 `json:"avg_clr"`
	Solid    float64 `json:"solid"`
}

// ValidateLines enforces the compartment rules: one to four lines,
// each compartment used at most once.
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return &InvalidLineError{Reason: "at least one compartment reading required"}
	}
	if len(lines) > MaxLines {
		return &InvalidLineError{Reason: "more than four compartment readings"}
	}
	seen := make(map[Compartment]bool, len(lines))
	for _, l := range lines {
		if seen[l.Compartment] {
			return &InvalidLineError{Reason: "duplicate compartment " + string(l.Compartment)}
		}
		seen[l.Compartment] = true
	}
	return nil
}

// Aggregate rolls a line set into totals and simple averages. An empty
// set yields the zero Summary.
func Aggregate(lines []Line) Summary {
	var s Summary
	s.Lines = len(lines)
	if len(lines) == 0 {
		return s
	}
	for _, l := range lines {
		s.TotalKg += l.KgQty
		s.TotalLtr += l.Ltr
		s.AvgFat += l.Fat
		s.AvgSNF += l.SNF
		s.AvgCLR += l.CLR
	}
	n := float64(len(lines))
	s.AvgFat /= n
	s.AvgSNF /= n
	s.AvgCLR /= n
	s.Solid = s.AvgFat + s.AvgSNF
	return s
}

// AggregateReceived rolls up a priced line set and additionally sums
// the line amounts.
func AggregateReceived(lines []ReceivedLine) (Summary, float64) {
	plain := make([]Line, len(lines))
	var total float64
	for i, rl := range lines {
		plain[i] = rl.Line
		total += rl.Amount
	}
	return Aggregate(plain), total
}
