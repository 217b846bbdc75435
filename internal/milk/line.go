// Package milk holds the transaction-line domain model shared by the
// collection (purchase) and dispatch (sale) flows: compartment
// readings, the derived-field edit reducer, line-set aggregation and
// the transaction lifecycle.
package milk

import "github.com/milkline/milkline/internal/quality"

// Direction selects which volume formula applies.
type Direction string

const (
	DirectionPurchase Direction = "PURCHASE"
	DirectionSale     Direction = "SALE"
)

// Compartment identifies one physical section of a tanker load.
type Compartment string

const (
	CompartmentFront   Compartment = "FRONT"
	CompartmentMiddle  Compartment = "MIDDLE"
	CompartmentBack    Compartment = "BACK"
	CompartmentAverage Compartment = "AVERAGE"
)

// MaxLines is the number of compartments a single load can carry.
const MaxLines = 4

// Line is one compartment reading within a transaction. SNF and Ltr
// are pure functions of the measured fields and are only ever written
// by the reducer, never directly by a caller.
type Line struct {
	ID          int64       `json:"id"`
	Compartment Compartment `json:"compartment"`
	MilkTypeID  int64       `json:"milk_type_id"`
	KgQty       float64     `json:"kg_qty"`
	Ltr         float64     `json:"ltr"`
	Fat         float64     `json:"fat"`
	CLR         float64     `json:"clr"`
	SNF         float64     `json:"snf"`

	// Secondary quality readings, recorded but not used in any formula.
	Temperature  float64 `json:"temperature"`
	MBRT         float64 `json:"mbrt"`
	Acidity      float64 `json:"acidity"`
	COB          bool    `json:"cob"`
	Alcohol      float64 `json:"alcohol"`
	Adulteration string  `json:"adulteration"`
	SealNo       string  `json:"seal_no"`
}

// ReceivedLine extends a Line with settlement pricing. Amount is
// Price times Ltr at full precision; rounding happens at display.
type ReceivedLine struct {
	Line
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
}

// LineChange describes one edit to a line's measured inputs. Nil
// fields are untouched. The reducer recomputes every derived field so
// a stale SNF or Ltr is never observable after an edit.
type LineChange struct {
	MilkTypeID *int64
	KgQty      *float64
	Fat        *float64
	CLR        *float64

	Temperature  *float64
	MBRT         *float64
	Acidity      *float64
	COB          *bool
	Alcohol      *float64
	Adulteration *string
	SealNo       *string
}

// ReceivedChange is a LineChange plus the per-liter price.
type ReceivedChange struct {
	LineChange
	Price *float64
}

// ApplyLineChange applies an edit and recomputes SNF and Ltr. SNF
// always follows the state table; Ltr follows the direction formula,
// so a CLR edit moves the volume on the sale side only.
func ApplyLineChange(dir Direction, state string, l Line, ch LineChange) (Line, error) {
	if ch.MilkTypeID != nil {
		l.MilkTypeID = *ch.MilkTypeID
	}
	if ch.KgQty != nil {
		l.KgQty = *ch.KgQty
	}
	if ch.Fat != nil {
		l.Fat = *ch.Fat
	}
	if ch.CLR != nil {
		l.CLR = *ch.CLR
	}
	if ch.Temperature != nil {
		l.Temperature = *ch.Temperature
	}
	if ch.MBRT != nil {
		l.MBRT = *ch.MBRT
	}
	if ch.Acidity != nil {
		l.Acidity = *ch.Acidity
	}
	if ch.COB != nil {
		l.COB = *ch.COB
	}
	if ch.Alcohol != nil {
		l.Alcohol = *ch.Alcohol
	}
	if ch.Adulteration != nil {
		l.Adulteration = *ch.Adulteration
	}
	if ch.SealNo != nil {
		l.SealNo = *ch.SealNo
	}

	snf, err := quality.ComputeSNF(state, l.CLR, l.Fat)
	if err != nil {
		return Line{}, err
	}
	l.SNF = snf

	switch dir {
	case DirectionSale:
		l.Ltr = quality.SaleLiters(l.KgQty, l.CLR)
	default:
		l.Ltr = quality.PurchaseLiters(l.KgQty)
	}
	return l, nil
}

// ApplyReceivedChange applies an edit to a priced line. The amount is
// recomputed in the same step as the volume, so a weight edit flows
// through to the money with no intermediate state.
func ApplyReceivedChange(dir Direction, state string, rl ReceivedLine, ch ReceivedChange) (ReceivedLine, error) {
	line, err := ApplyLineChange(dir, state, rl.Line, ch.LineChange)
	if err != nil {
		return ReceivedLine{}, err
	}
	rl.Line = line
	if ch.Price != nil {
		rl.Price = *ch.Price
	}
	rl.Amount = rl.Price * rl.Ltr
	return rl, nil
}

// SeedReceived copies delivery lines into an independent received set.
// After seeding the two sets never share state.
func SeedReceived(delivery []Line) []ReceivedLine {
	out := make([]ReceivedLine, len(delivery))
	for i, l := range delivery {
		out[i] = ReceivedLine{Line: l}
	}
	return out
}
