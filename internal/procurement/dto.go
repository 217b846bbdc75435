package procurement

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/milkline/milkline/internal/billing"
	"github.com/milkline/milkline/internal/milk"
	"github.com/milkline/milkline/internal/platform/httpx"
)

var validate = validator.New()

// Numeric request fields arrive as strings because the capture devices
// submit blank inputs for untouched readings. A blank coerces to zero
// here and nowhere else; past this layer everything is float64.
func parseDecimal(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be numeric", httpx.ErrValidation, field)
	}
	return v, nil
}

type LineDTO struct {
	Compartment  string `json:"compartment" validate:"required,oneof=FRONT MIDDLE BACK AVERAGE"`
	MilkTypeID   int64  `json:"milk_type_id" validate:"required,gt=0"`
	KgQty        string `json:"kg_qty"`
	Fat          string `json:"fat"`
	CLR          string `json:"clr"`
	Price        string `json:"price"`
	Temperature  string `json:"temperature"`
	MBRT         string `json:"mbrt"`
	Acidity      string `json:"acidity"`
	COB          bool   `json:"cob"`
	Alcohol      string `json:"alcohol"`
	Adulteration string `json:"adulteration"`
	SealNo       string `json:"seal_no"`
}

func (d LineDTO) toInput() (LineInput, error) {
	var in LineInput
	var err error
	line := milk.Line{
		Compartment:  milk.Compartment(d.Compartment),
		MilkTypeID:   d.MilkTypeID,
		COB:          d.COB,
		Adulteration: d.Adulteration,
		SealNo:       d.SealNo,
	}
	if line.KgQty, err = parseDecimal("kg_qty", d.KgQty); err != nil {
		return in, err
	}
	if line.Fat, err = parseDecimal("fat", d.Fat); err != nil {
		return in, err
	}
	if line.CLR, err = parseDecimal("clr", d.CLR); err != nil {
		return in, err
	}
	if line.Temperature, err = parseDecimal("temperature", d.Temperature); err != nil {
		return in, err
	}
	if line.MBRT, err = parseDecimal("mbrt", d.MBRT); err != nil {
		return in, err
	}
	if line.Acidity, err = parseDecimal("acidity", d.Acidity); err != nil {
		return in, err
	}
	if line.Alcohol, err = parseDecimal("alcohol", d.Alcohol); err != nil {
		return in, err
	}
	in.Line = line
	if in.Price, err = parseDecimal("price", d.Price); err != nil {
		return in, err
	}
	return in, nil
}

type CommercialsDTO struct {
	FixedCost       string `json:"fixed_cost"`
	DistanceCharge  string `json:"distance_charge"`
	IncludeDistance bool   `json:"include_distance"`
	TollCharge      string `json:"toll_charge"`
	Discount        string `json:"discount"`
	TaxPercent      string `json:"tax_percent"`
}

func (d CommercialsDTO) toCommercials() (billing.PurchaseCommercials, error) {
	var c billing.PurchaseCommercials
	var err error
	c.IncludeDistance = d.IncludeDistance
	if c.FixedCost, err = parseDecimal("fixed_cost", d.FixedCost); err != nil {
		return c, err
	}
	if c.DistanceCharge, err = parseDecimal("distance_charge", d.DistanceCharge); err != nil {
		return c, err
	}
	if c.TollCharge, err = parseDecimal("toll_charge", d.TollCharge); err != nil {
		return c, err
	}
	if c.Discount, err = parseDecimal("discount", d.Discount); err != nil {
		return c, err
	}
	if c.TaxPercent, err = parseDecimal("tax_percent", d.TaxPercent); err != nil {
		return c, err
	}
	return c, nil
}

type PurchaseDTO struct {
	Date        string         `json:"date" validate:"required,datetime=2006-01-02"`
	VendorID    int64          `json:"vendor_id" validate:"required,gt=0"`
	State       string         `json:"state"`
	VehicleNo   string         `json:"vehicle_no"`
	DriverName  string         `json:"driver_name"`
	Lines       []LineDTO      `json:"lines" validate:"required,min=1,max=4,dive"`
	Commercials CommercialsDTO `json:"commercials"`
}

func (d PurchaseDTO) toCreateInput() (CreateInput, error) {
	var in CreateInput
	if err := validate.Struct(d); err != nil {
		return in, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	date, err := time.Parse("2006-01-02", d.Date)
	if err != nil {
		return in, fmt.Errorf("%w: date must be YYYY-MM-DD", httpx.ErrValidation)
	}
	in.Date = date
	in.VendorID = d.VendorID
	in.State = d.State
	in.VehicleNo = d.VehicleNo
	in.DriverName = d.DriverName
	for _, ld := range d.Lines {
		li, err := ld.toInput()
		if err != nil {
			return in, err
		}
		in.Lines = append(in.Lines, li)
	}
	if in.Commercials, err = d.Commercials.toCommercials(); err != nil {
		return in, err
	}
	return in, nil
}

func (d PurchaseDTO) toUpdateInput() (UpdateInput, error) {
	ci, err := d.toCreateInput()
	return UpdateInput(ci), err
}

// ReceivedChangeDTO carries a partial lab edit. Nil leaves a field
// untouched; a present blank string coerces to zero.
type ReceivedChangeDTO struct {
	MilkTypeID   *int64  `json:"milk_type_id"`
	KgQty        *string `json:"kg_qty"`
	Fat          *string `json:"fat"`
	CLR          *string `json:"clr"`
	Price        *string `json:"price"`
	Temperature  *string `json:"temperature"`
	MBRT         *string `json:"mbrt"`
	Acidity      *string `json:"acidity"`
	COB          *bool   `json:"cob"`
	Alcohol      *string `json:"alcohol"`
	Adulteration *string `json:"adulteration"`
	SealNo       *string `json:"seal_no"`
}

func (d ReceivedChangeDTO) toChange() (milk.ReceivedChange, error) {
	var ch milk.ReceivedChange
	ch.MilkTypeID = d.MilkTypeID
	ch.COB = d.COB
	ch.Adulteration = d.Adulteration
	ch.SealNo = d.SealNo

	assign := func(field string, raw *string, dst **float64) error {
		if raw == nil {
			return nil
		}
		v, err := parseDecimal(field, *raw)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}
	if err := assign("kg_qty", d.KgQty, &ch.KgQty); err != nil {
		return ch, err
	}
	if err := assign("fat", d.Fat, &ch.Fat); err != nil {
		return ch, err
	}
	if err := assign("clr", d.CLR, &ch.CLR); err != nil {
		return ch, err
	}
	if err := assign("price", d.Price, &ch.Price); err != nil {
		return ch, err
	}
	if err := assign("temperature", d.Temperature, &ch.Temperature); err != nil {
		return ch, err
	}
	if err := assign("mbrt", d.MBRT, &ch.MBRT); err != nil {
		return ch, err
	}
	if err := assign("acidity", d.Acidity, &ch.Acidity); err != nil {
		return ch, err
	}
	if err := assign("alcohol", d.Alcohol, &ch.Alcohol); err != nil {
		return ch, err
	}
	return ch, nil
}
