// Package dispatch is the milk sale flow: a load leaves for a customer
// dairy, the receiving side re-verifies it, and the settlement derives
// the amount receivable. Volume runs on the CLR-density formula and the
// per-liter TS rate can auto-derive from the received quality.
package dispatch

import (
	"time"

	"github.com/milkline/milkline/internal/billing"
	"github.com/milkline/milkline/internal/milk"
)

// Sale is one dispatch transaction.
type Sale struct {
	ID           int64       `json:"id"`
	InvoiceNo    string      `json:"invoice_no"`
	Date         time.Time   `json:"date"`
	CustomerID   int64       `json:"customer_id"`
	CustomerName string      `json:"customer_name"`
	State        string      `json:"state"`
	VehicleNo    string      `json:"vehicle_no"`
	DriverName   string      `json:"driver_name"`
	Status       milk.Status `json:"status"`
	IsDeleted    bool        `json:"is_deleted"`

	Delivery []milk.Line         `json:"delivery"`
	Received []milk.ReceivedLine `json:"received"`

	Commercials billing.SaleCommercials `json:"commercials"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const invoicePrefix = "MS"
