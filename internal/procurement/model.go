// Package procurement is the milk collection flow: a vendor delivers a
// tanker load, the lab re-verifies it compartment by compartment, and
// the settlement derives the amount payable.
package procurement

import (
	"time"

	"github.com/milkline/milkline/internal/billing"
	"github.com/milkline/milkline/internal/milk"
)

// Purchase is one collection transaction. Delivery lines hold the
// vendor's declared readings; Received lines hold the re-verified
// readings plus pricing and are seeded from Delivery on creation.
type Purchase struct {
	ID         int64       `json:"id"`
	InvoiceNo  string      `json:"invoice_no"`
	Date       time.Time   `json:"date"`
	VendorID   int64       `json:"vendor_id"`
	VendorName string      `json:"vendor_name"`
	State      string      `json:"state"`
	VehicleNo  string      `json:"vehicle_no"`
	DriverName string      `json:"driver_name"`
	Status     milk.Status `json:"status"`
	IsDeleted  bool        `json:"is_deleted"`

	Delivery []milk.Line         `json:"delivery"`
	Received []milk.ReceivedLine `json:"received"`

	Commercials billing.PurchaseCommercials `json:"commercials"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// invoicePrefix feeds the MP-YYMM-SEQ numbering scheme.
const invoicePrefix = "MP"
