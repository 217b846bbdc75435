package vendors

import "time"

// Vendor is a milk supplier the cooperative collects from.
type Vendor struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Village     string    `json:"village"`
	Phone       string    `json:"phone"`
	State       string    `json:"state"`
	BankAccount string    `json:"bank_account"`
	IFSC        string    `json:"ifsc"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
