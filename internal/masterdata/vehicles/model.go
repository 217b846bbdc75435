package vehicles

import "time"

// Vehicle is a tanker or can carrier used on collection routes.
// TransporterID is nil for cooperative-owned vehicles.
type Vehicle struct {
	ID            int64     `json:"id"`
	RegNo         string    `json:"reg_no"`
	Capacity      float64   `json:"capacity"`
	TransporterID *int64    `json:"transporter_id,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
