package hours

import "time"

// CustomerPackage represents a purchased block of prepaid service hours
type CustomerPackage struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Name           string     `json:"name"`
	TotalHours     float64    `json:"total_hours"`
	RemainingHours float64    `json:"remaining_hours"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
