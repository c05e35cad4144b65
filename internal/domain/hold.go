package domain

import "time"

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusReleased  HoldStatus = "released"
	HoldStatusExpired   HoldStatus = "expired"
	HoldStatusConverted HoldStatus = "converted"
)

// IsTerminal reports whether no further status transition is allowed.
func (s HoldStatus) IsTerminal() bool {
	return s == HoldStatusReleased || s == HoldStatusExpired || s == HoldStatusConverted
}

// Hold reserves one cabin on one sailing for a limited time.
// At most one active hold exists per (sailing, cabin).
type Hold struct {
	ID             string
	SailingID      string
	CabinID        string
	UserID         string
	UCRef          string
	Status         HoldStatus
	ExpiresAt      time.Time
	Extensions     int
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
