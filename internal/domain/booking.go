package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a confirmed sale of one cabin on one sailing. The pricing
// snapshot is captured at creation and never recomputed afterwards.
// At most one active booking exists per (sailing, cabin).
type Booking struct {
	ID             string
	SailingID      string
	CabinID        string
	UserID         string
	UCRef          string
	Snapshot       Snapshot
	Status         BookingStatus
	IdempotencyKey string
	Cancellation   *Cancellation
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Cancellation is the metadata recorded when a booking is cancelled.
type Cancellation struct {
	PolicyID    string
	Charge      decimal.Decimal
	Reason      string
	CancelledAt time.Time
}
