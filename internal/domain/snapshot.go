package domain

import "github.com/shopspring/decimal"

type OccupancyMode string

const (
	OccupancyTwoPax OccupancyMode = "2-pax"
	OccupancySingle OccupancyMode = "single"
)

// Money is an amount in a single currency. Fixed-amount cancellation tiers
// are assumed pre-converted to the booking currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// LineItem is one display row of a pricing snapshot.
type LineItem struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Snapshot is the pricing and cost-of-sale data captured when a booking is
// created. It is stored as-is (jsonb) so later pricing changes never affect
// historical bookings or their cancellation charges.
type Snapshot struct {
	Total         Money         `json:"total"`
	CostOfSale    Money         `json:"cos"`
	Currency      string        `json:"currency"`
	OccupancyMode OccupancyMode `json:"occupancy_mode"`
	DepartureDate string        `json:"departure_date"` // YYYY-MM-DD
	LineItems     []LineItem    `json:"line_items,omitempty"`
}
