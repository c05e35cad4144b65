package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ReservePolicy governs hold expiry and extensions. Exactly one policy is
// active at a time (the most recently created row); it is read at the start
// of each operation, never cached across requests.
type ReservePolicy struct {
	ID              string
	MaxHoldDuration time.Duration
	// ReminderOffsets are durations before expiry at which a reminder should
	// fire. Stored order is arbitrary; consumers must tolerate any order.
	ReminderOffsets   []time.Duration
	AllowExtensions   bool
	MaxExtensions     int
	ExtensionDuration time.Duration
	CreatedAt         time.Time
}

// ReminderTimes returns the absolute instants, earliest first, at which
// reminders should fire for a hold expiring at expiresAt.
func (p ReservePolicy) ReminderTimes(expiresAt time.Time) []time.Time {
	times := make([]time.Time, 0, len(p.ReminderOffsets))
	for _, off := range p.ReminderOffsets {
		times = append(times, expiresAt.Add(-off))
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}

type CancellationChargeType string

const (
	ChargePercentTotal CancellationChargeType = "percent_total"
	ChargePercentCOS   CancellationChargeType = "percent_cos"
	ChargeFixedAmount  CancellationChargeType = "fixed_amount"
)

// CancellationPolicyTier maps an inclusive days-out range to a charge rule.
type CancellationPolicyTier struct {
	ID         string
	MinDays    int
	MaxDays    int
	ChargeType CancellationChargeType
	Value      decimal.Decimal
}

// Covers reports whether daysOut falls inside the tier's range.
func (t CancellationPolicyTier) Covers(daysOut int) bool {
	return daysOut >= t.MinDays && daysOut <= t.MaxDays
}

// CancellationPolicy is an ordered set of day-range tiers. Policies are
// replaced rather than mutated so past quotes stay reproducible.
type CancellationPolicy struct {
	ID            string
	Name          string
	NonRefundable bool
	Tiers         []CancellationPolicyTier
	CreatedAt     time.Time
}
