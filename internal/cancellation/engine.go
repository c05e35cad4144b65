// Package cancellation computes cancellation charges against a tiered policy.
// The computation is a pure function of its inputs so the same code serves
// hypothetical pre-booking quotes and real cancellation confirmations.
package cancellation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/areebimran2/CS-CAS/internal/domain"
)

// QuoteInput carries everything the engine needs. Total and CostOfSale come
// from a booking snapshot for real quotes, or from caller-supplied figures
// for hypothetical ones.
type QuoteInput struct {
	DepartureDate time.Time
	Today         time.Time
	Total         domain.Money
	CostOfSale    domain.Money
}

// QuoteResult is the outcome of a cancellation quote. NonRefundable marks a
// policy-level short-circuit (Tier is nil) as opposed to a 100% tier charge.
type QuoteResult struct {
	DaysOut        int
	Tier           *domain.CancellationPolicyTier
	Charge         domain.Money
	ClampedToTotal bool
	NonRefundable  bool
}

var hundred = decimal.NewFromInt(100)

// Quote selects the applicable tier for the days remaining until departure
// and computes the charge, clamped to the booking total.
func Quote(in QuoteInput, policy domain.CancellationPolicy) (QuoteResult, error) {
	daysOut := daysBetween(in.Today, in.DepartureDate)

	if policy.NonRefundable {
		return QuoteResult{
			DaysOut:       daysOut,
			Charge:        domain.Money{Amount: in.Total.Amount.Round(2), Currency: in.Total.Currency},
			NonRefundable: true,
		}, nil
	}

	tier, ok := selectTier(policy.Tiers, daysOut)
	if !ok {
		return QuoteResult{}, domain.ErrNoTierMatched
	}

	var raw decimal.Decimal
	switch tier.ChargeType {
	case domain.ChargePercentTotal:
		raw = in.Total.Amount.Mul(tier.Value).Div(hundred)
	case domain.ChargePercentCOS:
		raw = in.CostOfSale.Amount.Mul(tier.Value).Div(hundred)
	case domain.ChargeFixedAmount:
		raw = tier.Value
	default:
		return QuoteResult{}, domain.ErrNoTierMatched
	}
	raw = raw.Round(2)

	charge := raw
	clamped := false
	if charge.GreaterThan(in.Total.Amount) {
		charge = in.Total.Amount.Round(2)
		clamped = true
	}

	return QuoteResult{
		DaysOut:        daysOut,
		Tier:           &tier,
		Charge:         domain.Money{Amount: charge, Currency: in.Total.Currency},
		ClampedToTotal: clamped,
	}, nil
}

// selectTier picks the tier covering daysOut, resolving overlapping ranges
// (a data-quality anomaly) by the smallest min_days. Negative days out fall
// back to the day-0 tier unless a tier covers the negative value explicitly.
func selectTier(tiers []domain.CancellationPolicyTier, daysOut int) (domain.CancellationPolicyTier, bool) {
	if t, ok := matchTier(tiers, daysOut); ok {
		return t, true
	}
	if daysOut < 0 {
		return matchTier(tiers, 0)
	}
	return domain.CancellationPolicyTier{}, false
}

func matchTier(tiers []domain.CancellationPolicyTier, daysOut int) (domain.CancellationPolicyTier, bool) {
	var best domain.CancellationPolicyTier
	found := false
	for _, t := range tiers {
		if !t.Covers(daysOut) {
			continue
		}
		if !found || t.MinDays < best.MinDays {
			best = t
			found = true
		}
	}
	return best, found
}

// daysBetween returns the whole civil days from 'from' to 'to', ignoring the
// time of day. Negative when 'to' is in the past.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.UTC().Date()
	ty, tm, td := to.UTC().Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f) / (24 * time.Hour))
}
