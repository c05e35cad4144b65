package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/areebimran2/CS-CAS/internal/cancellation"
	"github.com/areebimran2/CS-CAS/internal/clock"
	"github.com/areebimran2/CS-CAS/internal/domain"
)

type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, booking domain.Booking) error
	Get(ctx context.Context, id string) (domain.Booking, error)
	GetForUpdate(ctx context.Context, id string) (domain.Booking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error)
	// MarkCancelled records cancellation metadata as a conditional write; it
	// returns ErrBookingNotActive when the booking is no longer active.
	MarkCancelled(ctx context.Context, id string, c domain.Cancellation, now time.Time) error
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
}

// CancellationPolicyReader reads a cancellation policy with its tiers.
type CancellationPolicyReader interface {
	GetCancellationPolicy(ctx context.Context, id string) (domain.CancellationPolicy, error)
}

// PricingSource supplies the already-computed pricing snapshot captured at
// booking time. The engine never recomputes prices itself.
type PricingSource interface {
	GetCurrentPricingSnapshot(ctx context.Context, sailingID, cabinID string, mode domain.OccupancyMode) (domain.Snapshot, error)
}

type BookingFilter struct {
	Status    domain.BookingStatus
	SailingID string
	UserID    string
	Limit     int
	Offset    int
}

type BookingService struct {
	bookings BookingRepository
	holds    HoldRepository
	policies CancellationPolicyReader
	pricing  PricingSource
	clock    clock.Clock
}

func NewBookingService(bookings BookingRepository, holds HoldRepository, policies CancellationPolicyReader, pricing PricingSource, clk clock.Clock) *BookingService {
	return &BookingService{
		bookings: bookings,
		holds:    holds,
		policies: policies,
		pricing:  pricing,
		clock:    clk,
	}
}

type BookingMode string

const (
	BookingModeFromHold BookingMode = "from_hold"
	BookingModeDirect   BookingMode = "direct"
)

// CreateBookingInput is a tagged union dispatched on Mode: from_hold uses
// HoldID, direct uses the sailing/cabin/user fields.
type CreateBookingInput struct {
	Mode BookingMode

	HoldID string

	SailingID string
	CabinID   string
	UserID    string
	UCRef     string

	OccupancyMode     domain.OccupancyMode
	AcknowledgePolicy bool
	IdempotencyKey    string
}

// CreateBooking confirms a sale either by converting an active hold or
// directly. The caller must acknowledge the cancellation terms up front.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	if !in.AcknowledgePolicy {
		return domain.Booking{}, domain.ErrPolicyNotAcknowledged
	}
	switch in.Mode {
	case BookingModeFromHold:
		return s.createFromHold(ctx, in)
	case BookingModeDirect:
		return s.createDirect(ctx, in)
	default:
		return domain.Booking{}, domain.ErrInvalidMode
	}
}

// createFromHold converts a hold into a booking. The hold's transition to
// converted and the booking insert commit together or not at all.
func (s *BookingService) createFromHold(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	now := s.clock.Now()
	var result domain.Booking
	var lapsed bool

	err := s.bookings.WithTx(ctx, func(txCtx context.Context) error {
		// Lock the hold row before the replay check. A duplicate request
		// waiting on the lock resumes after the original commits and must
		// see the original's booking, not the converted hold.
		hold, err := s.holds.GetForUpdate(txCtx, in.HoldID)
		if err != nil {
			return err
		}
		if replayed, existing, err := s.findReplay(txCtx, in.IdempotencyKey); err != nil {
			return err
		} else if replayed {
			result = existing
			return nil
		}
		if hold.Status != domain.HoldStatusActive {
			return domain.ErrHoldNotActive
		}
		// Commit the expiry flip and surface the sentinel after the
		// transaction, so a rollback can't undo it.
		if now.After(hold.ExpiresAt) {
			if updErr := s.holds.UpdateStatus(txCtx, hold.ID, domain.HoldStatusActive, domain.HoldStatusExpired, now); updErr != nil && updErr != domain.ErrHoldNotActive {
				return updErr
			}
			lapsed = true
			return nil
		}

		snapshot, err := s.pricing.GetCurrentPricingSnapshot(txCtx, hold.SailingID, hold.CabinID, in.OccupancyMode)
		if err != nil {
			return domain.ErrPricingUnavailable
		}

		booking := domain.Booking{
			ID:             newID(),
			SailingID:      hold.SailingID,
			CabinID:        hold.CabinID,
			UserID:         hold.UserID,
			UCRef:          hold.UCRef,
			Snapshot:       snapshot,
			Status:         domain.BookingStatusActive,
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := s.bookings.Create(txCtx, booking); err != nil {
			return err
		}
		if err := s.holds.UpdateStatus(txCtx, hold.ID, domain.HoldStatusActive, domain.HoldStatusConverted, now); err != nil {
			return err
		}

		result = booking
		return nil
	})
	if err != nil {
		return s.replayAfterConflict(ctx, in.IdempotencyKey, err)
	}
	if lapsed {
		return domain.Booking{}, domain.ErrHoldExpired
	}
	return result, nil
}

// createDirect books a cabin without a prior hold. Exclusivity against other
// active bookings is enforced independently of the hold path.
func (s *BookingService) createDirect(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	now := s.clock.Now()
	var result domain.Booking

	err := s.bookings.WithTx(ctx, func(txCtx context.Context) error {
		if replayed, existing, err := s.findReplay(txCtx, in.IdempotencyKey); err != nil {
			return err
		} else if replayed {
			result = existing
			return nil
		}

		snapshot, err := s.pricing.GetCurrentPricingSnapshot(txCtx, in.SailingID, in.CabinID, in.OccupancyMode)
		if err != nil {
			return domain.ErrPricingUnavailable
		}

		booking := domain.Booking{
			ID:             newID(),
			SailingID:      in.SailingID,
			CabinID:        in.CabinID,
			UserID:         in.UserID,
			UCRef:          in.UCRef,
			Snapshot:       snapshot,
			Status:         domain.BookingStatusActive,
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := s.bookings.Create(txCtx, booking); err != nil {
			return err
		}

		result = booking
		return nil
	})
	if err != nil {
		return s.replayAfterConflict(ctx, in.IdempotencyKey, err)
	}
	return result, nil
}

// replayAfterConflict recovers the original booking after an insert lost an
// idempotency-key race. The unique violation aborted the transaction, so the
// lookup has to run outside it on a fresh one.
func (s *BookingService) replayAfterConflict(ctx context.Context, key string, err error) (domain.Booking, error) {
	if err != domain.ErrIdempotencyConflict || key == "" {
		return domain.Booking{}, err
	}
	existing, findErr := s.bookings.FindByIdempotencyKey(ctx, key)
	if findErr != nil {
		return domain.Booking{}, findErr
	}
	if existing == nil {
		return domain.Booking{}, err
	}
	return *existing, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	return s.bookings.Get(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, filter)
}

// QuoteCancellation computes the cancellation charge for a booking against a
// policy without changing anything. Callers review the quote, then commit it
// with CancelBooking.
func (s *BookingService) QuoteCancellation(ctx context.Context, bookingID, policyID string) (cancellation.QuoteResult, error) {
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return cancellation.QuoteResult{}, err
	}
	policy, err := s.policies.GetCancellationPolicy(ctx, policyID)
	if err != nil {
		return cancellation.QuoteResult{}, err
	}

	departure, err := time.Parse("2006-01-02", booking.Snapshot.DepartureDate)
	if err != nil {
		return cancellation.QuoteResult{}, fmt.Errorf("parse departure date %q: %w", booking.Snapshot.DepartureDate, err)
	}

	return cancellation.Quote(cancellation.QuoteInput{
		DepartureDate: departure,
		Today:         s.clock.Now(),
		Total:         booking.Snapshot.Total,
		CostOfSale:    booking.Snapshot.CostOfSale,
	}, policy)
}

type CancelBookingInput struct {
	BookingID string
	PolicyID  string
	Charge    decimal.Decimal
	Reason    string
}

// CancelBooking commits a previously quoted cancellation charge and moves
// the booking to its terminal cancelled status.
func (s *BookingService) CancelBooking(ctx context.Context, in CancelBookingInput) (domain.Booking, error) {
	now := s.clock.Now()
	var result domain.Booking

	err := s.bookings.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.bookings.GetForUpdate(txCtx, in.BookingID)
		if err != nil {
			return err
		}
		if booking.Status != domain.BookingStatusActive {
			return domain.ErrBookingNotActive
		}

		c := domain.Cancellation{
			PolicyID:    in.PolicyID,
			Charge:      in.Charge,
			Reason:      in.Reason,
			CancelledAt: now,
		}
		if err := s.bookings.MarkCancelled(txCtx, booking.ID, c, now); err != nil {
			return err
		}

		booking.Status = domain.BookingStatusCancelled
		booking.Cancellation = &c
		booking.UpdatedAt = now
		result = booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

// findReplay returns the booking previously created with the same key, if any.
func (s *BookingService) findReplay(ctx context.Context, key string) (bool, domain.Booking, error) {
	if key == "" {
		return false, domain.Booking{}, nil
	}
	existing, err := s.bookings.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return false, domain.Booking{}, err
	}
	if existing == nil {
		return false, domain.Booking{}, nil
	}
	return true, *existing, nil
}
