package app

import (
	"context"
	"time"

	"github.com/areebimran2/CS-CAS/internal/clock"
	"github.com/areebimran2/CS-CAS/internal/domain"
)

type HoldRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, hold domain.Hold) error
	Get(ctx context.Context, id string) (domain.Hold, error)
	GetForUpdate(ctx context.Context, id string) (domain.Hold, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Hold, error)
	// UpdateStatus transitions the hold from one status to another as a
	// single conditional write; it returns ErrHoldNotActive when the hold is
	// no longer in the expected status.
	UpdateStatus(ctx context.Context, id string, from, to domain.HoldStatus, now time.Time) error
	MarkExtended(ctx context.Context, id string, expiresAt, now time.Time) error
	ExpireDue(ctx context.Context, now time.Time) (int, error)
	List(ctx context.Context, filter HoldFilter) ([]domain.Hold, error)
}

// ReservePolicyReader reads the currently active reserve policy. Services
// call it at the start of each operation rather than caching the policy, so
// admin changes apply to new holds without a restart.
type ReservePolicyReader interface {
	GetActiveReservePolicy(ctx context.Context) (domain.ReservePolicy, error)
}

type HoldFilter struct {
	Status    domain.HoldStatus
	SailingID string
	UserID    string
	Limit     int
	Offset    int
}

type HoldService struct {
	repo     HoldRepository
	policies ReservePolicyReader
	clock    clock.Clock
}

func NewHoldService(repo HoldRepository, policies ReservePolicyReader, clk clock.Clock) *HoldService {
	return &HoldService{
		repo:     repo,
		policies: policies,
		clock:    clk,
	}
}

type CreateHoldInput struct {
	SailingID      string
	CabinID        string
	UserID         string
	UCRef          string
	IdempotencyKey string
}

// CreateHold reserves a cabin for the duration set by the reserve policy.
// A second active hold for the same (sailing, cabin) fails with ErrCabinHeld;
// replaying the same idempotency key returns the original hold.
func (s *HoldService) CreateHold(ctx context.Context, in CreateHoldInput) (domain.Hold, error) {
	now := s.clock.Now()
	var result domain.Hold

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if in.IdempotencyKey != "" {
			existing, err := s.repo.FindByIdempotencyKey(txCtx, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if !sameHoldRequest(*existing, in) {
					return domain.ErrIdempotencyConflict
				}
				result = *existing
				return nil
			}
		}

		policy, err := s.policies.GetActiveReservePolicy(txCtx)
		if err != nil {
			return err
		}

		hold := domain.Hold{
			ID:             newID(),
			SailingID:      in.SailingID,
			CabinID:        in.CabinID,
			UserID:         in.UserID,
			UCRef:          in.UCRef,
			Status:         domain.HoldStatusActive,
			ExpiresAt:      now.Add(policy.MaxHoldDuration),
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := s.repo.Create(txCtx, hold); err != nil {
			return err
		}

		result = hold
		return nil
	})
	if err != nil {
		// The insert lost an idempotency-key race. The unique violation
		// aborted the transaction, so re-read the key on a fresh one.
		if err == domain.ErrIdempotencyConflict && in.IdempotencyKey != "" {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, in.IdempotencyKey)
			if findErr != nil {
				return domain.Hold{}, findErr
			}
			if existing != nil && sameHoldRequest(*existing, in) {
				return *existing, nil
			}
		}
		return domain.Hold{}, err
	}
	return result, nil
}

// ExtendHold pushes a hold's expiry out by the policy's extension duration.
// An already-lapsed hold is expired in place and reported as such.
func (s *HoldService) ExtendHold(ctx context.Context, holdID string) (domain.Hold, error) {
	now := s.clock.Now()
	var result domain.Hold
	var lapsed bool

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetForUpdate(txCtx, holdID)
		if err != nil {
			return err
		}
		if hold.Status != domain.HoldStatusActive {
			return domain.ErrHoldNotActive
		}
		// Returning nil here commits the expiry flip; the sentinel is
		// surfaced after the transaction so a rollback can't undo it.
		if expired, err := s.lazyExpire(txCtx, hold, now); err != nil {
			return err
		} else if expired {
			lapsed = true
			return nil
		}

		policy, err := s.policies.GetActiveReservePolicy(txCtx)
		if err != nil {
			return err
		}
		if !policy.AllowExtensions {
			return domain.ErrExtensionsDisabled
		}
		if hold.Extensions >= policy.MaxExtensions {
			return domain.ErrExtensionsExhausted
		}

		base := hold.ExpiresAt
		if now.After(base) {
			base = now
		}
		newExpiry := base.Add(policy.ExtensionDuration)

		if err := s.repo.MarkExtended(txCtx, hold.ID, newExpiry, now); err != nil {
			return err
		}

		hold.ExpiresAt = newExpiry
		hold.Extensions++
		hold.UpdatedAt = now
		result = hold
		return nil
	})
	if err != nil {
		return domain.Hold{}, err
	}
	if lapsed {
		return domain.Hold{}, domain.ErrHoldExpired
	}
	return result, nil
}

// ReleaseHold frees a held cabin early. Only the holder or an admin may do
// this directly; other users go through the release-request workflow.
func (s *HoldService) ReleaseHold(ctx context.Context, holdID, actor string, isAdmin bool) (domain.Hold, error) {
	now := s.clock.Now()
	var result domain.Hold
	var lapsed bool

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetForUpdate(txCtx, holdID)
		if err != nil {
			return err
		}
		if hold.Status != domain.HoldStatusActive {
			return domain.ErrHoldNotActive
		}
		if expired, err := s.lazyExpire(txCtx, hold, now); err != nil {
			return err
		} else if expired {
			lapsed = true
			return nil
		}
		if actor != hold.UserID && !isAdmin {
			return domain.ErrNotHoldOwner
		}

		if err := s.repo.UpdateStatus(txCtx, hold.ID, domain.HoldStatusActive, domain.HoldStatusReleased, now); err != nil {
			return err
		}

		hold.Status = domain.HoldStatusReleased
		hold.UpdatedAt = now
		result = hold
		return nil
	})
	if err != nil {
		return domain.Hold{}, err
	}
	if lapsed {
		return domain.Hold{}, domain.ErrHoldExpired
	}
	return result, nil
}

func (s *HoldService) GetHold(ctx context.Context, holdID string) (domain.Hold, error) {
	return s.repo.Get(ctx, holdID)
}

func (s *HoldService) ListHolds(ctx context.Context, filter HoldFilter) ([]domain.Hold, error) {
	return s.repo.List(ctx, filter)
}

// ExpireDue transitions every active hold whose expiry has passed. The sweep
// and the inline lazy checks share the same predicate (expires_at < now with
// status still active) so they can never disagree about a hold.
func (s *HoldService) ExpireDue(ctx context.Context) (int, error) {
	return s.repo.ExpireDue(ctx, s.clock.Now())
}

// lazyExpire marks a lapsed hold expired before the caller acts on it. The
// conditional update tolerates a concurrent sweep doing the same thing.
func (s *HoldService) lazyExpire(ctx context.Context, hold domain.Hold, now time.Time) (bool, error) {
	if !now.After(hold.ExpiresAt) {
		return false, nil
	}
	err := s.repo.UpdateStatus(ctx, hold.ID, domain.HoldStatusActive, domain.HoldStatusExpired, now)
	if err != nil && err != domain.ErrHoldNotActive {
		return false, err
	}
	return true, nil
}

func sameHoldRequest(existing domain.Hold, in CreateHoldInput) bool {
	return existing.SailingID == in.SailingID &&
		existing.CabinID == in.CabinID &&
		existing.UserID == in.UserID &&
		existing.UCRef == in.UCRef
}
