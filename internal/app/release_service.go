package app

import (
	"context"
	"time"

	"github.com/areebimran2/CS-CAS/internal/clock"
	"github.com/areebimran2/CS-CAS/internal/domain"
)

type ReleaseRequestRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, req domain.ReleaseRequest) error
	GetForUpdate(ctx context.Context, id string) (domain.ReleaseRequest, error)
	// Resolve records the outcome; it returns ErrRequestResolved when another
	// actor resolved the request first.
	Resolve(ctx context.Context, id string, result domain.ReleaseResult, resolvedAt time.Time) error
	List(ctx context.Context, filter ReleaseRequestFilter) ([]domain.ReleaseRequest, error)
}

type ReleaseRequestFilter struct {
	HoldID     string
	Unresolved bool
	Limit      int
	Offset     int
}

// ReleaseRequestService runs the cross-user workflow for freeing a cabin
// held by someone else: request, then approve (releasing the hold in the
// same transaction) or deny.
type ReleaseRequestService struct {
	requests ReleaseRequestRepository
	holds    HoldRepository
	clock    clock.Clock
}

func NewReleaseRequestService(requests ReleaseRequestRepository, holds HoldRepository, clk clock.Clock) *ReleaseRequestService {
	return &ReleaseRequestService{
		requests: requests,
		holds:    holds,
		clock:    clk,
	}
}

type CreateReleaseRequestInput struct {
	HoldID      string
	RequestedBy string
	Reason      string
}

// CreateReleaseRequest records a third party's ask to free an active hold.
// The hold itself is untouched until the request is approved.
func (s *ReleaseRequestService) CreateReleaseRequest(ctx context.Context, in CreateReleaseRequestInput) (domain.ReleaseRequest, error) {
	now := s.clock.Now()
	var result domain.ReleaseRequest
	var lapsed bool

	err := s.requests.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.holds.GetForUpdate(txCtx, in.HoldID)
		if err != nil {
			return err
		}
		if hold.Status != domain.HoldStatusActive {
			return domain.ErrHoldNotActive
		}
		// Commit the expiry flip and surface the sentinel after the
		// transaction, so a rollback can't undo it.
		if now.After(hold.ExpiresAt) {
			if err := s.expireLapsed(txCtx, hold.ID, now); err != nil {
				return err
			}
			lapsed = true
			return nil
		}
		if hold.UserID == in.RequestedBy {
			return domain.ErrOwnHold
		}

		req := domain.ReleaseRequest{
			ID:          newID(),
			HoldID:      in.HoldID,
			RequestedBy: in.RequestedBy,
			Reason:      in.Reason,
			CreatedAt:   now,
		}
		if err := s.requests.Create(txCtx, req); err != nil {
			return err
		}

		result = req
		return nil
	})
	if err != nil {
		return domain.ReleaseRequest{}, err
	}
	if lapsed {
		return domain.ReleaseRequest{}, domain.ErrHoldExpired
	}
	return result, nil
}

type ResolveReleaseRequestResult struct {
	Request domain.ReleaseRequest
	Hold    *domain.Hold
}

// ApproveRequest releases the target hold and resolves the request in one
// transaction. The hold is re-checked first: if it expired, was released, or
// was converted since the request was made, the approval fails and the hold
// keeps its current status. Two concurrent approvals resolve to exactly one
// success.
func (s *ReleaseRequestService) ApproveRequest(ctx context.Context, requestID string) (ResolveReleaseRequestResult, error) {
	now := s.clock.Now()
	var result ResolveReleaseRequestResult
	var lapsed bool

	err := s.requests.WithTx(ctx, func(txCtx context.Context) error {
		req, err := s.requests.GetForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if req.Resolved() {
			return domain.ErrRequestResolved
		}

		hold, err := s.holds.GetForUpdate(txCtx, req.HoldID)
		if err != nil {
			return err
		}
		if hold.Status != domain.HoldStatusActive {
			return domain.ErrHoldNotActive
		}
		if now.After(hold.ExpiresAt) {
			if err := s.expireLapsed(txCtx, hold.ID, now); err != nil {
				return err
			}
			lapsed = true
			return nil
		}

		if err := s.holds.UpdateStatus(txCtx, hold.ID, domain.HoldStatusActive, domain.HoldStatusReleased, now); err != nil {
			return err
		}
		if err := s.requests.Resolve(txCtx, req.ID, domain.ReleaseResultApproved, now); err != nil {
			return err
		}

		hold.Status = domain.HoldStatusReleased
		hold.UpdatedAt = now
		req.Result = domain.ReleaseResultApproved
		req.ResolvedAt = &now
		result = ResolveReleaseRequestResult{Request: req, Hold: &hold}
		return nil
	})
	if err != nil {
		return ResolveReleaseRequestResult{}, err
	}
	if lapsed {
		return ResolveReleaseRequestResult{}, domain.ErrHoldExpired
	}
	return result, nil
}

// DenyRequest resolves the request without touching the hold.
func (s *ReleaseRequestService) DenyRequest(ctx context.Context, requestID string) (ResolveReleaseRequestResult, error) {
	now := s.clock.Now()
	var result ResolveReleaseRequestResult

	err := s.requests.WithTx(ctx, func(txCtx context.Context) error {
		req, err := s.requests.GetForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if req.Resolved() {
			return domain.ErrRequestResolved
		}
		if err := s.requests.Resolve(txCtx, req.ID, domain.ReleaseResultDenied, now); err != nil {
			return err
		}

		req.Result = domain.ReleaseResultDenied
		req.ResolvedAt = &now
		result = ResolveReleaseRequestResult{Request: req}
		return nil
	})
	if err != nil {
		return ResolveReleaseRequestResult{}, err
	}
	return result, nil
}

func (s *ReleaseRequestService) ListRequests(ctx context.Context, filter ReleaseRequestFilter) ([]domain.ReleaseRequest, error) {
	return s.requests.List(ctx, filter)
}

func (s *ReleaseRequestService) expireLapsed(ctx context.Context, holdID string, now time.Time) error {
	err := s.holds.UpdateStatus(ctx, holdID, domain.HoldStatusActive, domain.HoldStatusExpired, now)
	if err != nil && err != domain.ErrHoldNotActive {
		return err
	}
	return nil
}
