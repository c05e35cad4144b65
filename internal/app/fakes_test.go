package app

import (
	"context"
	"sort"
	"time"

	"github.com/areebimran2/CS-CAS/internal/domain"
)

// fakeStore is an in-memory stand-in for the postgres repositories. WithTx
// snapshots the maps and restores them when the closure fails, so tests can
// assert that multi-write operations commit together or not at all.
type fakeStore struct {
	holds    map[string]domain.Hold
	bookings map[string]domain.Booking
	requests map[string]domain.ReleaseRequest

	failUpdateStatus error

	// missNext*KeyLookup make one idempotency-key lookup miss, standing in
	// for a rival transaction that commits between the replay check and the
	// insert.
	missNextHoldKeyLookup    bool
	missNextBookingKeyLookup bool

	// onGetForUpdate runs before the next hold row read, standing in for
	// writes a rival transaction commits while this one waits on the lock.
	onGetForUpdate func()
}

func newFakeStore(holds ...domain.Hold) *fakeStore {
	s := &fakeStore{
		holds:    make(map[string]domain.Hold),
		bookings: make(map[string]domain.Booking),
		requests: make(map[string]domain.ReleaseRequest),
	}
	for _, h := range holds {
		s.holds[h.ID] = h
	}
	return s
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	holds := copyMap(s.holds)
	bookings := copyMap(s.bookings)
	requests := copyMap(s.requests)

	if err := fn(ctx); err != nil {
		s.holds = holds
		s.bookings = bookings
		s.requests = requests
		return err
	}
	return nil
}

func copyMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (s *fakeStore) Create(ctx context.Context, hold domain.Hold) error {
	for _, h := range s.holds {
		if hold.IdempotencyKey != "" && h.IdempotencyKey == hold.IdempotencyKey {
			return domain.ErrIdempotencyConflict
		}
		if h.Status == domain.HoldStatusActive && h.SailingID == hold.SailingID && h.CabinID == hold.CabinID {
			return domain.ErrCabinHeld
		}
	}
	s.holds[hold.ID] = hold
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (domain.Hold, error) {
	h, ok := s.holds[id]
	if !ok {
		return domain.Hold{}, domain.ErrHoldNotFound
	}
	return h, nil
}

func (s *fakeStore) GetForUpdate(ctx context.Context, id string) (domain.Hold, error) {
	if s.onGetForUpdate != nil {
		hook := s.onGetForUpdate
		s.onGetForUpdate = nil
		hook()
	}
	return s.Get(ctx, id)
}

func (s *fakeStore) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Hold, error) {
	if s.missNextHoldKeyLookup {
		s.missNextHoldKeyLookup = false
		return nil, nil
	}
	for _, h := range s.holds {
		if h.IdempotencyKey == key {
			hold := h
			return &hold, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id string, from, to domain.HoldStatus, now time.Time) error {
	if s.failUpdateStatus != nil {
		return s.failUpdateStatus
	}
	h, ok := s.holds[id]
	if !ok {
		return domain.ErrHoldNotFound
	}
	if h.Status != from {
		return domain.ErrHoldNotActive
	}
	h.Status = to
	h.UpdatedAt = now
	s.holds[id] = h
	return nil
}

func (s *fakeStore) MarkExtended(ctx context.Context, id string, expiresAt, now time.Time) error {
	h, ok := s.holds[id]
	if !ok {
		return domain.ErrHoldNotFound
	}
	if h.Status != domain.HoldStatusActive {
		return domain.ErrHoldNotActive
	}
	h.ExpiresAt = expiresAt
	h.Extensions++
	h.UpdatedAt = now
	s.holds[id] = h
	return nil
}

func (s *fakeStore) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	expired := 0
	for id, h := range s.holds {
		if h.Status == domain.HoldStatusActive && now.After(h.ExpiresAt) {
			h.Status = domain.HoldStatusExpired
			h.UpdatedAt = now
			s.holds[id] = h
			expired++
		}
	}
	return expired, nil
}

func (s *fakeStore) List(ctx context.Context, filter HoldFilter) ([]domain.Hold, error) {
	var out []domain.Hold
	for _, h := range s.holds {
		if filter.Status != "" && h.Status != filter.Status {
			continue
		}
		if filter.SailingID != "" && h.SailingID != filter.SailingID {
			continue
		}
		if filter.UserID != "" && h.UserID != filter.UserID {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// BookingRepository

type fakeBookingStore struct{ *fakeStore }

func (s *fakeStore) bookingRepo() fakeBookingStore { return fakeBookingStore{s} }

func (s fakeBookingStore) Create(ctx context.Context, booking domain.Booking) error {
	for _, b := range s.bookings {
		if booking.IdempotencyKey != "" && b.IdempotencyKey == booking.IdempotencyKey {
			return domain.ErrIdempotencyConflict
		}
		if b.Status == domain.BookingStatusActive && b.SailingID == booking.SailingID && b.CabinID == booking.CabinID {
			return domain.ErrCabinBooked
		}
	}
	s.bookings[booking.ID] = booking
	return nil
}

func (s fakeBookingStore) Get(ctx context.Context, id string) (domain.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return b, nil
}

func (s fakeBookingStore) GetForUpdate(ctx context.Context, id string) (domain.Booking, error) {
	return s.Get(ctx, id)
}

func (s fakeBookingStore) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	if s.missNextBookingKeyLookup {
		s.missNextBookingKeyLookup = false
		return nil, nil
	}
	for _, b := range s.bookings {
		if b.IdempotencyKey == key {
			booking := b
			return &booking, nil
		}
	}
	return nil, nil
}

func (s fakeBookingStore) MarkCancelled(ctx context.Context, id string, c domain.Cancellation, now time.Time) error {
	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if b.Status != domain.BookingStatusActive {
		return domain.ErrBookingNotActive
	}
	b.Status = domain.BookingStatusCancelled
	b.Cancellation = &c
	b.UpdatedAt = now
	s.bookings[id] = b
	return nil
}

func (s fakeBookingStore) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range s.bookings {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.SailingID != "" && b.SailingID != filter.SailingID {
			continue
		}
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ReleaseRequestRepository

type fakeRequestStore struct{ *fakeStore }

func (s *fakeStore) requestRepo() fakeRequestStore { return fakeRequestStore{s} }

func (s fakeRequestStore) Create(ctx context.Context, req domain.ReleaseRequest) error {
	s.requests[req.ID] = req
	return nil
}

func (s fakeRequestStore) GetForUpdate(ctx context.Context, id string) (domain.ReleaseRequest, error) {
	r, ok := s.requests[id]
	if !ok {
		return domain.ReleaseRequest{}, domain.ErrReleaseRequestNotFound
	}
	return r, nil
}

func (s fakeRequestStore) Resolve(ctx context.Context, id string, result domain.ReleaseResult, resolvedAt time.Time) error {
	r, ok := s.requests[id]
	if !ok {
		return domain.ErrReleaseRequestNotFound
	}
	if r.ResolvedAt != nil {
		return domain.ErrRequestResolved
	}
	r.Result = result
	r.ResolvedAt = &resolvedAt
	s.requests[id] = r
	return nil
}

func (s fakeRequestStore) List(ctx context.Context, filter ReleaseRequestFilter) ([]domain.ReleaseRequest, error) {
	var out []domain.ReleaseRequest
	for _, r := range s.requests {
		if filter.HoldID != "" && r.HoldID != filter.HoldID {
			continue
		}
		if filter.Unresolved && r.ResolvedAt != nil {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakePolicies struct {
	policy domain.ReservePolicy
	err    error
}

func (f fakePolicies) GetActiveReservePolicy(ctx context.Context) (domain.ReservePolicy, error) {
	if f.err != nil {
		return domain.ReservePolicy{}, f.err
	}
	return f.policy, nil
}

type fakeCancellationPolicies map[string]domain.CancellationPolicy

func (f fakeCancellationPolicies) GetCancellationPolicy(ctx context.Context, id string) (domain.CancellationPolicy, error) {
	p, ok := f[id]
	if !ok {
		return domain.CancellationPolicy{}, domain.ErrCancellationPolicyNotFound
	}
	return p, nil
}

type fakePricing struct {
	snapshot domain.Snapshot
	err      error
}

func (f fakePricing) GetCurrentPricingSnapshot(ctx context.Context, sailingID, cabinID string, mode domain.OccupancyMode) (domain.Snapshot, error) {
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}
	return f.snapshot, nil
}
