package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/areebimran2/CS-CAS/internal/app"
	"github.com/areebimran2/CS-CAS/internal/domain"
	"github.com/areebimran2/CS-CAS/internal/testutil"
)

func newHold(status domain.HoldStatus, expiresAt time.Time) domain.Hold {
	now := time.Now().UTC()
	return domain.Hold{
		ID:        uuid.NewString(),
		SailingID: uuid.NewString(),
		CabinID:   uuid.NewString(),
		UserID:    uuid.NewString(),
		UCRef:     "UC-1001",
		Status:    status,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestHoldRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewHoldRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("Create enforces one active hold per cabin", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		hold := newHold(domain.HoldStatusActive, time.Now().Add(time.Hour).UTC())
		if err := repo.Create(ctx, hold); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		rival := newHold(domain.HoldStatusActive, time.Now().Add(time.Hour).UTC())
		rival.SailingID = hold.SailingID
		rival.CabinID = hold.CabinID
		if err := repo.Create(ctx, rival); err != domain.ErrCabinHeld {
			t.Fatalf("expected ErrCabinHeld, got %v", err)
		}
	})

	t.Run("Create frees the cabin once the hold is terminal", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		hold := newHold(domain.HoldStatusReleased, time.Now().Add(time.Hour).UTC())
		if err := repo.Create(ctx, hold); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		next := newHold(domain.HoldStatusActive, time.Now().Add(time.Hour).UTC())
		next.SailingID = hold.SailingID
		next.CabinID = hold.CabinID
		if err := repo.Create(ctx, next); err != nil {
			t.Fatalf("expected no error after release, got %v", err)
		}
	})

	t.Run("Create rejects a reused idempotency key", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		hold := newHold(domain.HoldStatusActive, time.Now().Add(time.Hour).UTC())
		hold.IdempotencyKey = "idem-1"
		if err := repo.Create(ctx, hold); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		dup := newHold(domain.HoldStatusActive, time.Now().Add(time.Hour).UTC())
		dup.IdempotencyKey = "idem-1"
		if err := repo.Create(ctx, dup); err != domain.ErrIdempotencyConflict {
			t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
		}
	})

	t.Run("FindByIdempotencyKey returns the existing hold", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		hold := newHold(domain.HoldStatusActive, time.Now().Add(time.Hour).UTC())
		hold.IdempotencyKey = "idem-find"
		if err := repo.Create(ctx, hold); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		found, err := repo.FindByIdempotencyKey(ctx, "idem-find")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if found == nil || found.ID != hold.ID {
			t.Fatalf("unexpected hold: %+v", found)
		}

		found, err = repo.FindByIdempotencyKey(ctx, "missing")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if found != nil {
			t.Fatalf("expected nil, got %+v", found)
		}
	})

	t.Run("UpdateStatus only lands on the expected status", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		hold := newHold(domain.HoldStatusActive, time.Now().Add(time.Hour).UTC())
		if err := repo.Create(ctx, hold); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		now := time.Now().UTC()
		if err := repo.UpdateStatus(ctx, hold.ID, domain.HoldStatusActive, domain.HoldStatusReleased, now); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		err := repo.UpdateStatus(ctx, hold.ID, domain.HoldStatusActive, domain.HoldStatusExpired, now)
		if err != domain.ErrHoldNotActive {
			t.Fatalf("expected ErrHoldNotActive, got %v", err)
		}

		got, err := repo.Get(ctx, hold.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Status != domain.HoldStatusReleased {
			t.Fatalf("expected released, got %s", got.Status)
		}
	})

	t.Run("MarkExtended bumps expiry and the extension count", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		hold := newHold(domain.HoldStatusActive, time.Now().Add(time.Hour).UTC())
		if err := repo.Create(ctx, hold); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		newExpiry := hold.ExpiresAt.Add(24 * time.Hour)
		if err := repo.MarkExtended(ctx, hold.ID, newExpiry, time.Now().UTC()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.Get(ctx, hold.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Extensions != 1 {
			t.Fatalf("expected extensions 1, got %d", got.Extensions)
		}
		if !got.ExpiresAt.Equal(newExpiry) {
			t.Fatalf("expected expiry %v, got %v", newExpiry, got.ExpiresAt)
		}
	})

	t.Run("ExpireDue expires only lapsed active holds", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		now := time.Now().UTC()

		lapsed := newHold(domain.HoldStatusActive, now.Add(-time.Minute))
		current := newHold(domain.HoldStatusActive, now.Add(time.Hour))
		converted := newHold(domain.HoldStatusConverted, now.Add(-time.Hour))
		for _, h := range []domain.Hold{lapsed, current, converted} {
			if err := repo.Create(ctx, h); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		count, err := repo.ExpireDue(ctx, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 expired, got %d", count)
		}

		got, err := repo.Get(ctx, lapsed.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Status != domain.HoldStatusExpired {
			t.Fatalf("expected expired, got %s", got.Status)
		}
	})

	t.Run("Get maps missing and malformed ids", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if _, err := repo.Get(ctx, uuid.NewString()); err != domain.ErrHoldNotFound {
			t.Fatalf("expected ErrHoldNotFound, got %v", err)
		}
		if _, err := repo.Get(ctx, "not-a-uuid"); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("List filters by status and sailing", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		active := newHold(domain.HoldStatusActive, time.Now().Add(time.Hour).UTC())
		released := newHold(domain.HoldStatusReleased, time.Now().Add(time.Hour).UTC())
		released.SailingID = active.SailingID
		for _, h := range []domain.Hold{active, released} {
			if err := repo.Create(ctx, h); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		holds, err := repo.List(ctx, app.HoldFilter{SailingID: active.SailingID, Status: domain.HoldStatusActive})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(holds) != 1 || holds[0].ID != active.ID {
			t.Fatalf("unexpected holds: %+v", holds)
		}
	})
}
