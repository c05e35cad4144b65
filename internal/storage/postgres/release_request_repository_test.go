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

func TestReleaseRequestRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewReleaseRequestRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	seedHold := func(t *testing.T, ctx context.Context) string {
		return testutil.InsertHold(t, ctx, pool, domain.Hold{
			SailingID: uuid.NewString(),
			CabinID:   uuid.NewString(),
			UserID:    uuid.NewString(),
			UCRef:     "UC-1001",
			Status:    domain.HoldStatusActive,
			ExpiresAt: time.Now().Add(time.Hour).UTC(),
		})
	}

	t.Run("Create and GetForUpdate round-trip", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		holdID := seedHold(t, ctx)

		req := domain.ReleaseRequest{
			ID:          uuid.NewString(),
			HoldID:      holdID,
			RequestedBy: uuid.NewString(),
			Reason:      "client wants this cabin",
			CreatedAt:   time.Now().UTC(),
		}
		if err := repo.Create(ctx, req); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			got, err := repo.GetForUpdate(txCtx, req.ID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got.HoldID != holdID || got.Reason != req.Reason || got.Resolved() {
				t.Fatalf("unexpected request: %+v", got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}

		if _, err := repo.GetForUpdate(ctx, uuid.NewString()); err != domain.ErrReleaseRequestNotFound {
			t.Fatalf("expected ErrReleaseRequestNotFound, got %v", err)
		}
	})

	t.Run("Resolve lands once", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		holdID := seedHold(t, ctx)

		req := domain.ReleaseRequest{
			ID:          uuid.NewString(),
			HoldID:      holdID,
			RequestedBy: uuid.NewString(),
			CreatedAt:   time.Now().UTC(),
		}
		if err := repo.Create(ctx, req); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		now := time.Now().UTC()
		if err := repo.Resolve(ctx, req.ID, domain.ReleaseResultApproved, now); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.Resolve(ctx, req.ID, domain.ReleaseResultDenied, now); err != domain.ErrRequestResolved {
			t.Fatalf("expected ErrRequestResolved, got %v", err)
		}

		got, err := repo.GetForUpdate(ctx, req.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Result != domain.ReleaseResultApproved || got.ResolvedAt == nil {
			t.Fatalf("unexpected request: %+v", got)
		}
	})

	t.Run("List filters unresolved per hold", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		holdID := seedHold(t, ctx)

		pending := domain.ReleaseRequest{ID: uuid.NewString(), HoldID: holdID, RequestedBy: uuid.NewString(), CreatedAt: time.Now().UTC()}
		resolved := domain.ReleaseRequest{ID: uuid.NewString(), HoldID: holdID, RequestedBy: uuid.NewString(), CreatedAt: time.Now().UTC()}
		for _, r := range []domain.ReleaseRequest{pending, resolved} {
			if err := repo.Create(ctx, r); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if err := repo.Resolve(ctx, resolved.ID, domain.ReleaseResultDenied, time.Now().UTC()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		reqs, err := repo.List(ctx, app.ReleaseRequestFilter{HoldID: holdID, Unresolved: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(reqs) != 1 || reqs[0].ID != pending.ID {
			t.Fatalf("unexpected requests: %+v", reqs)
		}
	})
}
