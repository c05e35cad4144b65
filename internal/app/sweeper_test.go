package app

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/areebimran2/CS-CAS/internal/clock"
	"github.com/areebimran2/CS-CAS/internal/domain"
)

func TestSweeper_ExpiresLapsedHolds(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeStore(
		domain.Hold{ID: "lapsed", Status: domain.HoldStatusActive, ExpiresAt: now.Add(-time.Minute)},
		domain.Hold{ID: "current", Status: domain.HoldStatusActive, ExpiresAt: now.Add(time.Hour)},
	)
	svc := NewHoldService(repo, fakePolicies{policy: testPolicy()}, clock.NewFixed(now))
	sweeper := NewSweeper(svc, 5*time.Millisecond, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	sweeper.Run(ctx)

	if got := repo.holds["lapsed"].Status; got != domain.HoldStatusExpired {
		t.Fatalf("expected lapsed hold expired, got %s", got)
	}
	if got := repo.holds["current"].Status; got != domain.HoldStatusActive {
		t.Fatalf("expected current hold untouched, got %s", got)
	}
}
