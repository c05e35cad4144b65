package app

import (
	"context"
	"log"
	"time"
)

const defaultSweepInterval = time.Minute

// Sweeper periodically expires lapsed holds. It runs outside the request
// path; the inline lazy checks in the services cover the window between
// sweeps.
type Sweeper struct {
	holds    *HoldService
	interval time.Duration
	logger   *log.Logger
}

func NewSweeper(holds *HoldService, interval time.Duration, logger *log.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		holds:    holds,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.holds.ExpireDue(ctx)
	if err != nil {
		s.logger.Printf("hold sweep failed: %v", err)
		return
	}
	if expired > 0 {
		s.logger.Printf("hold sweep expired=%d", expired)
	}
}
