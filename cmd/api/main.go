package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/areebimran2/CS-CAS/internal/app"
	"github.com/areebimran2/CS-CAS/internal/clock"
	"github.com/areebimran2/CS-CAS/internal/config"
	"github.com/areebimran2/CS-CAS/internal/pricing"
	"github.com/areebimran2/CS-CAS/internal/storage/postgres"
	transporthttp "github.com/areebimran2/CS-CAS/internal/transport/http"
	"github.com/areebimran2/CS-CAS/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()
	cfg := config.Load(logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	clk := clock.NewSystem()
	policyRepo := postgres.NewPolicyRepository(pool)
	holdRepo := postgres.NewHoldRepository(pool)
	requestRepo := postgres.NewReleaseRequestRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)
	pricingClient := pricing.NewClient(cfg.PricingBaseURL, cfg.CRMBaseURL)

	holdSvc := app.NewHoldService(holdRepo, policyRepo, clk)
	requestSvc := app.NewReleaseRequestService(requestRepo, holdRepo, clk)
	bookingSvc := app.NewBookingService(bookingRepo, holdRepo, policyRepo, pricingClient, clk)

	handler := transporthttp.NewRouter(transporthttp.Services{
		Holds:    holdSvc,
		Requests: requestSvc,
		Bookings: bookingSvc,
		Deals:    pricingClient,
	}, cfg.CORSOrigins, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := app.NewSweeper(holdSvc, cfg.SweepInterval, logger)
	go sweeper.Run(stopCtx)

	log.Printf("api listening on :%s", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}
