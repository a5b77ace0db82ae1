package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusbook/internal/config"
	"campusbook/internal/database"
	"campusbook/internal/logging"
	"campusbook/internal/metrics"
	"campusbook/internal/repository"
	"campusbook/internal/service"

	"github.com/rs/zerolog"
)

// Свипер переводит брони по времени: Approved -> InUse на старте слота,
// InUse -> Completed по его окончании. Запускается отдельным процессом
// рядом с API и работает по той же базе.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	logger := baseLogger.With().Str("component", "sweeper").Logger()

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	metrics.Register()

	cacheTTL := time.Duration(cfg.Reference.CacheTTLSeconds) * time.Second
	cache := repository.NewMemoryReferenceCache(cacheTTL)
	availability := service.NewAvailabilityService(db, db, cache, &logger)
	bookings := service.NewBookingService(db, db, db, availability, nil, nil, cfg.Booking.MaxAdvanceDays, &logger)

	interval := time.Duration(cfg.Booking.SweepIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Dur("interval", interval).Msg("booking sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Первый проход сразу, чтобы не ждать целый интервал после рестарта.
	sweep(ctx, bookings, &logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("booking sweeper stopped")
			return nil
		case <-ticker.C:
			sweep(ctx, bookings, &logger)
		}
	}
}

func sweep(ctx context.Context, bookings *service.BookingService, logger *zerolog.Logger) {
	if err := bookings.AdvanceTimeBasedTransitions(ctx, time.Now()); err != nil {
		logger.Error().Err(err).Msg("booking sweep failed")
	}
}
