package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusbook/internal/api"
	"campusbook/internal/config"
	"campusbook/internal/database"
	"campusbook/internal/domain"
	"campusbook/internal/events"
	"campusbook/internal/logging"
	"campusbook/internal/metrics"
	"campusbook/internal/models"
	"campusbook/internal/notify"
	"campusbook/internal/repository"
	"campusbook/internal/service"
	"campusbook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	ref, err := loadReference(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, ref, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	cacheTTL := time.Duration(cfg.Reference.CacheTTLSeconds) * time.Second
	refCache := buildReferenceCache(redisClient, cacheTTL, &logger)

	bus := events.NewEventBus()
	outbox := notify.NewOutbox(db, &logger)

	availability := service.NewAvailabilityService(db, db, refCache, &logger)
	bookings := service.NewBookingService(db, db, db, availability, bus, outbox, cfg.Booking.MaxAdvanceDays, &logger)
	changes := service.NewCampusChangeService(db, db, db, bus, &logger)
	issues := service.NewIssueService(db, db, db, db, bus, outbox, &logger)
	exporter := api.NewExporter(bookings, cfg.Exports.Path, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startNotifyWorker(ctx, cfg, db, redisClient, bus, &logger)
	startMetrics(ctx, cfg, &logger)

	server := api.NewServer(cfg.API, bookings, changes, issues, db, exporter, &logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.Port).Msg("campusbook API started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	logger.Info().Msg("campusbook API stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// referenceFile — схема configs/reference.yaml со справочными данными.
type referenceFile struct {
	Campuses   []models.Campus   `yaml:"campuses"`
	Facilities []models.Facility `yaml:"facilities"`
	Holidays   []holidayEntry    `yaml:"holidays"`
	Users      []models.User     `yaml:"users"`
}

// holidayEntry держит дату строкой, в файле она записана как YYYY-MM-DD.
type holidayEntry struct {
	ID        int64  `yaml:"id"`
	Name      string `yaml:"name"`
	Date      string `yaml:"date"`
	Recurring bool   `yaml:"recurring"`
}

func (f *referenceFile) holidays() ([]models.Holiday, error) {
	out := make([]models.Holiday, 0, len(f.Holidays))
	for _, h := range f.Holidays {
		date, err := time.Parse(models.DateLayout, h.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: invalid date %q: %w", h.Name, h.Date, err)
		}
		out = append(out, models.Holiday{ID: h.ID, Name: h.Name, Date: date, Recurring: h.Recurring})
	}
	return out, nil
}

func loadReference(cfg *config.Config, logger *zerolog.Logger) (*referenceFile, error) {
	refPath := os.Getenv("REFERENCE_PATH")
	if refPath == "" {
		refPath = cfg.Reference.Path
	}

	data, err := os.ReadFile(refPath)
	if err != nil {
		logger.Error().Err(err).Str("reference_path", refPath).Msg("read reference data")
		return nil, err
	}

	var ref referenceFile
	if err := yaml.Unmarshal(data, &ref); err != nil {
		logger.Error().Err(err).Str("reference_path", refPath).Msg("parse reference data")
		return nil, err
	}

	if len(ref.Campuses) == 0 || len(ref.Facilities) == 0 {
		return nil, fmt.Errorf("reference data must define at least one campus and one facility")
	}
	return &ref, nil
}

func initDatabase(cfg *config.Config, ref *referenceFile, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	holidays, err := ref.holidays()
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := db.SeedReference(context.Background(), ref.Campuses, ref.Facilities, holidays, ref.Users); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed reference data: %w", err)
	}
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func buildReferenceCache(redisClient *redis.Client, ttl time.Duration, logger *zerolog.Logger) domain.ReferenceCache {
	memory := repository.NewMemoryReferenceCache(ttl)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisReferenceCache(redisClient, ttl)
	return repository.NewFailoverReferenceCache(primary, memory, logger)
}

func startNotifyWorker(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	redisClient *redis.Client,
	bus *events.EventBus,
	logger *zerolog.Logger,
) {
	if cfg.Notify.WebhookURL == "" {
		logger.Warn().Msg("notify.webhook_url is empty, notifications stay in outbox")
		return
	}

	sender := notify.NewWebhookSender(cfg.Notify.WebhookURL, time.Duration(cfg.Notify.TimeoutSeconds)*time.Second)
	retry := worker.RetryPolicy{
		MaxRetries:    cfg.Notify.MaxRetries,
		InitialDelay:  time.Duration(cfg.Notify.BaseDelaySeconds) * time.Second,
		MaxDelay:      time.Duration(cfg.Notify.MaxDelaySeconds) * time.Second,
		BackoffFactor: 2,
	}

	w := worker.NewNotifyWorker(db, sender, redisClient, retry,
		time.Duration(cfg.Notify.PollIntervalSeconds)*time.Second, cfg.Notify.BatchSize, logger)

	// Любое событие брони означает свежую запись в outbox — будим воркер сразу.
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingLecturerApproved,
		events.EventBookingApproved,
		events.EventBookingRejected,
		events.EventBookingCancelled,
		events.EventIssueReported,
	} {
		bus.Subscribe(eventType, func(*events.Event) error {
			w.Nudge()
			return nil
		})
	}

	go w.Start(ctx)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msg("metrics server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}
