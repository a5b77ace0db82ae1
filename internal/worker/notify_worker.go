package worker

import (
	"context"
	"encoding/json"
	"time"

	"campusbook/internal/domain"
	"campusbook/internal/metrics"
	"campusbook/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const deadLetterKey = "notify:deadletter"

// NotifyWorker разгребает outbox уведомлений: доставляет через sender,
// при сбоях откладывает с экспоненциальной задержкой, исчерпав лимит —
// помечает failed и дублирует запись в redis dead-letter список.
type NotifyWorker struct {
	outbox       domain.NotificationOutbox
	sender       domain.NotificationSender
	redis        *redis.Client
	retryPolicy  RetryPolicy
	pollInterval time.Duration
	batchSize    int
	nudge        chan struct{}
	logger       *zerolog.Logger
}

// NewNotifyWorker builds a worker; zero pollInterval and batchSize fall back to sane defaults.
func NewNotifyWorker(outbox domain.NotificationOutbox, sender domain.NotificationSender, redisClient *redis.Client, retry RetryPolicy, pollInterval time.Duration, batchSize int, logger *zerolog.Logger) *NotifyWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}

	return &NotifyWorker{
		outbox:       outbox,
		sender:       sender,
		redis:        redisClient,
		retryPolicy:  retry,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		nudge:        make(chan struct{}, 1),
		logger:       logger,
	}
}

// Nudge будит воркер, не дожидаясь тика. Не блокирует вызывающего.
func (w *NotifyWorker) Nudge() {
	select {
	case w.nudge <- struct{}{}:
	default:
	}
}

// Start блокируется до отмены контекста.
func (w *NotifyWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info().Dur("poll_interval", w.pollInterval).Msg("notify worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("notify worker stopped")
			return
		case <-ticker.C:
			w.processBatch(ctx)
		case <-w.nudge:
			w.processBatch(ctx)
		}
	}
}

func (w *NotifyWorker) processBatch(ctx context.Context) {
	tasks, err := w.outbox.GetPendingNotifications(ctx, w.batchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("load pending notifications error")
		return
	}

	for _, n := range tasks {
		w.deliver(ctx, n)
	}
}

func (w *NotifyWorker) deliver(ctx context.Context, n *models.Notification) {
	err := w.sender.Send(ctx, n)
	if err == nil {
		if updErr := w.outbox.UpdateNotificationStatus(ctx, n.ID, models.NotifyStatusSent, "", nil); updErr != nil {
			w.logger.Error().Err(updErr).Int64("notification_id", n.ID).Msg("mark sent error")
		}
		metrics.IncNotification("sent")
		return
	}

	attempt := n.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		w.logger.Error().Err(err).Int64("notification_id", n.ID).Int("retries", n.RetryCount).Msg("notification delivery gave up")
		if updErr := w.outbox.UpdateNotificationStatus(ctx, n.ID, models.NotifyStatusFailed, err.Error(), nil); updErr != nil {
			w.logger.Error().Err(updErr).Int64("notification_id", n.ID).Msg("mark failed error")
		}
		w.deadLetter(ctx, n, err)
		metrics.IncNotification("failed")
		return
	}

	next := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if updErr := w.outbox.UpdateNotificationStatus(ctx, n.ID, models.NotifyStatusRetry, err.Error(), &next); updErr != nil {
		w.logger.Error().Err(updErr).Int64("notification_id", n.ID).Msg("schedule retry error")
	}
	metrics.IncNotification("retry")
}

func (w *NotifyWorker) deadLetter(ctx context.Context, n *models.Notification, cause error) {
	if w.redis == nil {
		return
	}

	entry, err := json.Marshal(map[string]interface{}{
		"uid":     n.UID,
		"user_id": n.UserID,
		"type":    n.Type,
		"error":   cause.Error(),
	})
	if err != nil {
		return
	}

	if err := w.redis.LPush(ctx, deadLetterKey, entry).Err(); err != nil {
		w.logger.Error().Err(err).Str("uid", n.UID).Msg("dead letter push error")
	}
}
