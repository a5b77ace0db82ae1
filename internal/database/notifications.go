package database

import (
	"context"
	"fmt"
	"time"

	"campusbook/internal/models"
)

func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `INSERT INTO notifications (uid, user_id, type, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		n.UID, n.UserID, n.Type, n.Payload, n.Status, n.RetryCount, n.LastError, now, n.NextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	n.CreatedAt = now
	return nil
}

func (db *DB) GetPendingNotifications(ctx context.Context, limit int) ([]*models.Notification, error) {
	query := `SELECT id, uid, user_id, type, payload, status, retry_count, last_error, created_at, next_retry_at, sent_at
              FROM notifications
              WHERE status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, models.NotifyStatusPending, models.NotifyStatusRetry, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(
			&n.ID, &n.UID, &n.UserID, &n.Type, &n.Payload, &n.Status,
			&n.RetryCount, &n.LastError, &n.CreatedAt, &n.NextRetryAt, &n.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (db *DB) UpdateNotificationStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var query string
	var args []interface{}
	now := time.Now()

	switch status {
	case models.NotifyStatusRetry:
		query = `UPDATE notifications SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	case models.NotifyStatusSent, models.NotifyStatusFailed:
		query = `UPDATE notifications SET status = ?, last_error = ?, next_retry_at = NULL, sent_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, &now, id}
	default:
		query = `UPDATE notifications SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	return nil
}

func (db *DB) GetFailedNotifications(ctx context.Context) ([]*models.Notification, error) {
	query := `SELECT id, uid, user_id, type, payload, status, retry_count, last_error, created_at, next_retry_at, sent_at
              FROM notifications WHERE status = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, models.NotifyStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(
			&n.ID, &n.UID, &n.UserID, &n.Type, &n.Payload, &n.Status,
			&n.RetryCount, &n.LastError, &n.CreatedAt, &n.NextRetryAt, &n.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
