package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusbook/internal/models"
)

const requestColumns = `id, user_id, from_campus_id, to_campus_id, reason, status,
	                 reviewed_by, review_comment, created_at, reviewed_at`

// CreateChangeRequest вставляет Pending-заявку. Частичный уникальный индекс
// по (user_id, status='Pending') ловит гонку двух параллельных заявок.
func (db *DB) CreateChangeRequest(ctx context.Context, req *models.CampusChangeRequest) error {
	query := `INSERT INTO campus_change_requests
              (user_id, from_campus_id, to_campus_id, reason, status, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		req.UserID, req.FromCampusID, req.ToCampusID, req.Reason, models.RequestStatusPending, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("failed to create change request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id
	req.Status = models.RequestStatusPending
	req.CreatedAt = now
	return nil
}

func (db *DB) GetChangeRequest(ctx context.Context, id int64) (*models.CampusChangeRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM campus_change_requests WHERE id = ? AND deleted_at IS NULL`, requestColumns)
	r := &models.CampusChangeRequest{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.UserID, &r.FromCampusID, &r.ToCampusID, &r.Reason, &r.Status,
		&r.ReviewedBy, &r.ReviewComment, &r.CreatedAt, &r.ReviewedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get change request: %w", err)
	}
	return r, nil
}

func (db *DB) HasPendingChangeRequest(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM campus_change_requests
              WHERE user_id = ? AND status = ? AND deleted_at IS NULL`
	var count int
	if err := db.QueryRowContext(ctx, query, userID, models.RequestStatusPending).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check pending change request: %w", err)
	}
	return count > 0, nil
}

// ReviewChangeRequestIfPending закрывает заявку, только пока она Pending.
// Повторное ревью проигрывает CAS и получает ErrConcurrentModification.
func (db *DB) ReviewChangeRequestIfPending(ctx context.Context, id int64, reviewerID int64, status, comment string) error {
	query := `UPDATE campus_change_requests
              SET status = ?, reviewed_by = ?, review_comment = ?, reviewed_at = ?
              WHERE id = ? AND status = ? AND deleted_at IS NULL`
	result, err := db.ExecContext(ctx, query, status, reviewerID, comment, time.Now(), id, models.RequestStatusPending)
	if err != nil {
		return fmt.Errorf("failed to review change request: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, getErr := db.GetChangeRequest(ctx, id); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) ListPendingChangeRequests(ctx context.Context) ([]*models.CampusChangeRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM campus_change_requests
              WHERE status = ? AND deleted_at IS NULL ORDER BY created_at ASC`, requestColumns)
	rows, err := db.QueryContext(ctx, query, models.RequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending change requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.CampusChangeRequest
	for rows.Next() {
		r := &models.CampusChangeRequest{}
		err := rows.Scan(
			&r.ID, &r.UserID, &r.FromCampusID, &r.ToCampusID, &r.Reason, &r.Status,
			&r.ReviewedBy, &r.ReviewComment, &r.CreatedAt, &r.ReviewedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed")
}
