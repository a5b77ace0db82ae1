package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusbook/internal/models"
)

const issueColumns = `id, booking_id, reporter_id, title, description, severity, category,
	                 status, new_facility_id, admin_response, created_at, handled_at, resolved_at`

func (db *DB) CreateIssue(ctx context.Context, issue *models.FacilityIssueReport) error {
	query := `INSERT INTO facility_issues
              (booking_id, reporter_id, title, description, severity, category, status, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		issue.BookingID, issue.ReporterID, issue.Title, issue.Description,
		issue.Severity, issue.Category, models.IssueStatusReported, now)
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	issue.ID = id
	issue.Status = models.IssueStatusReported
	issue.CreatedAt = now
	return nil
}

func (db *DB) GetIssue(ctx context.Context, id int64) (*models.FacilityIssueReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM facility_issues WHERE id = ? AND deleted_at IS NULL`, issueColumns)
	i := &models.FacilityIssueReport{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&i.ID, &i.BookingID, &i.ReporterID, &i.Title, &i.Description, &i.Severity, &i.Category,
		&i.Status, &i.NewFacilityID, &i.AdminResponse, &i.CreatedAt, &i.HandledAt, &i.ResolvedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return i, nil
}

// UpdateIssueStatusIfCurrent — CAS по статусу жалобы; обратных переходов нет.
func (db *DB) UpdateIssueStatusIfCurrent(ctx context.Context, id int64, fromStatus, toStatus string, adminResponse string, newFacilityID int64) error {
	now := time.Now()

	var query string
	var args []interface{}
	switch toStatus {
	case models.IssueStatusHandled:
		query = `UPDATE facility_issues SET status = ?, admin_response = ?, new_facility_id = ?, handled_at = ?
                 WHERE id = ? AND status = ? AND deleted_at IS NULL`
		args = []interface{}{toStatus, adminResponse, newFacilityID, now, id, fromStatus}
	case models.IssueStatusResolved:
		query = `UPDATE facility_issues SET status = ?, resolved_at = ?
                 WHERE id = ? AND status = ? AND deleted_at IS NULL`
		args = []interface{}{toStatus, now, id, fromStatus}
	default:
		query = `UPDATE facility_issues SET status = ?
                 WHERE id = ? AND status = ? AND deleted_at IS NULL`
		args = []interface{}{toStatus, id, fromStatus}
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update issue status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, getErr := db.GetIssue(ctx, id); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) ListIssuesByStatus(ctx context.Context, status string) ([]*models.FacilityIssueReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM facility_issues
              WHERE status = ? AND deleted_at IS NULL ORDER BY created_at ASC`, issueColumns)
	rows, err := db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []*models.FacilityIssueReport
	for rows.Next() {
		i := &models.FacilityIssueReport{}
		err := rows.Scan(
			&i.ID, &i.BookingID, &i.ReporterID, &i.Title, &i.Description, &i.Severity, &i.Category,
			&i.Status, &i.NewFacilityID, &i.AdminResponse, &i.CreatedAt, &i.HandledAt, &i.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}
