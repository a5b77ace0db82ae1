package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusbook/internal/models"
)

// SeedReference загружает справочники из конфигурации. Существующие записи
// обновляются по id, физически ничего не удаляется.
func (db *DB) SeedReference(ctx context.Context, campuses []models.Campus, facilities []models.Facility, holidays []models.Holiday, users []models.User) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	for _, c := range campuses {
		if c.OpenTime >= c.CloseTime {
			return fmt.Errorf("campus %q: open_time must be before close_time", c.Name)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO campuses (id, name, code, open_time, close_time, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  name = excluded.name,
                  code = excluded.code,
                  open_time = excluded.open_time,
                  close_time = excluded.close_time,
                  updated_at = excluded.updated_at`,
			c.ID, c.Name, c.Code, c.OpenTime, c.CloseTime, now, now)
		if err != nil {
			return fmt.Errorf("failed to seed campus %q: %w", c.Name, err)
		}
	}

	for _, f := range facilities {
		status := f.Status
		if status == "" {
			status = models.FacilityAvailable
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO facilities (id, campus_id, name, capacity, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  campus_id = excluded.campus_id,
                  name = excluded.name,
                  capacity = excluded.capacity,
                  status = excluded.status,
                  updated_at = excluded.updated_at`,
			f.ID, f.CampusID, f.Name, f.Capacity, status, now, now)
		if err != nil {
			return fmt.Errorf("failed to seed facility %q: %w", f.Name, err)
		}
	}

	for _, h := range holidays {
		_, err := tx.ExecContext(ctx, `INSERT INTO holidays (id, name, date, recurring)
              VALUES (?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  name = excluded.name,
                  date = excluded.date,
                  recurring = excluded.recurring`,
			h.ID, h.Name, h.Date.Format(models.DateLayout), h.Recurring)
		if err != nil {
			return fmt.Errorf("failed to seed holiday %q: %w", h.Name, err)
		}
	}

	for _, u := range users {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id, name, role, contact, campus_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  name = excluded.name,
                  role = excluded.role,
                  contact = excluded.contact,
                  campus_id = excluded.campus_id,
                  updated_at = excluded.updated_at`,
			u.ID, u.Name, u.Role, u.Contact, u.CampusID, now, now)
		if err != nil {
			return fmt.Errorf("failed to seed user %q: %w", u.Name, err)
		}
	}

	return tx.Commit()
}

func (db *DB) GetFacility(ctx context.Context, id int64) (*models.Facility, error) {
	var f models.Facility
	query := `SELECT id, campus_id, name, capacity, status, created_at, updated_at
              FROM facilities WHERE id = ? AND deleted_at IS NULL`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&f.ID, &f.CampusID, &f.Name, &f.Capacity, &f.Status, &f.CreatedAt, &f.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}
	return &f, nil
}

func (db *DB) GetCampus(ctx context.Context, id int64) (*models.Campus, error) {
	var c models.Campus
	query := `SELECT id, name, code, open_time, close_time
              FROM campuses WHERE id = ? AND deleted_at IS NULL`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Code, &c.OpenTime, &c.CloseTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campus: %w", err)
	}
	return &c, nil
}

func (db *DB) ListFacilities(ctx context.Context) ([]*models.Facility, error) {
	query := `SELECT id, campus_id, name, capacity, status, created_at, updated_at
              FROM facilities WHERE deleted_at IS NULL ORDER BY campus_id, id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	defer rows.Close()

	var facilities []*models.Facility
	for rows.Next() {
		f := &models.Facility{}
		if err := rows.Scan(&f.ID, &f.CampusID, &f.Name, &f.Capacity, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

func (db *DB) ListCampuses(ctx context.Context) ([]*models.Campus, error) {
	query := `SELECT id, name, code, open_time, close_time
              FROM campuses WHERE deleted_at IS NULL ORDER BY id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list campuses: %w", err)
	}
	defer rows.Close()

	var campuses []*models.Campus
	for rows.Next() {
		c := &models.Campus{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.OpenTime, &c.CloseTime); err != nil {
			return nil, fmt.Errorf("failed to scan campus: %w", err)
		}
		campuses = append(campuses, c)
	}
	return campuses, rows.Err()
}

func (db *DB) ListHolidays(ctx context.Context) ([]*models.Holiday, error) {
	query := `SELECT id, name, date, recurring FROM holidays WHERE deleted_at IS NULL ORDER BY date`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []*models.Holiday
	for rows.Next() {
		h := &models.Holiday{}
		var dateStr string
		if err := rows.Scan(&h.ID, &h.Name, &dateStr, &h.Recurring); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.Date, err = time.Parse(models.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse holiday date %s: %w", dateStr, err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}
