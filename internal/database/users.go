package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusbook/internal/models"
)

const userColumns = `id, name, role, contact, campus_id, created_at, updated_at`

func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = ? AND deleted_at IS NULL`, userColumns)
	return scanUserRow(db.QueryRowContext(ctx, query, id))
}

func (db *DB) GetUserByContact(ctx context.Context, contact string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE contact = ? AND deleted_at IS NULL`, userColumns)
	return scanUserRow(db.QueryRowContext(ctx, query, contact))
}

func (db *DB) ListAdmins(ctx context.Context) ([]*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE role = ? AND deleted_at IS NULL ORDER BY id`, userColumns)
	rows, err := db.QueryContext(ctx, query, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &u.Contact, &u.CampusID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) UpdateUserCampus(ctx context.Context, id int64, campusID int64) error {
	query := `UPDATE users SET campus_id = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`
	result, err := db.ExecContext(ctx, query, campusID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user campus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUserRow(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.Contact, &u.CampusID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
