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

const bookingColumns = `id, code, facility_id, facility_name, user_id, user_name,
	                 date, start_time, end_time, status, lecturer_contact, purpose,
	                 approved_by, rejected_by, created_at, updated_at, approved_at,
	                 cancelled_at, version`

func blockingPlaceholders() (string, []interface{}) {
	marks := make([]string, len(models.BlockingStatuses))
	args := make([]interface{}, len(models.BlockingStatuses))
	for i, s := range models.BlockingStatuses {
		marks[i] = "?"
		args[i] = s
	}
	return strings.Join(marks, ", "), args
}

// CountOverlapping считает активные брони помещения, пересекающиеся с [start,end)
// на указанную дату. Пересечение полуоткрытых интервалов: s1 < e2 AND s2 < e1.
func (db *DB) CountOverlapping(ctx context.Context, facilityID int64, date time.Time, start, end string) (int, error) {
	marks, args := blockingPlaceholders()
	query := fmt.Sprintf(`SELECT COUNT(*) FROM bookings
              WHERE facility_id = ? AND date = ? AND deleted_at IS NULL
              AND status IN (%s)
              AND start_time < ? AND ? < end_time`, marks)

	queryArgs := append([]interface{}{facilityID, date.Format(models.DateLayout)}, args...)
	queryArgs = append(queryArgs, end, start)

	var count int
	if err := db.QueryRowContext(ctx, query, queryArgs...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return count, nil
}

// CreateBooking вставляет бронь под транзакцией с повторной проверкой пересечения.
// Проверка доступности до вызова — только подсказка; гонку двух запросов на один
// слот закрывает именно эта транзакция: проигравший получает ErrSlotConflict.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking, campusID int64, campusCode string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	dateStr := booking.Date.Format(models.DateLayout)

	// 1. Перепроверяем пересечение внутри транзакции
	marks, args := blockingPlaceholders()
	queryCount := fmt.Sprintf(`SELECT COUNT(*) FROM bookings
              WHERE facility_id = ? AND date = ? AND deleted_at IS NULL
              AND status IN (%s)
              AND start_time < ? AND ? < end_time`, marks)
	countArgs := append([]interface{}{booking.FacilityID, dateStr}, args...)
	countArgs = append(countArgs, booking.EndTime, booking.StartTime)

	var overlapping int
	if err := tx.QueryRowContext(ctx, queryCount, countArgs...).Scan(&overlapping); err != nil {
		return fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if overlapping > 0 {
		return ErrSlotConflict
	}

	// 2. Порядковый номер брони в пределах кампуса и дня.
	// Считаем все строки, включая soft-deleted, чтобы номер не переиспользовался.
	var seq int64
	querySeq := `SELECT COUNT(*) FROM bookings b
              JOIN facilities f ON f.id = b.facility_id
              WHERE f.campus_id = ? AND b.date = ?`
	if err := tx.QueryRowContext(ctx, querySeq, campusID, dateStr).Scan(&seq); err != nil {
		return fmt.Errorf("failed to compute booking sequence: %w", err)
	}
	booking.Code = fmt.Sprintf("%s-%s-%03d", campusCode, booking.Date.Format("20060102"), seq+1)

	// 3. Вставка
	queryInsert := `INSERT INTO bookings (
				code, facility_id, facility_name, user_id, user_name, date,
				start_time, end_time, status, lecturer_contact, purpose,
				created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.Code,
		booking.FacilityID,
		booking.FacilityName,
		booking.UserID,
		booking.UserName,
		dateStr,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.LecturerContact,
		booking.Purpose,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = ? AND deleted_at IS NULL`, bookingColumns)
	return db.scanBookingRow(db.QueryRowContext(ctx, query, id))
}

func (db *DB) GetBookingByCode(ctx context.Context, code string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE code = ? AND deleted_at IS NULL`, bookingColumns)
	return db.scanBookingRow(db.QueryRowContext(ctx, query, code))
}

// UpdateBookingStatusIfCurrent делает compare-and-swap статуса: обновление
// проходит только если строка всё ещё в fromStatus. Из двух конкурирующих
// переходов фиксируется ровно один, второй получает ErrConcurrentModification.
func (db *DB) UpdateBookingStatusIfCurrent(ctx context.Context, id int64, fromStatus, toStatus string, actorID int64) error {
	now := time.Now()

	var query string
	var args []interface{}
	switch toStatus {
	case models.StatusApproved:
		query = `UPDATE bookings SET status = ?, approved_by = ?, approved_at = ?, version = version + 1, updated_at = ?
                 WHERE id = ? AND status = ? AND deleted_at IS NULL`
		args = []interface{}{toStatus, actorID, now, now, id, fromStatus}
	case models.StatusRejected:
		query = `UPDATE bookings SET status = ?, rejected_by = ?, version = version + 1, updated_at = ?
                 WHERE id = ? AND status = ? AND deleted_at IS NULL`
		args = []interface{}{toStatus, actorID, now, id, fromStatus}
	case models.StatusCancelled:
		query = `UPDATE bookings SET status = ?, cancelled_at = ?, version = version + 1, updated_at = ?
                 WHERE id = ? AND status = ? AND deleted_at IS NULL`
		args = []interface{}{toStatus, now, now, id, fromStatus}
	default:
		query = `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
                 WHERE id = ? AND status = ? AND deleted_at IS NULL`
		args = []interface{}{toStatus, now, id, fromStatus}
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, getErr := db.GetBooking(ctx, id); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) GetBookingsByFacilityDate(ctx context.Context, facilityID int64, date time.Time) ([]*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings
              WHERE facility_id = ? AND date = ? AND deleted_at IS NULL
              ORDER BY start_time ASC`, bookingColumns)
	rows, err := db.QueryContext(ctx, query, facilityID, date.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by facility and date: %w", err)
	}
	defer rows.Close()
	return db.scanBookingRows(rows)
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings
              WHERE date >= ? AND date <= ? AND deleted_at IS NULL
              ORDER BY date ASC, start_time ASC`, bookingColumns)
	rows, err := db.QueryContext(ctx, query, startDate.Format(models.DateLayout), endDate.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()
	return db.scanBookingRows(rows)
}

func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings
              WHERE user_id = ? AND deleted_at IS NULL
              ORDER BY created_at DESC`, bookingColumns)
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()
	return db.scanBookingRows(rows)
}

// AdvanceApprovedToInUse переводит Approved-брони, чьё время началось, в InUse.
// Предикат по статусу делает повторный запуск безвредным.
func (db *DB) AdvanceApprovedToInUse(ctx context.Context, now time.Time) (int64, error) {
	return db.advanceStatus(ctx, now, models.StatusApproved, models.StatusInUse, "start_time")
}

// AdvanceInUseToCompleted переводит InUse-брони, чьё время истекло, в Completed.
func (db *DB) AdvanceInUseToCompleted(ctx context.Context, now time.Time) (int64, error) {
	return db.advanceStatus(ctx, now, models.StatusInUse, models.StatusCompleted, "end_time")
}

func (db *DB) advanceStatus(ctx context.Context, now time.Time, fromStatus, toStatus, clockColumn string) (int64, error) {
	query := fmt.Sprintf(`UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
              WHERE status = ? AND deleted_at IS NULL
              AND (date < ? OR (date = ? AND %s <= ?))`, clockColumn)
	today := now.Format(models.DateLayout)
	clock := now.Format(models.ClockLayout)
	result, err := db.ExecContext(ctx, query, toStatus, now, fromStatus, today, today, clock)
	if err != nil {
		return 0, fmt.Errorf("failed to advance bookings %s -> %s: %w", fromStatus, toStatus, err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (db *DB) scanBookingRow(row *sql.Row) (*models.Booking, error) {
	b := &models.Booking{}
	var dateStr string
	err := row.Scan(
		&b.ID, &b.Code, &b.FacilityID, &b.FacilityName, &b.UserID, &b.UserName,
		&dateStr, &b.StartTime, &b.EndTime, &b.Status, &b.LecturerContact, &b.Purpose,
		&b.ApprovedBy, &b.RejectedBy, &b.CreatedAt, &b.UpdatedAt, &b.ApprovedAt,
		&b.CancelledAt, &b.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	b.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	return b, nil
}

func (db *DB) scanBookingRows(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		var dateStr string
		err := rows.Scan(
			&b.ID, &b.Code, &b.FacilityID, &b.FacilityName, &b.UserID, &b.UserName,
			&dateStr, &b.StartTime, &b.EndTime, &b.Status, &b.LecturerContact, &b.Purpose,
			&b.ApprovedBy, &b.RejectedBy, &b.CreatedAt, &b.UpdatedAt, &b.ApprovedAt,
			&b.CancelledAt, &b.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.Date, _ = time.Parse(models.DateLayout, dateStr)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
