package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/quickcourt/booking-backend/internal/models"
)

// bookingColumns lists the booking columns with dates and times rendered as
// YYYY-MM-DD and HH:MM
func bookingColumns(alias string) string {
	p := ""
	if alias != "" {
		p = alias + "."
	}
	return fmt.Sprintf(`%[1]sid, %[1]suser_id, %[1]scourt_id, %[1]sfacility_id,
		TO_CHAR(%[1]sbooking_date, 'YYYY-MM-DD') AS booking_date,
		TO_CHAR(%[1]sstart_time, 'HH24:MI') AS start_time,
		TO_CHAR(%[1]send_time, 'HH24:MI') AS end_time,
		%[1]sduration, %[1]stotal_amount::float8 AS total_amount, %[1]spayment_method,
		%[1]sstatus, %[1]spayment_status, %[1]screated_at, %[1]supdated_at`, p)
}

// overlapQuery selects the live bookings of a court and date whose
// [start_time, end_time) intersects [$3, $4)
const overlapQuery = `
	SELECT id, TO_CHAR(start_time, 'HH24:MI') AS start_time, TO_CHAR(end_time, 'HH24:MI') AS end_time, user_id
	FROM bookings
	WHERE court_id = $1
	  AND booking_date = $2
	  AND status <> 'cancelled'
	  AND start_time < $4
	  AND $3 < end_time
	ORDER BY start_time
`

// BookingRepository handles database operations for the bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateWithConflictCheck checks for overlaps, claims the weekly slot and
// inserts the booking inside one serializable transaction. The court row is
// locked so concurrent requests for the same court queue behind each other.
func (r *BookingRepository) CreateWithConflictCheck(ctx context.Context, req *models.CreateBookingRequest, dayOfWeek int) (*models.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, serializable)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var court struct {
		FacilityID uuid.UUID          `db:"facility_id"`
		Status     models.CourtStatus `db:"status"`
	}
	err = tx.GetContext(ctx, &court, `SELECT facility_id, status FROM courts WHERE id = $1 FOR UPDATE`, req.CourtID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCourtNotFound
		}
		return nil, mapLedgerError(err, "failed to lock court")
	}
	if court.Status != models.CourtStatusActive {
		return nil, ErrCourtInactive
	}

	conflicts := []models.ConflictingBooking{}
	err = tx.SelectContext(ctx, &conflicts, overlapQuery, req.CourtID, req.BookingDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, mapLedgerError(err, "failed to check booking conflicts")
	}
	if len(conflicts) > 0 {
		return nil, &BookingConflictError{Conflicts: conflicts}
	}

	var slotID uuid.UUID
	err = tx.GetContext(ctx, &slotID, `
		SELECT id FROM time_slots
		WHERE court_id = $1 AND day_of_week = $2 AND start_time = $3 AND is_available = true
		FOR UPDATE
	`, req.CourtID, dayOfWeek, req.StartTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSlotUnavailable
		}
		return nil, mapLedgerError(err, "failed to lock time slot")
	}

	query := `
		INSERT INTO bookings (
			id, user_id, court_id, facility_id, booking_date, start_time, end_time,
			duration, total_amount, payment_method, status, payment_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + bookingColumns("")

	var booking models.Booking
	err = tx.GetContext(ctx, &booking, query,
		uuid.New(),
		req.UserID,
		req.CourtID,
		court.FacilityID,
		req.BookingDate,
		req.StartTime,
		req.EndTime,
		req.Duration,
		req.TotalAmount,
		req.PaymentMethod,
		req.Status,
		req.PaymentStatus,
	)
	if err != nil {
		return nil, mapLedgerError(err, "failed to create booking")
	}

	if _, err := tx.ExecContext(ctx, `UPDATE time_slots SET is_available = false WHERE id = $1`, slotID); err != nil {
		return nil, mapLedgerError(err, "failed to update time slot")
	}

	if err := tx.Commit(); err != nil {
		return nil, mapLedgerError(err, "failed to commit transaction")
	}

	return &booking, nil
}

// FindConflicts returns the live bookings overlapping the requested window
func (r *BookingRepository) FindConflicts(courtID uuid.UUID, date, start, end string) ([]models.ConflictingBooking, error) {
	conflicts := []models.ConflictingBooking{}
	if err := r.db.Select(&conflicts, overlapQuery, courtID, date, start, end); err != nil {
		return nil, fmt.Errorf("failed to check booking conflicts: %w", err)
	}
	return conflicts, nil
}

// Cancel cancels a booking owned by userID and frees its weekly slot in one
// serializable transaction
func (r *BookingRepository) Cancel(ctx context.Context, bookingID, userID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, serializable)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := lockBooking(ctx, tx, `WHERE id = $1 AND user_id = $2`, bookingID, userID)
	if err != nil {
		return err
	}
	if current.Status == models.BookingStatusCancelled {
		return ErrAlreadyCancelled
	}

	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = 'cancelled', updated_at = NOW() WHERE id = $1`, bookingID); err != nil {
		return mapLedgerError(err, "failed to cancel booking")
	}
	if err := releaseSlot(ctx, tx, current); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapLedgerError(err, "failed to commit transaction")
	}
	return nil
}

// lockedBooking is the part of a booking needed to find its weekly slot
type lockedBooking struct {
	ID          uuid.UUID            `db:"id"`
	UserID      uuid.UUID            `db:"user_id"`
	CourtID     uuid.UUID            `db:"court_id"`
	BookingDate string               `db:"booking_date"`
	DayOfWeek   int                  `db:"day_of_week"`
	StartTime   string               `db:"start_time"`
	EndTime     string               `db:"end_time"`
	Status      models.BookingStatus `db:"status"`
}

func lockBooking(ctx context.Context, tx *sqlx.Tx, where string, args ...interface{}) (*lockedBooking, error) {
	query := `
		SELECT id, user_id, court_id, TO_CHAR(booking_date, 'YYYY-MM-DD') AS booking_date,
		       EXTRACT(DOW FROM booking_date)::int AS day_of_week,
		       TO_CHAR(start_time, 'HH24:MI') AS start_time,
		       TO_CHAR(end_time, 'HH24:MI') AS end_time, status
		FROM bookings
		` + where + `
		FOR UPDATE`

	var b lockedBooking
	if err := tx.GetContext(ctx, &b, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, mapLedgerError(err, "failed to lock booking")
	}
	return &b, nil
}

func releaseSlot(ctx context.Context, tx *sqlx.Tx, b *lockedBooking) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE time_slots SET is_available = true
		WHERE court_id = $1 AND day_of_week = $2 AND start_time = $3
	`, b.CourtID, b.DayOfWeek, b.StartTime)
	if err != nil {
		return mapLedgerError(err, "failed to release time slot")
	}
	return nil
}

// reclaimSlot puts a cancelled booking back on the ledger: its window must
// still be free and its weekly slot available
func reclaimSlot(ctx context.Context, tx *sqlx.Tx, b *lockedBooking) error {
	conflicts := []models.ConflictingBooking{}
	err := tx.SelectContext(ctx, &conflicts, overlapQuery, b.CourtID, b.BookingDate, b.StartTime, b.EndTime)
	if err != nil {
		return mapLedgerError(err, "failed to check booking conflicts")
	}
	if len(conflicts) > 0 {
		return &BookingConflictError{Conflicts: conflicts}
	}

	var slotID uuid.UUID
	err = tx.GetContext(ctx, &slotID, `
		SELECT id FROM time_slots
		WHERE court_id = $1 AND day_of_week = $2 AND start_time = $3 AND is_available = true
		FOR UPDATE
	`, b.CourtID, b.DayOfWeek, b.StartTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrSlotUnavailable
		}
		return mapLedgerError(err, "failed to lock time slot")
	}

	if _, err := tx.ExecContext(ctx, `UPDATE time_slots SET is_available = false WHERE id = $1`, slotID); err != nil {
		return mapLedgerError(err, "failed to update time slot")
	}
	return nil
}

// mapLedgerError turns exclusion and serialization failures into a conflict
func mapLedgerError(err error, msg string) error {
	if IsExclusionViolation(err) || IsSerializationFailure(err) {
		return &BookingConflictError{}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Get(&booking, `SELECT `+bookingColumns("")+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// ListByUser returns a user's bookings with court and facility names, latest date first
func (r *BookingRepository) ListByUser(userID uuid.UUID) ([]models.BookingWithVenue, error) {
	query := `
		SELECT ` + bookingColumns("b") + `,
		       c.name AS court_name, c.sport_type,
		       f.name AS facility_name, f.location AS facility_location
		FROM bookings b
		JOIN courts c ON c.id = b.court_id
		JOIN facilities f ON f.id = b.facility_id
		WHERE b.user_id = $1
		ORDER BY b.booking_date DESC, b.start_time DESC
	`

	bookings := []models.BookingWithVenue{}
	if err := r.db.Select(&bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus changes the booking and/or payment status. Moving a booking
// to cancelled frees its slot in the same transaction; moving it out of
// cancelled claims the slot again or fails like a new booking would.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status, paymentStatus *string) error {
	tx, err := r.db.BeginTxx(ctx, serializable)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := lockBooking(ctx, tx, `WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if status != nil {
		next := models.BookingStatus(*status)
		wasCancelled := current.Status == models.BookingStatusCancelled

		if wasCancelled && next != models.BookingStatusCancelled {
			if err := reclaimSlot(ctx, tx, current); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`, *status, id); err != nil {
			return mapLedgerError(err, "failed to update booking status")
		}
		if next == models.BookingStatusCancelled && !wasCancelled {
			if err := releaseSlot(ctx, tx, current); err != nil {
				return err
			}
		}
	}
	if paymentStatus != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE bookings SET payment_status = $1, updated_at = NOW() WHERE id = $2`, *paymentStatus, id); err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mapLedgerError(err, "failed to commit transaction")
	}
	return nil
}

// FacilityStats summarises the bookings of a facility; upcoming counts
// confirmed bookings dated today or later
func (r *BookingRepository) FacilityStats(facilityID uuid.UUID, today time.Time) (*models.FacilityBookingStats, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = 'confirmed' AND booking_date >= $2) AS upcoming,
		       COUNT(*) FILTER (WHERE status = 'completed') AS completed,
		       COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled,
		       COALESCE(SUM(total_amount) FILTER (WHERE payment_status = 'paid'), 0)::float8 AS revenue
		FROM bookings
		WHERE facility_id = $1
	`

	var stats models.FacilityBookingStats
	if err := r.db.Get(&stats, query, facilityID, today.Format(models.DateLayout)); err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	return &stats, nil
}

// CompletePast marks confirmed bookings that ended before now as completed
func (r *BookingRepository) CompletePast(now time.Time) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', updated_at = NOW()
		WHERE status = 'confirmed' AND (booking_date + end_time) < $1::timestamp
	`

	result, err := r.db.Exec(query, now.Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to complete past bookings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// IsConflict reports whether err is a booking conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrBookingConflict)
}
