package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/models"
)

const timeSlotColumns = `id, court_id, day_of_week,
	TO_CHAR(start_time, 'HH24:MI') AS start_time, TO_CHAR(end_time, 'HH24:MI') AS end_time,
	is_available, reason, created_at`

// TimeSlotRepository handles recurring weekly court availability
type TimeSlotRepository struct {
	db DB
}

// NewTimeSlotRepository creates a new time slot repository
func NewTimeSlotRepository(db DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// CreateTimeSlot inserts a slot. A slot with the same court, day and start returns ErrDuplicate.
func (r *TimeSlotRepository) CreateTimeSlot(req *models.CreateTimeSlotRequest) (*models.TimeSlot, error) {
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	query := `
		INSERT INTO time_slots (id, court_id, day_of_week, start_time, end_time, is_available, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + timeSlotColumns

	var slot models.TimeSlot
	err := r.db.Get(&slot, query,
		uuid.New(),
		req.CourtID,
		*req.DayOfWeek,
		req.StartTime,
		req.EndTime,
		available,
		models.NewNullString(req.Reason),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		if IsForeignKeyViolation(err) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to create time slot: %w", err)
	}
	return &slot, nil
}

// GetTimeSlotByID retrieves a slot by ID
func (r *TimeSlotRepository) GetTimeSlotByID(id uuid.UUID) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	err := r.db.Get(&slot, `SELECT `+timeSlotColumns+` FROM time_slots WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get time slot: %w", err)
	}
	return &slot, nil
}

// ListForDay returns the slots of a court on a weekday ordered by start time.
// When date is non-empty a slot whose start falls inside a live booking on
// that date is reported unavailable.
func (r *TimeSlotRepository) ListForDay(courtID uuid.UUID, dayOfWeek int, date string) ([]models.TimeSlot, error) {
	slots := []models.TimeSlot{}

	if date == "" {
		query := `SELECT ` + timeSlotColumns + `
			FROM time_slots
			WHERE court_id = $1 AND day_of_week = $2
			ORDER BY start_time`
		if err := r.db.Select(&slots, query, courtID, dayOfWeek); err != nil {
			return nil, fmt.Errorf("failed to list time slots: %w", err)
		}
		return slots, nil
	}

	query := `
		SELECT ts.id, ts.court_id, ts.day_of_week,
		       TO_CHAR(ts.start_time, 'HH24:MI') AS start_time, TO_CHAR(ts.end_time, 'HH24:MI') AS end_time,
		       ts.is_available AND NOT EXISTS (
		           SELECT 1 FROM bookings b
		           WHERE b.court_id = ts.court_id
		             AND b.booking_date = $3
		             AND b.status <> 'cancelled'
		             AND b.start_time <= ts.start_time
		             AND ts.start_time < b.end_time
		       ) AS is_available,
		       ts.reason, ts.created_at
		FROM time_slots ts
		WHERE ts.court_id = $1 AND ts.day_of_week = $2
		ORDER BY ts.start_time
	`
	if err := r.db.Select(&slots, query, courtID, dayOfWeek, date); err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	return slots, nil
}

// UpdateTimeSlot applies a partial update
func (r *TimeSlotRepository) UpdateTimeSlot(id uuid.UUID, req *models.UpdateTimeSlotRequest) error {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.StartTime != nil {
		add("start_time", *req.StartTime)
	}
	if req.EndTime != nil {
		add("end_time", *req.EndTime)
	}
	if req.IsAvailable != nil {
		add("is_available", *req.IsAvailable)
	}
	if req.Reason != nil {
		add("reason", models.NewNullString(*req.Reason))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE time_slots SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		if IsCheckViolation(err) {
			return fmt.Errorf("start_time must be before end_time")
		}
		return fmt.Errorf("failed to update time slot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTimeSlotNotFound
	}
	return nil
}

// BulkSetAvailability sets is_available on every slot of (court, day) that
// lies inside [start, end]. Returns the number of slots changed.
func (r *TimeSlotRepository) BulkSetAvailability(req *models.BulkUpdateTimeSlotsRequest) (int64, error) {
	query := `
		UPDATE time_slots
		SET is_available = $1, reason = $2
		WHERE court_id = $3 AND day_of_week = $4 AND start_time >= $5 AND end_time <= $6
	`

	result, err := r.db.Exec(query,
		*req.IsAvailable,
		models.NewNullString(req.Reason),
		req.CourtID,
		*req.DayOfWeek,
		req.StartTime,
		req.EndTime,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk update time slots: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// ClearAll deletes every time slot
func (r *TimeSlotRepository) ClearAll() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM time_slots`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear time slots: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// InitializeDefaults creates hourly slots from openHour to closeHour on all
// seven days for each court. Existing slots are left alone. Returns the
// number of slots created.
func (r *TimeSlotRepository) InitializeDefaults(ctx context.Context, courtIDs []uuid.UUID, openHour, closeHour int) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO time_slots (id, court_id, day_of_week, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5, true)
		ON CONFLICT (court_id, day_of_week, start_time) DO NOTHING
	`

	var created int64
	for _, courtID := range courtIDs {
		for day := 0; day < 7; day++ {
			for hour := openHour; hour < closeHour; hour++ {
				start := fmt.Sprintf("%02d:00", hour)
				end := fmt.Sprintf("%02d:00", hour+1)
				if hour+1 == 24 {
					end = "23:59"
				}

				result, err := tx.ExecContext(ctx, query, uuid.New(), courtID, day, start, end)
				if err != nil {
					return 0, fmt.Errorf("failed to create time slot: %w", err)
				}
				n, err := result.RowsAffected()
				if err != nil {
					return 0, fmt.Errorf("failed to get rows affected: %w", err)
				}
				created += n
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}
