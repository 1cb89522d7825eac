package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/models"
)

const courtColumns = `id, facility_id, name, sport_type, surface_type, court_number, hourly_rate::float8 AS hourly_rate, status, created_at`

// CourtRepository handles court database operations
type CourtRepository struct {
	db DB
}

// NewCourtRepository creates a new court repository
func NewCourtRepository(db DB) *CourtRepository {
	return &CourtRepository{db: db}
}

// CreateCourt inserts a court for a facility
func (r *CourtRepository) CreateCourt(req *models.CreateCourtRequest) (*models.Court, error) {
	query := `
		INSERT INTO courts (id, facility_id, name, sport_type, surface_type, court_number, hourly_rate, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + courtColumns

	var court models.Court
	err := r.db.Get(&court, query,
		uuid.New(),
		req.FacilityID,
		strings.TrimSpace(req.Name),
		strings.TrimSpace(req.SportType),
		models.NewNullString(req.SurfaceType),
		req.CourtNumber,
		req.HourlyRate,
		req.Status,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, ErrFacilityNotFound
		}
		return nil, fmt.Errorf("failed to create court: %w", err)
	}
	return &court, nil
}

// GetCourtByID retrieves a court by ID
func (r *CourtRepository) GetCourtByID(id uuid.UUID) (*models.Court, error) {
	var court models.Court
	err := r.db.Get(&court, `SELECT `+courtColumns+` FROM courts WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get court: %w", err)
	}
	return &court, nil
}

// ListCourts returns courts, optionally restricted to one facility
func (r *CourtRepository) ListCourts(facilityID *uuid.UUID) ([]models.Court, error) {
	courts := []models.Court{}

	var err error
	if facilityID != nil {
		err = r.db.Select(&courts, `SELECT `+courtColumns+` FROM courts WHERE facility_id = $1 ORDER BY sport_type, court_number, name`, *facilityID)
	} else {
		err = r.db.Select(&courts, `SELECT `+courtColumns+` FROM courts ORDER BY facility_id, sport_type, court_number, name`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	return courts, nil
}

// UpdateCourt applies a partial update
func (r *CourtRepository) UpdateCourt(id uuid.UUID, req *models.UpdateCourtRequest) error {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		add("name", strings.TrimSpace(*req.Name))
	}
	if req.SportType != nil {
		add("sport_type", strings.TrimSpace(*req.SportType))
	}
	if req.SurfaceType != nil {
		add("surface_type", models.NewNullString(*req.SurfaceType))
	}
	if req.CourtNumber != nil {
		add("court_number", *req.CourtNumber)
	}
	if req.HourlyRate != nil {
		add("hourly_rate", *req.HourlyRate)
	}
	if req.Status != nil {
		add("status", *req.Status)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE courts SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update court: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCourtNotFound
	}
	return nil
}

// DeleteCourt removes a court; its slots and bookings cascade
func (r *CourtRepository) DeleteCourt(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM courts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete court: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCourtNotFound
	}
	return nil
}

// ListCourtIDs returns the IDs of every court
func (r *CourtRepository) ListCourtIDs() ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := r.db.Select(&ids, `SELECT id FROM courts ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("failed to list court IDs: %w", err)
	}
	return ids, nil
}
