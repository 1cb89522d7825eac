package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/quickcourt/booking-backend/internal/models"
)

const facilityColumns = `f.id, f.owner_id, f.name, f.description, f.location, f.city, f.phone, f.email, f.website,
	f.operating_hours_weekdays, f.operating_hours_weekends, f.status, f.rejection_reason, f.created_at, f.updated_at`

// FacilityRepository handles facilities and their sports, amenities, photos and courts
type FacilityRepository struct {
	db DB
}

// NewFacilityRepository creates a new facility repository
func NewFacilityRepository(db DB) *FacilityRepository {
	return &FacilityRepository{db: db}
}

// CreateFacility inserts a facility with all related rows in one transaction.
// Every "Sport:N" entry of sportCourts yields a facility_courts row and N courts.
func (r *FacilityRepository) CreateFacility(ctx context.Context, ownerID uuid.UUID, req *models.CreateFacilityRequest, photos []models.NewPhoto, hourlyRate float64) (*models.Facility, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	facility := &models.Facility{
		ID:                     uuid.New(),
		OwnerID:                ownerID,
		Name:                   strings.TrimSpace(req.Name),
		Description:            req.Description,
		Location:               strings.TrimSpace(req.Location),
		City:                   req.City,
		Phone:                  req.Phone,
		Email:                  req.Email,
		Website:                req.Website,
		OperatingHoursWeekdays: req.OperatingHoursWeekdays,
		OperatingHoursWeekends: req.OperatingHoursWeekends,
		Status:                 models.FacilityStatusPending,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO facilities (
			id, owner_id, name, description, location, city, phone, email, website,
			operating_hours_weekdays, operating_hours_weekends, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		facility.ID, facility.OwnerID, facility.Name, facility.Description, facility.Location, facility.City,
		facility.Phone, facility.Email, facility.Website, facility.OperatingHoursWeekdays, facility.OperatingHoursWeekends,
		facility.Status, facility.CreatedAt, facility.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert facility: %w", err)
	}

	if err := replaceNames(ctx, tx, "facility_sports", "sport_name", facility.ID, req.Sports); err != nil {
		return nil, err
	}
	if err := replaceNames(ctx, tx, "facility_amenities", "amenity_name", facility.ID, req.Amenities); err != nil {
		return nil, err
	}

	for _, sc := range models.ParseSportCourts(req.SportCourts) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO facility_courts (id, facility_id, sport_type, court_count) VALUES ($1, $2, $3, $4)`,
			uuid.New(), facility.ID, sc.SportType, sc.Count,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert facility courts: %w", err)
		}

		for i := 1; i <= sc.Count; i++ {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO courts (id, facility_id, name, sport_type, surface_type, court_number, hourly_rate, status)
				VALUES ($1, $2, $3, $4, 'Standard', $5, $6, 'active')
			`, uuid.New(), facility.ID, fmt.Sprintf("%s Court %d", sc.SportType, i), sc.SportType, i, hourlyRate)
			if err != nil {
				return nil, fmt.Errorf("failed to insert court: %w", err)
			}
		}
	}

	if err := insertPhotos(ctx, tx, facility.ID, photos); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return facility, nil
}

// replaceNames rewrites the name rows (sports or amenities) of a facility
func replaceNames(ctx context.Context, tx *sqlx.Tx, table, column string, facilityID uuid.UUID, names []string) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE facility_id = $1`, table), facilityID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, facility_id, %s) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, table, column)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, uuid.New(), facilityID, name); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

// insertPhotos stores photo rows; the first photo is primary
func insertPhotos(ctx context.Context, tx *sqlx.Tx, facilityID uuid.UUID, photos []models.NewPhoto) error {
	for i, photo := range photos {
		var fileStorageID *uuid.UUID
		if f := photo.File; f != nil {
			id := uuid.New()
			_, err := tx.ExecContext(ctx, `
				INSERT INTO file_storage (id, file_name, file_path, url, file_type, file_size, uploaded_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, id, f.FileName, f.FilePath, f.URL, f.ContentType, f.Size, f.UploadedBy)
			if err != nil {
				return fmt.Errorf("failed to record stored file: %w", err)
			}
			f.ID = id
			fileStorageID = &id
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO facility_photos (id, facility_id, photo_url, file_storage_id, caption, is_primary)
			VALUES ($1, $2, $3, $4, '', $5)
		`, uuid.New(), facilityID, photo.URL, fileStorageID, i == 0)
		if err != nil {
			return fmt.Errorf("failed to insert facility photo: %w", err)
		}
	}
	return nil
}

// GetFacilityByID retrieves a bare facility row
func (r *FacilityRepository) GetFacilityByID(id uuid.UUID) (*models.Facility, error) {
	var facility models.Facility
	err := r.db.Get(&facility, `SELECT `+facilityColumns+` FROM facilities f WHERE f.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}
	return &facility, nil
}

// GetFacilityDetail retrieves a facility with owner, reviews, sports, amenities, photos and courts
func (r *FacilityRepository) GetFacilityDetail(id uuid.UUID) (*models.FacilityDetail, error) {
	query := `
		SELECT ` + facilityColumns + `, u.full_name AS owner_name, u.email AS owner_email
		FROM facilities f
		JOIN users u ON u.id = f.owner_id
		WHERE f.id = $1
	`

	var detail models.FacilityDetail
	if err := r.db.Get(&detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}

	if err := r.hydrate(&detail); err != nil {
		return nil, err
	}

	courts := []models.Court{}
	err := r.db.Select(&courts, `SELECT `+courtColumns+` FROM courts WHERE facility_id = $1 ORDER BY sport_type, court_number, name`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get facility courts: %w", err)
	}
	detail.Courts = courts

	return &detail, nil
}

// ListActiveFacilities returns all approved facilities, newest first
func (r *FacilityRepository) ListActiveFacilities() ([]models.FacilityDetail, error) {
	return r.listDetails(`WHERE f.status = $1`, models.FacilityStatusActive)
}

// ListFacilitiesByOwner returns every facility of an owner regardless of status
func (r *FacilityRepository) ListFacilitiesByOwner(ownerID uuid.UUID) ([]models.FacilityDetail, error) {
	return r.listDetails(`WHERE f.owner_id = $1`, ownerID)
}

// ListAllFacilities returns every facility for admin review
func (r *FacilityRepository) ListAllFacilities() ([]models.FacilityDetail, error) {
	return r.listDetails(``)
}

func (r *FacilityRepository) listDetails(where string, args ...interface{}) ([]models.FacilityDetail, error) {
	query := `
		SELECT ` + facilityColumns + `, u.full_name AS owner_name, u.email AS owner_email
		FROM facilities f
		JOIN users u ON u.id = f.owner_id
		` + where + `
		ORDER BY f.created_at DESC
	`

	details := []models.FacilityDetail{}
	if err := r.db.Select(&details, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}

	for i := range details {
		if err := r.hydrate(&details[i]); err != nil {
			return nil, err
		}
	}
	return details, nil
}

// hydrate loads review stats, sports, amenities and photos of a facility
func (r *FacilityRepository) hydrate(detail *models.FacilityDetail) error {
	var summary models.ReviewSummary
	err := r.db.Get(&summary, `
		SELECT COALESCE(AVG(rating), 0)::float8 AS average_rating, COUNT(*) AS total_reviews
		FROM reviews WHERE facility_id = $1
	`, detail.ID)
	if err != nil {
		return fmt.Errorf("failed to get review stats: %w", err)
	}
	summary.AverageRating = math.Round(summary.AverageRating*10) / 10
	detail.Reviews = summary

	sports := []string{}
	err = r.db.Select(&sports, `
		SELECT sport_type FROM facility_courts WHERE facility_id = $1
		UNION
		SELECT sport_name FROM facility_sports WHERE facility_id = $1
		ORDER BY 1
	`, detail.ID)
	if err != nil {
		return fmt.Errorf("failed to get facility sports: %w", err)
	}
	detail.Sports = sports

	amenities := []string{}
	err = r.db.Select(&amenities, `SELECT amenity_name FROM facility_amenities WHERE facility_id = $1 ORDER BY amenity_name`, detail.ID)
	if err != nil {
		return fmt.Errorf("failed to get facility amenities: %w", err)
	}
	detail.Amenities = amenities

	photos := []models.FacilityPhoto{}
	err = r.db.Select(&photos, `
		SELECT id, facility_id, photo_url, caption, is_primary, file_storage_id
		FROM facility_photos
		WHERE facility_id = $1
		ORDER BY is_primary DESC, created_at ASC
	`, detail.ID)
	if err != nil {
		return fmt.Errorf("failed to get facility photos: %w", err)
	}
	detail.Photos = photos

	return nil
}

// UpdateFacility applies a partial update. Non-nil sports, amenities or photos
// replace the stored rows. Returns the stored files that were detached.
func (r *FacilityRepository) UpdateFacility(ctx context.Context, id uuid.UUID, req *models.UpdateFacilityRequest) ([]models.StoredFile, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sets := []string{}
	args := []interface{}{}
	add := func(column string, value *string) {
		if value != nil {
			args = append(args, *value)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	add("name", req.Name)
	add("description", req.Description)
	add("location", req.Location)
	add("city", req.City)
	add("phone", req.Phone)
	add("email", req.Email)
	add("website", req.Website)
	add("operating_hours_weekdays", req.OperatingHoursWeekdays)
	add("operating_hours_weekends", req.OperatingHoursWeekends)
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE facilities SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update facility: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrFacilityNotFound
	}

	if req.Sports != nil {
		if err := replaceNames(ctx, tx, "facility_sports", "sport_name", id, req.Sports); err != nil {
			return nil, err
		}
	}
	if req.Amenities != nil {
		if err := replaceNames(ctx, tx, "facility_amenities", "amenity_name", id, req.Amenities); err != nil {
			return nil, err
		}
	}

	var detached []models.StoredFile
	if req.Photos != nil {
		err := tx.SelectContext(ctx, &detached, `
			SELECT fs.id, fs.file_name, fs.file_path, fs.url, fs.file_type, fs.file_size, fs.uploaded_by, fs.created_at
			FROM facility_photos fp
			JOIN file_storage fs ON fs.id = fp.file_storage_id
			WHERE fp.facility_id = $1 AND NOT (fp.photo_url = ANY($2))
		`, id, pq.Array(req.Photos))
		if err != nil {
			return nil, fmt.Errorf("failed to find replaced photos: %w", err)
		}

		// Keep file_storage links for URLs that survive the replacement
		var kept []models.FacilityPhoto
		err = tx.SelectContext(ctx, &kept, `
			SELECT id, facility_id, photo_url, caption, is_primary, file_storage_id
			FROM facility_photos WHERE facility_id = $1
		`, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read facility photos: %w", err)
		}
		links := make(map[string]*uuid.UUID, len(kept))
		for _, p := range kept {
			links[p.URL] = p.FileStorageID
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM facility_photos WHERE facility_id = $1`, id); err != nil {
			return nil, fmt.Errorf("failed to clear facility photos: %w", err)
		}
		for i, url := range req.Photos {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO facility_photos (id, facility_id, photo_url, file_storage_id, caption, is_primary)
				VALUES ($1, $2, $3, $4, '', $5)
			`, uuid.New(), id, url, links[url], i == 0)
			if err != nil {
				return nil, fmt.Errorf("failed to insert facility photo: %w", err)
			}
		}
		for _, f := range detached {
			if _, err := tx.ExecContext(ctx, `DELETE FROM file_storage WHERE id = $1`, f.ID); err != nil {
				return nil, fmt.Errorf("failed to delete stored file record: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return detached, nil
}

// SetStatus changes the lifecycle status; reason is stored on rejection
func (r *FacilityRepository) SetStatus(id uuid.UUID, status models.FacilityStatus, reason string) error {
	query := `
		UPDATE facilities
		SET status = $1, rejection_reason = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.Exec(query, status, models.NewNullString(reason), id)
	if err != nil {
		return fmt.Errorf("failed to update facility status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrFacilityNotFound
	}
	return nil
}

// SoftDelete hides a facility by marking it inactive
func (r *FacilityRepository) SoftDelete(id uuid.UUID) error {
	return r.SetStatus(id, models.FacilityStatusInactive, "")
}

// ListFacilityCourts returns the sport/court-count rows of a facility
func (r *FacilityRepository) ListFacilityCourts(facilityID uuid.UUID) ([]models.FacilityCourtSummary, error) {
	rows := []models.FacilityCourtSummary{}
	err := r.db.Select(&rows, `
		SELECT id, facility_id, sport_type, court_count, created_at
		FROM facility_courts
		WHERE facility_id = $1
		ORDER BY sport_type
	`, facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list facility courts: %w", err)
	}
	return rows, nil
}
