package database

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/models"
)

// ReviewRepository handles facility reviews
type ReviewRepository struct {
	db DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. A second review by the same user for the same
// facility returns ErrDuplicate.
func (r *ReviewRepository) Create(userID uuid.UUID, req *models.CreateReviewRequest) (*models.Review, error) {
	query := `
		INSERT INTO reviews (id, user_id, facility_id, rating, review_text)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, facility_id, rating, review_text, created_at
	`

	var review models.Review
	err := r.db.Get(&review, query, uuid.New(), userID, req.FacilityID, req.Rating, req.ReviewText)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		if IsForeignKeyViolation(err) {
			return nil, ErrFacilityNotFound
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return &review, nil
}

// ListByFacility returns the reviews of a facility with reviewer names, newest first
func (r *ReviewRepository) ListByFacility(facilityID uuid.UUID) ([]models.Review, error) {
	query := `
		SELECT r.id, r.user_id, r.facility_id, r.rating, r.review_text, u.full_name AS reviewer_name, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.facility_id = $1
		ORDER BY r.created_at DESC
	`

	reviews := []models.Review{}
	if err := r.db.Select(&reviews, query, facilityID); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// Stats returns the average rating, rounded to one decimal, and the review count
func (r *ReviewRepository) Stats(facilityID uuid.UUID) (*models.ReviewSummary, error) {
	var summary models.ReviewSummary
	err := r.db.Get(&summary, `
		SELECT COALESCE(AVG(rating), 0)::float8 AS average_rating, COUNT(*) AS total_reviews
		FROM reviews WHERE facility_id = $1
	`, facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review stats: %w", err)
	}
	summary.AverageRating = math.Round(summary.AverageRating*10) / 10
	return &summary, nil
}

// Exists reports whether the user already reviewed the facility
func (r *ReviewRepository) Exists(userID, facilityID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = $1 AND facility_id = $2)`, userID, facilityID)
	if err != nil {
		return false, fmt.Errorf("failed to check review: %w", err)
	}
	return exists, nil
}

// HasCompletedBooking reports whether the user finished a booking at the facility
func (r *ReviewRepository) HasCompletedBooking(userID, facilityID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.Get(&exists, `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND facility_id = $2 AND status = 'completed'
		)
	`, userID, facilityID)
	if err != nil {
		return false, fmt.Errorf("failed to check completed bookings: %w", err)
	}
	return exists, nil
}
