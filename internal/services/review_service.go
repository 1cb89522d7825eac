package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/models"
)

// ErrDuplicateReview indicates the user already reviewed the facility
var ErrDuplicateReview = errors.New("you have already reviewed this facility")

// ReviewService manages facility reviews
type ReviewService struct {
	reviews *database.ReviewRepository
}

// NewReviewService creates a new review service
func NewReviewService(reviews *database.ReviewRepository) *ReviewService {
	return &ReviewService{reviews: reviews}
}

// CreateReview stores one review per (user, facility)
func (s *ReviewService) CreateReview(userID uuid.UUID, req *models.CreateReviewRequest) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	review, err := s.reviews.Create(userID, req)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}
	return review, nil
}

// ListReviews returns the reviews of a facility, newest first
func (s *ReviewService) ListReviews(facilityID uuid.UUID) ([]models.Review, error) {
	return s.reviews.ListByFacility(facilityID)
}

// Stats returns the rounded average and count
func (s *ReviewService) Stats(facilityID uuid.UUID) (*models.ReviewSummary, error) {
	return s.reviews.Stats(facilityID)
}

// CanReview is true when the user completed a booking at the facility and
// has not reviewed it yet
func (s *ReviewService) CanReview(userID, facilityID uuid.UUID) (bool, error) {
	exists, err := s.reviews.Exists(userID, facilityID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return s.reviews.HasCompletedBooking(userID, facilityID)
}
