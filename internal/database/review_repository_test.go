package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReview(t *testing.T) {
	userID := uuid.New()
	facilityID := uuid.New()
	req := &models.CreateReviewRequest{FacilityID: facilityID, Rating: 5, ReviewText: "Great courts and lighting"}

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewReviewRepository(db)
		reviewID := uuid.New()

		mock.ExpectQuery(`INSERT INTO reviews`).
			WithArgs(sqlmock.AnyArg(), userID, facilityID, 5, "Great courts and lighting").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "facility_id", "rating", "review_text", "created_at"}).
				AddRow(reviewID.String(), userID.String(), facilityID.String(), 5, "Great courts and lighting", time.Now()))

		review, err := repo.Create(userID, req)
		require.NoError(t, err)
		assert.Equal(t, reviewID, review.ID)
		assert.Equal(t, 5, review.Rating)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Second Review Is Duplicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewReviewRepository(db)

		mock.ExpectQuery(`INSERT INTO reviews`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "reviews_user_id_facility_id_key"})

		review, err := repo.Create(userID, req)
		assert.Nil(t, review)
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReviewStats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)
	facilityID := uuid.New()

	mock.ExpectQuery(`FROM reviews WHERE facility_id = \$1`).
		WithArgs(facilityID).
		WillReturnRows(sqlmock.NewRows([]string{"average_rating", "total_reviews"}).AddRow(4.3333, 3))

	stats, err := repo.Stats(facilityID)
	require.NoError(t, err)
	assert.Equal(t, 4.3, stats.AverageRating)
	assert.Equal(t, 3, stats.TotalReviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}
