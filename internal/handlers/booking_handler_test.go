package handlers

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/middleware"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/quickcourt/booking-backend/internal/services"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBookingHandler(t *testing.T, caller *middleware.UserContext) (*BookingHandler, sqlmock.Sqlmock, *routerUnderTest) {
	db, mock := setupTestDB(t)
	logger, _ := test.NewNullLogger()

	facilityRepo := database.NewFacilityRepository(db)
	bookingService := services.NewBookingService(database.NewBookingRepository(db), facilityRepo, logger)
	handler := NewBookingHandler(bookingService, database.NewCourtRepository(db), facilityRepo, nil)

	router := setupTestRouter(caller)
	router.GET("/bookings", handler.ListMyBookings)
	router.POST("/bookings", handler.CreateBooking)
	router.POST("/bookings/check-conflict", handler.CheckConflict)
	router.POST("/bookings/:id/cancel", handler.CancelBooking)
	router.GET("/bookings/stats", handler.GetFacilityStats)
	return handler, mock, &routerUnderTest{router}
}

func bookingBody(courtID uuid.UUID, start, end string) map[string]interface{} {
	return map[string]interface{}{
		"court_id":       courtID,
		"booking_date":   "2024-01-08",
		"start_time":     start,
		"end_time":       end,
		"duration":       1,
		"total_amount":   800,
		"payment_method": "card",
		"status":         "confirmed",
	}
}

var lockCourtQuery = regexp.QuoteMeta(`SELECT facility_id, status FROM courts WHERE id = $1 FOR UPDATE`)

func TestCreateBookingHandler(t *testing.T) {
	t.Run("Requires Caller", func(t *testing.T) {
		_, _, r := setupBookingHandler(t, nil)

		w := r.json(http.MethodPost, "/bookings", bookingBody(uuid.New(), "10:00", "11:00"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Overlap Is Rejected With Conflicts", func(t *testing.T) {
		_, mock, r := setupBookingHandler(t, newCaller(models.RoleUser))
		courtID := uuid.New()
		existing := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(lockCourtQuery).
			WithArgs(courtID).
			WillReturnRows(sqlmock.NewRows([]string{"facility_id", "status"}).AddRow(uuid.New().String(), "active"))
		mock.ExpectQuery(`SELECT id, (.+) FROM bookings WHERE court_id = \$1`).
			WithArgs(courtID, "2024-01-08", "10:30", "11:30").
			WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "end_time", "user_id"}).
				AddRow(existing.String(), "10:00", "11:00", uuid.New().String()))
		mock.ExpectRollback()

		w := r.json(http.MethodPost, "/bookings", bookingBody(courtID, "10:30", "11:30"))
		require.Equal(t, http.StatusBadRequest, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "booking_conflict", body["error"])
		conflicts := body["conflicts"].([]interface{})
		require.Len(t, conflicts, 1)
		assert.Equal(t, existing.String(), conflicts[0].(map[string]interface{})["id"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Court", func(t *testing.T) {
		_, mock, r := setupBookingHandler(t, newCaller(models.RoleUser))
		courtID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(lockCourtQuery).
			WithArgs(courtID).
			WillReturnRows(sqlmock.NewRows([]string{"facility_id", "status"}))
		mock.ExpectRollback()

		w := r.json(http.MethodPost, "/bookings", bookingBody(courtID, "10:00", "11:00"))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Inverted Window", func(t *testing.T) {
		_, mock, r := setupBookingHandler(t, newCaller(models.RoleUser))

		w := r.json(http.MethodPost, "/bookings", bookingBody(uuid.New(), "12:00", "11:00"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decodeBody(t, w)["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCheckConflictHandler(t *testing.T) {
	body := func(courtID uuid.UUID) map[string]interface{} {
		return map[string]interface{}{
			"court_id":     courtID,
			"booking_date": "2024-01-08",
			"start_time":   "11:00",
			"end_time":     "12:00",
		}
	}

	t.Run("Adjacent Booking Is Free", func(t *testing.T) {
		_, mock, r := setupBookingHandler(t, nil)
		courtID := uuid.New()

		mock.ExpectQuery(`SELECT id, (.+) FROM bookings WHERE court_id = \$1`).
			WithArgs(courtID, "2024-01-08", "11:00", "12:00").
			WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "end_time", "user_id"}))

		w := r.json(http.MethodPost, "/bookings/check-conflict", body(courtID))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["has_conflict"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Overlap Answers 409", func(t *testing.T) {
		_, mock, r := setupBookingHandler(t, nil)
		courtID := uuid.New()

		mock.ExpectQuery(`SELECT id, (.+) FROM bookings WHERE court_id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "end_time", "user_id"}).
				AddRow(uuid.New().String(), "11:30", "12:30", uuid.New().String()))

		w := r.json(http.MethodPost, "/bookings/check-conflict", body(courtID))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, true, decodeBody(t, w)["has_conflict"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelBookingHandler(t *testing.T) {
	t.Run("Not Found", func(t *testing.T) {
		caller := newCaller(models.RoleUser)
		_, mock, r := setupBookingHandler(t, caller)
		bookingID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1 AND user_id = \$2 FOR UPDATE`).
			WithArgs(bookingID, caller.UserID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		w := r.json(http.MethodPost, "/bookings/"+bookingID.String()+"/cancel", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Frees Slot", func(t *testing.T) {
		caller := newCaller(models.RoleUser)
		_, mock, r := setupBookingHandler(t, caller)
		bookingID := uuid.New()
		courtID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1 AND user_id = \$2 FOR UPDATE`).
			WithArgs(bookingID, caller.UserID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "court_id", "day_of_week", "start_time", "status"}).
				AddRow(bookingID, caller.UserID, courtID, 1, "10:00", "confirmed"))
		mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE time_slots SET is_available = true`).
			WithArgs(courtID, 1, "10:00").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		w := r.json(http.MethodPost, "/bookings/"+bookingID.String()+"/cancel", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Malformed ID", func(t *testing.T) {
		_, _, r := setupBookingHandler(t, newCaller(models.RoleUser))

		w := r.json(http.MethodPost, "/bookings/not-a-uuid/cancel", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestFacilityStatsHandler(t *testing.T) {
	t.Run("Other Owner Is Forbidden", func(t *testing.T) {
		_, mock, r := setupBookingHandler(t, newCaller(models.RoleFacilityOwner))
		facilityID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM facilities f WHERE f.id = \$1`).
			WithArgs(facilityID).
			WillReturnRows(facilityRow(facilityID, uuid.New()))

		w := r.json(http.MethodGet, "/bookings/stats?facility_id="+facilityID.String(), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Facility ID", func(t *testing.T) {
		_, _, r := setupBookingHandler(t, newCaller(models.RoleFacilityOwner))

		w := r.json(http.MethodGet, "/bookings/stats", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
