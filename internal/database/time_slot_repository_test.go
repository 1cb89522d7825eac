package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slotRowColumns = []string{"id", "court_id", "day_of_week", "start_time", "end_time", "is_available", "reason", "created_at"}

func TestListForDay(t *testing.T) {
	courtID := uuid.New()

	t.Run("Reconciles Against Bookings On Date", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimeSlotRepository(db)

		mock.ExpectQuery(`NOT EXISTS`).
			WithArgs(courtID, 1, "2024-01-08").
			WillReturnRows(sqlmock.NewRows(slotRowColumns).
				AddRow(uuid.New().String(), courtID.String(), 1, "10:00", "11:00", false, nil, time.Now()).
				AddRow(uuid.New().String(), courtID.String(), 1, "11:00", "12:00", true, nil, time.Now()))

		slots, err := repo.ListForDay(courtID, 1, "2024-01-08")
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.False(t, slots[0].IsAvailable)
		assert.True(t, slots[1].IsAvailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Weekday Only", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimeSlotRepository(db)

		mock.ExpectQuery(`WHERE court_id = \$1 AND day_of_week = \$2`).
			WithArgs(courtID, 0).
			WillReturnRows(sqlmock.NewRows(slotRowColumns))

		slots, err := repo.ListForDay(courtID, 0, "")
		require.NoError(t, err)
		assert.Empty(t, slots)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateTimeSlotDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimeSlotRepository(db)
	day := 2

	mock.ExpectQuery(`INSERT INTO time_slots`).
		WillReturnError(&pq.Error{Code: "23505"})

	slot, err := repo.CreateTimeSlot(&models.CreateTimeSlotRequest{
		CourtID:   uuid.New(),
		DayOfWeek: &day,
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	assert.Nil(t, slot)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitializeDefaults(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimeSlotRepository(db)
	courtID := uuid.New()

	mock.ExpectBegin()
	for day := 0; day < 7; day++ {
		mock.ExpectExec(`ON CONFLICT \(court_id, day_of_week, start_time\) DO NOTHING`).
			WithArgs(sqlmock.AnyArg(), courtID, day, "22:00", "23:00").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`ON CONFLICT`).
			WithArgs(sqlmock.AnyArg(), courtID, day, "23:00", "23:59").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	created, err := repo.InitializeDefaults(context.Background(), []uuid.UUID{courtID}, 22, 24)
	require.NoError(t, err)
	assert.Equal(t, int64(7), created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
