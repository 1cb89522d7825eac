package database

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockDB wraps a sqlmock connection in the production DB type
func newMockDB(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return &PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

var userRowColumns = []string{"id", "full_name", "email", "password_hash", "avatar_url", "role", "created_at", "updated_at"}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(sqlmock.AnyArg(), "Asha Perera", "asha@example.com", "hash", sqlmock.AnyArg(), models.RoleUser, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		user, err := repo.CreateUser("Asha Perera", "asha@example.com", "hash", models.RoleUser, "")
		require.NoError(t, err)
		assert.Equal(t, "asha@example.com", user.Email)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.False(t, user.AvatarURL.Valid)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

		user, err := repo.CreateUser("Asha Perera", "asha@example.com", "hash", models.RoleUser, "")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(`INSERT INTO users`).WillReturnError(fmt.Errorf("database error"))

		user, err := repo.CreateUser("Asha Perera", "asha@example.com", "hash", models.RoleUser, "")
		assert.Nil(t, user)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateFromSignup(t *testing.T) {
	pending := func() *models.PendingSignup {
		return &models.PendingSignup{
			ID:           uuid.New(),
			Email:        "asha@example.com",
			FullName:     "Asha Perera",
			PasswordHash: "hash",
			Role:         models.RoleUser,
		}
	}

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)
		p := pending()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE otps_temp SET is_used = true WHERE id = \$1 AND is_used = false`).
			WithArgs(p.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(sqlmock.AnyArg(), "Asha Perera", "asha@example.com", "hash", nil, "user", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`DELETE FROM otps_temp WHERE email = \$1`).
			WithArgs("asha@example.com").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		user, err := repo.CreateFromSignup(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, "asha@example.com", user.Email)
		assert.True(t, p.IsUsed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Taken Email Rolls Back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)
		p := pending()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE otps_temp SET is_used = true WHERE id = \$1`).
			WithArgs(p.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		user, err := repo.CreateFromSignup(context.Background(), p)
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.False(t, p.IsUsed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insert Failure Keeps Code Usable", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)
		p := pending()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE otps_temp SET is_used = true WHERE id = \$1`).
			WithArgs(p.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(fmt.Errorf("connection reset"))
		mock.ExpectRollback()

		_, err := repo.CreateFromSignup(context.Background(), p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Consumed", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)
		p := pending()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE otps_temp SET is_used = true WHERE id = \$1`).
			WithArgs(p.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.CreateFromSignup(context.Background(), p)
		assert.ErrorIs(t, err, ErrSignupConsumed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetUserByEmail(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		userID := uuid.New()
		now := time.Now()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE LOWER(email) = LOWER($1)`)).
			WithArgs("Asha@Example.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(userID.String(), "Asha Perera", "asha@example.com", "hash", nil, "facility_owner", now, now))

		user, err := repo.GetUserByEmail("Asha@Example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, models.RoleFacilityOwner, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(`FROM users WHERE LOWER`).
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		user, err := repo.GetUserByEmail("nobody@example.com")
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users`).
			WithArgs("New Name", "new@example.com", sqlmock.AnyArg(), nil, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateProfile(userID, "New Name", "new@example.com", "", "")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Password In Same Statement", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)
		userID := uuid.New()

		mock.ExpectExec(`password_hash = COALESCE\(\$4, password_hash\)`).
			WithArgs("New Name", "new@example.com", sqlmock.AnyArg(), "$2a$04$hash", userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateProfile(userID, "New Name", "new@example.com", "", "$2a$04$hash")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Email Taken", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(`UPDATE users`).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.UpdateProfile(uuid.New(), "New Name", "taken@example.com", "", "$2a$04$hash")
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("User Not Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(`UPDATE users`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateProfile(uuid.New(), "New Name", "new@example.com", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user not found")
	})
}

func TestEmailExists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists("asha@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingSignupCountRecent(t *testing.T) {
	t.Run("Counts By Email", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPendingSignupRepository(db)
		since := time.Now().Add(-time.Hour)
		last := time.Now().Add(-time.Minute)

		mock.ExpectQuery(`WHERE email = \$1 AND created_at > \$2`).
			WithArgs("asha@example.com", since).
			WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(2, last))

		count, lastAt, err := repo.CountRecent("email", "asha@example.com", since)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.WithinDuration(t, last, lastAt, time.Second)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects Unknown Column", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo := NewPendingSignupRepository(db)

		_, _, err := repo.CountRecent("password_hash", "x", time.Now())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported rate limit key")
	})
}
