package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/services"
	"github.com/quickcourt/booking-backend/pkg/email"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userColumns = []string{"id", "full_name", "email", "password_hash", "avatar_url", "role", "created_at", "updated_at"}

func setupAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	db, mock := setupTestDB(t)
	logger, _ := test.NewNullLogger()

	pending := database.NewPendingSignupRepository(db)
	authService := services.NewAuthService(
		database.NewUserRepository(db),
		pending,
		services.NewOTPService(pending, 5*time.Minute, 3),
		services.NewRateLimitService(pending, services.DefaultRateLimitConfig()),
		email.NewLogGateway(logger),
		services.AuthServiceConfig{BcryptCost: bcrypt.MinCost, DevMode: true},
		logger,
	)
	return NewAuthHandler(authService, nil), mock
}

func TestSignupHandler(t *testing.T) {
	t.Run("Malformed Body", func(t *testing.T) {
		handler, _ := setupAuthHandler(t)
		router := setupTestRouter(nil)
		router.POST("/signup", handler.Signup)

		w := performJSON(router, http.MethodPost, "/signup", `{"email":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decodeBody(t, w)["error"])
	})

	t.Run("Short Password", func(t *testing.T) {
		handler, mock := setupAuthHandler(t)
		router := setupTestRouter(nil)
		router.POST("/signup", handler.Signup)

		w := performJSON(router, http.MethodPost, "/signup", map[string]string{
			"full_name": "Asha Patel",
			"email":     "asha@example.com",
			"password":  "123",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Email Taken", func(t *testing.T) {
		handler, mock := setupAuthHandler(t)
		router := setupTestRouter(nil)
		router.POST("/signup", handler.Signup)

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("asha@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		w := performJSON(router, http.MethodPost, "/signup", map[string]string{
			"full_name": "Asha Patel",
			"email":     "asha@example.com",
			"password":  "secret1",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "EMAIL_TAKEN", decodeBody(t, w)["code"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rate Limited", func(t *testing.T) {
		handler, mock := setupAuthHandler(t)
		router := setupTestRouter(nil)
		router.POST("/signup", handler.Signup)

		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`SELECT COUNT(.+) FROM otps_temp WHERE email = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(3, time.Now()))

		w := performJSON(router, http.MethodPost, "/signup", map[string]string{
			"full_name": "Asha Patel",
			"email":     "asha@example.com",
			"password":  "secret1",
		})
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "rate_limit_exceeded", body["error"])
		assert.Equal(t, "email", body["type"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		handler, mock := setupAuthHandler(t)
		router := setupTestRouter(nil)
		router.POST("/login", handler.Login)

		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE LOWER\(email\) = LOWER\(\$1\)`).
			WithArgs("asha@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(userID, "Asha Patel", "asha@example.com", string(hash), nil, "user", now, now))

		w := performJSON(router, http.MethodPost, "/login", map[string]string{
			"email":    "asha@example.com",
			"password": "secret1",
		})
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, true, body["otp_verified"])
		user := body["user"].(map[string]interface{})
		assert.Equal(t, userID.String(), user["id"])
		assert.NotContains(t, user, "password_hash")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Wrong Password", func(t *testing.T) {
		handler, mock := setupAuthHandler(t)
		router := setupTestRouter(nil)
		router.POST("/login", handler.Login)

		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE LOWER\(email\) = LOWER\(\$1\)`).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(userID, "Asha Patel", "asha@example.com", string(hash), nil, "user", now, now))

		w := performJSON(router, http.MethodPost, "/login", map[string]string{
			"email":    "asha@example.com",
			"password": "not-the-password",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_credentials", decodeBody(t, w)["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVerifyOTPHandler(t *testing.T) {
	t.Run("Creates Account", func(t *testing.T) {
		handler, mock := setupAuthHandler(t)
		router := setupTestRouter(nil)
		router.POST("/verify-otp", handler.VerifyOTP)

		pendingID := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM otps_temp`).
			WithArgs("asha@example.com").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "email", "full_name", "password_hash", "role", "avatar_url",
				"otp_code", "expires_at", "attempts", "is_used", "ip_address", "created_at",
			}).AddRow(pendingID, "asha@example.com", "Asha Patel", "$2a$10$hash", "user", nil,
				"123456", time.Now().Add(time.Minute), 0, false, "10.0.0.1", time.Now()))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE otps_temp SET is_used = true WHERE id = \$1`).
			WithArgs(pendingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO users`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`DELETE FROM otps_temp WHERE email = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		w := performJSON(router, http.MethodPost, "/verify-otp", map[string]string{
			"email":    "asha@example.com",
			"otp_code": "123456",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		_, err := uuid.Parse(decodeBody(t, w)["user_id"].(string))
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Pending Signup", func(t *testing.T) {
		handler, mock := setupAuthHandler(t)
		router := setupTestRouter(nil)
		router.POST("/verify-otp", handler.VerifyOTP)

		mock.ExpectQuery(`SELECT (.+) FROM otps_temp`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		w := performJSON(router, http.MethodPost, "/verify-otp", map[string]string{
			"email":    "asha@example.com",
			"otp_code": "123456",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
