package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/middleware"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a mock database for testing
func setupTestDB(t *testing.T) (*database.PostgresDB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

// setupTestRouter returns a router that runs as the given caller. A nil
// caller leaves the request anonymous.
func setupTestRouter(caller *middleware.UserContext) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if caller != nil {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.UserContextKey, *caller)
			c.Next()
		})
	}
	return router
}

func newCaller(role models.UserRole) *middleware.UserContext {
	return &middleware.UserContext{
		UserID: uuid.New(),
		Email:  "caller@example.com",
		Role:   role,
	}
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		payload, _ = json.Marshal(b)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// routerUnderTest sends JSON requests to a configured router
type routerUnderTest struct {
	*gin.Engine
}

func (r *routerUnderTest) json(method, path string, body interface{}) *httptest.ResponseRecorder {
	return performJSON(r.Engine, method, path, body)
}

var facilityColumns = []string{
	"id", "owner_id", "name", "description", "location", "city", "phone", "email", "website",
	"operating_hours_weekdays", "operating_hours_weekends", "status", "rejection_reason", "created_at", "updated_at",
}

func facilityRow(facilityID, ownerID uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(facilityColumns).
		AddRow(facilityID, ownerID, "Smash Arena", "", "MG Road", "Bangalore", "", "", "", "", "", "active", nil, now, now)
}
