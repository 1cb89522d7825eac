package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func facilityRow(id, ownerID uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "name", "description", "location", "city", "phone", "email", "website",
		"operating_hours_weekdays", "operating_hours_weekends", "status", "rejection_reason", "created_at", "updated_at",
	}).AddRow(id, ownerID, "Smash Arena", "", "MG Road", "Bangalore", "", "", "", "", "", "active", nil, now, now)
}

func TestRequireFacilityOwnership(t *testing.T) {
	ownerID := uuid.New()
	facilityID := uuid.New()

	caller := func(id uuid.UUID, role models.UserRole) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(UserContextKey, UserContext{UserID: id, Role: role})
			c.Next()
		}
	}

	tests := []struct {
		name     string
		userID   uuid.UUID
		role     models.UserRole
		expected int
	}{
		{"Owner Allowed", ownerID, models.RoleFacilityOwner, http.StatusOK},
		{"Admin Allowed", uuid.New(), models.RoleAdmin, http.StatusOK},
		{"Other Owner Forbidden", uuid.New(), models.RoleFacilityOwner, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, facilities, mock := newMockRepos(t)
			mock.ExpectQuery(`SELECT (.+) FROM facilities f WHERE f.id = \$1`).
				WithArgs(facilityID).
				WillReturnRows(facilityRow(facilityID, ownerID))

			router := setupTestRouter()
			router.PUT("/facilities/:id", caller(tt.userID, tt.role), RequireFacilityOwnership(facilities), func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "ok"})
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("PUT", "/facilities/"+facilityID.String(), nil))

			assert.Equal(t, tt.expected, w.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("Unknown Facility", func(t *testing.T) {
		_, facilities, mock := newMockRepos(t)
		mock.ExpectQuery(`SELECT (.+) FROM facilities f WHERE f.id = \$1`).
			WithArgs(facilityID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		router := setupTestRouter()
		router.PUT("/facilities/:id", caller(ownerID, models.RoleFacilityOwner), RequireFacilityOwnership(facilities), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("PUT", "/facilities/"+facilityID.String(), nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Bad Facility ID", func(t *testing.T) {
		_, facilities, _ := newMockRepos(t)

		router := setupTestRouter()
		router.PUT("/facilities/:id", caller(ownerID, models.RoleFacilityOwner), RequireFacilityOwnership(facilities), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("PUT", "/facilities/abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
