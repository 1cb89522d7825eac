package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/models"
)

// FacilityContextKey holds the facility loaded by RequireFacilityOwnership
const FacilityContextKey = "facility"

// RequireFacilityOwnership checks that the caller owns the facility named by
// the :id route parameter. Admins pass for every facility.
// Must be used after Identify to have userCtx available
func RequireFacilityOwnership(facilityRepo *database.FacilityRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User context not found",
				"code":    "MISSING_USER_CONTEXT",
			})
			c.Abort()
			return
		}

		facilityID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": "Invalid facility ID",
			})
			c.Abort()
			return
		}

		facility, err := facilityRepo.GetFacilityByID(facilityID)
		if err != nil {
			log.Printf("ERROR: Failed to get facility %s for ownership check: %v", facilityID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "database_error",
				"message": "Failed to verify facility ownership",
			})
			c.Abort()
			return
		}

		if facility == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Facility not found",
			})
			c.Abort()
			return
		}

		if userCtx.Role != models.RoleAdmin && facility.OwnerID != userCtx.UserID {
			log.Printf("WARN: User %s attempted to modify facility %s owned by %s", userCtx.UserID, facilityID, facility.OwnerID)
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "not_facility_owner",
				"message": "You do not own this facility",
				"code":    "INSUFFICIENT_PERMISSIONS",
			})
			c.Abort()
			return
		}

		c.Set(FacilityContextKey, facility)
		c.Next()
	}
}
