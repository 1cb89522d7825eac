package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/middleware"
	"github.com/quickcourt/booking-backend/internal/models"
)

// CourtHandler handles court CRUD
type CourtHandler struct {
	facilityAccess
}

// NewCourtHandler creates a new court handler
func NewCourtHandler(courtRepo *database.CourtRepository, facilityRepo *database.FacilityRepository) *CourtHandler {
	return &CourtHandler{
		facilityAccess: facilityAccess{courtRepo: courtRepo, facilityRepo: facilityRepo},
	}
}

// ListCourts handles GET /api/v1/courts?facility_id=
func (h *CourtHandler) ListCourts(c *gin.Context) {
	facilityID, ok := parseIDQuery(c, "facility_id")
	if !ok {
		return
	}

	courts, err := h.courtRepo.ListCourts(facilityID)
	if err != nil {
		respondError(c, "list courts", err)
		return
	}
	if courts == nil {
		courts = []models.Court{}
	}
	c.JSON(http.StatusOK, courts)
}

// CreateCourt handles POST /api/v1/courts
func (h *CourtHandler) CreateCourt(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	var req models.CreateCourtRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if !h.canManageFacility(c, userCtx, req.FacilityID) {
		return
	}

	court, err := h.courtRepo.CreateCourt(&req)
	if err != nil {
		respondError(c, "create court", err)
		return
	}

	c.JSON(http.StatusCreated, court)
}

// UpdateCourt handles PUT /api/v1/courts/:id
func (h *CourtHandler) UpdateCourt(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	courtID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateCourtRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if !h.canManageCourt(c, userCtx, courtID) {
		return
	}

	if err := h.courtRepo.UpdateCourt(courtID, &req); err != nil {
		respondError(c, "update court", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Court updated successfully",
	})
}

// DeleteCourt handles DELETE /api/v1/courts/:id
func (h *CourtHandler) DeleteCourt(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	courtID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !h.canManageCourt(c, userCtx, courtID) {
		return
	}

	if err := h.courtRepo.DeleteCourt(courtID); err != nil {
		respondError(c, "delete court", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Court deleted successfully",
	})
}

// facilityAccess checks that the caller may change a facility's courts and slots
type facilityAccess struct {
	courtRepo    *database.CourtRepository
	facilityRepo *database.FacilityRepository
}

func (h facilityAccess) canManageCourt(c *gin.Context, userCtx middleware.UserContext, courtID uuid.UUID) bool {
	court, err := h.courtRepo.GetCourtByID(courtID)
	if err != nil {
		respondError(c, "load court", err)
		return false
	}
	if court == nil {
		respondError(c, "load court", database.ErrCourtNotFound)
		return false
	}
	return h.canManageFacility(c, userCtx, court.FacilityID)
}

// canManageFacility answers 404 or 403 unless the caller owns the facility
// or is an admin
func (h facilityAccess) canManageFacility(c *gin.Context, userCtx middleware.UserContext, facilityID uuid.UUID) bool {
	facility, err := h.facilityRepo.GetFacilityByID(facilityID)
	if err != nil {
		respondError(c, "load facility", err)
		return false
	}
	if facility == nil {
		respondError(c, "load facility", database.ErrFacilityNotFound)
		return false
	}

	if userCtx.Role != models.RoleAdmin && facility.OwnerID != userCtx.UserID {
		log.Printf("WARN: User %s attempted to manage courts of facility %s", userCtx.UserID, facilityID)
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "not_facility_owner",
			Message: "You do not own this facility",
			Code:    "INSUFFICIENT_PERMISSIONS",
		})
		return false
	}
	return true
}
