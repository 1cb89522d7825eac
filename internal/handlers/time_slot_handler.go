package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/quickcourt/booking-backend/internal/services"
)

// TimeSlotHandler handles the weekly availability of courts
type TimeSlotHandler struct {
	facilityAccess
	slotRepo  *database.TimeSlotRepository
	openHour  int
	closeHour int
}

// NewTimeSlotHandler creates a new time slot handler. openHour and closeHour
// bound the slots created by Initialize.
func NewTimeSlotHandler(
	slotRepo *database.TimeSlotRepository,
	courtRepo *database.CourtRepository,
	facilityRepo *database.FacilityRepository,
	openHour, closeHour int,
) *TimeSlotHandler {
	return &TimeSlotHandler{
		facilityAccess: facilityAccess{courtRepo: courtRepo, facilityRepo: facilityRepo},
		slotRepo:       slotRepo,
		openHour:       openHour,
		closeHour:      closeHour,
	}
}

// ListTimeSlots handles GET /api/v1/time-slots?court_id=&date=|day_of_week=
func (h *TimeSlotHandler) ListTimeSlots(c *gin.Context) {
	courtID, err := uuid.Parse(c.Query("court_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "court_id query parameter is required",
		})
		return
	}

	date := c.Query("date")
	var dayOfWeek int
	switch {
	case date != "":
		dayOfWeek, err = services.DayOfWeek(date)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "date must be YYYY-MM-DD",
			})
			return
		}
	case c.Query("day_of_week") != "":
		dayOfWeek, err = strconv.Atoi(c.Query("day_of_week"))
		if err != nil || dayOfWeek < 0 || dayOfWeek > 6 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "day_of_week must be between 0 (Sunday) and 6 (Saturday)",
			})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "date or day_of_week query parameter is required",
		})
		return
	}

	slots, err := h.slotRepo.ListForDay(courtID, dayOfWeek, date)
	if err != nil {
		respondError(c, "list time slots", err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// CreateTimeSlot handles POST /api/v1/time-slots
func (h *TimeSlotHandler) CreateTimeSlot(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	var req models.CreateTimeSlotRequest
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

	if !h.canManageCourt(c, userCtx, req.CourtID) {
		return
	}

	slot, err := h.slotRepo.CreateTimeSlot(&req)
	if err != nil {
		respondError(c, "create time slot", err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// UpdateTimeSlot handles PUT /api/v1/time-slots/:id
func (h *TimeSlotHandler) UpdateTimeSlot(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	slotID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateTimeSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	slot, err := h.slotRepo.GetTimeSlotByID(slotID)
	if err != nil {
		respondError(c, "load time slot", err)
		return
	}
	if slot == nil {
		respondError(c, "load time slot", database.ErrTimeSlotNotFound)
		return
	}

	start, end := slot.StartTime, slot.EndTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if err := models.ValidateWindow(start, end); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if !h.canManageCourt(c, userCtx, slot.CourtID) {
		return
	}

	if err := h.slotRepo.UpdateTimeSlot(slotID, &req); err != nil {
		respondError(c, "update time slot", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Time slot updated successfully",
	})
}

// BulkUpdateTimeSlots handles POST /api/v1/time-slots/bulk-update
func (h *TimeSlotHandler) BulkUpdateTimeSlots(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	var req models.BulkUpdateTimeSlotsRequest
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

	if !h.canManageCourt(c, userCtx, req.CourtID) {
		return
	}

	affected, err := h.slotRepo.BulkSetAvailability(&req)
	if err != nil {
		respondError(c, "update time slots", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Time slots updated successfully",
		"affected_rows": affected,
	})
}

// ClearTimeSlots handles POST /api/v1/time-slots/clear
func (h *TimeSlotHandler) ClearTimeSlots(c *gin.Context) {
	deleted, err := h.slotRepo.ClearAll()
	if err != nil {
		respondError(c, "clear time slots", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "All time slots cleared",
		"deleted_count": deleted,
	})
}

// InitializeTimeSlots handles POST /api/v1/time-slots/initialize
func (h *TimeSlotHandler) InitializeTimeSlots(c *gin.Context) {
	courtIDs, err := h.courtRepo.ListCourtIDs()
	if err != nil {
		respondError(c, "initialize time slots", err)
		return
	}
	if len(courtIDs) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "No courts found. Create courts before initializing time slots.",
		})
		return
	}

	created, err := h.slotRepo.InitializeDefaults(c.Request.Context(), courtIDs, h.openHour, h.closeHour)
	if err != nil {
		respondError(c, "initialize time slots", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Time slots initialized",
		"courts":        len(courtIDs),
		"created_count": created,
	})
}
