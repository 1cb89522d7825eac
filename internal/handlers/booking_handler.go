package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/quickcourt/booking-backend/internal/services"
	"github.com/quickcourt/booking-backend/internal/utils"
)

// BookingHandler handles court bookings
type BookingHandler struct {
	auditRecorder
	facilityAccess
	bookingService *services.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(
	bookingService *services.BookingService,
	courtRepo *database.CourtRepository,
	facilityRepo *database.FacilityRepository,
	auditService *services.AuditService,
) *BookingHandler {
	return &BookingHandler{
		auditRecorder:  auditRecorder{auditService: auditService},
		facilityAccess: facilityAccess{courtRepo: courtRepo, facilityRepo: facilityRepo},
		bookingService: bookingService,
	}
}

// ListMyBookings handles GET /api/v1/bookings
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListUserBookings(userCtx.UserID)
	if err != nil {
		respondError(c, "list bookings", err)
		return
	}
	if bookings == nil {
		bookings = []models.BookingWithVenue{}
	}
	c.JSON(http.StatusOK, bookings)
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	var req models.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	req.UserID = userCtx.UserID

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "create booking", err)
		return
	}

	h.safeLogBookingEvent(userCtx.UserID, booking.ID, "booking_created", utils.GetRealIP(c), utils.GetUserAgent(c), map[string]interface{}{
		"court_id":     booking.CourtID,
		"booking_date": booking.BookingDate,
		"start_time":   booking.StartTime,
		"end_time":     booking.EndTime,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Booking created successfully",
		"booking_id": booking.ID,
	})
}

// UpdateBooking handles PUT /api/v1/bookings/:id
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.bookingService.UpdateBooking(c.Request.Context(), bookingID, userCtx.UserID, userCtx.Role, &req); err != nil {
		respondError(c, "update booking", err)
		return
	}

	details := map[string]interface{}{}
	if req.Status != nil {
		details["status"] = *req.Status
	}
	if req.PaymentStatus != nil {
		details["payment_status"] = *req.PaymentStatus
	}
	h.safeLogBookingEvent(userCtx.UserID, bookingID, "booking_updated", utils.GetRealIP(c), utils.GetUserAgent(c), details)

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking updated successfully",
	})
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.bookingService.CancelBooking(c.Request.Context(), bookingID, userCtx.UserID); err != nil {
		respondError(c, "cancel booking", err)
		return
	}

	h.safeLogBookingEvent(userCtx.UserID, bookingID, "booking_cancelled", utils.GetRealIP(c), utils.GetUserAgent(c), nil)

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled successfully",
	})
}

// CheckConflict handles POST /api/v1/bookings/check-conflict. A conflict is
// answered with 409 and the overlapping bookings.
func (h *BookingHandler) CheckConflict(c *gin.Context) {
	var req models.CheckConflictRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.bookingService.CheckConflict(&req)
	if err != nil {
		respondError(c, "check booking conflict", err)
		return
	}

	if result.HasConflict {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetFacilityStats handles GET /api/v1/bookings/stats?facility_id=
func (h *BookingHandler) GetFacilityStats(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	facilityID, err := uuid.Parse(c.Query("facility_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "facility_id query parameter is required",
		})
		return
	}

	if !h.canManageFacility(c, userCtx, facilityID) {
		return
	}

	stats, err := h.bookingService.FacilityStats(facilityID)
	if err != nil {
		respondError(c, "load booking statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
