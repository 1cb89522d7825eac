package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/middleware"
	"github.com/quickcourt/booking-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// respondError maps service and repository errors to a status code. Unknown
// errors are logged and answered with a generic message.
func respondError(c *gin.Context, operation string, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Message,
		})
		return
	}

	var rateLimitErr *services.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     rateLimitErr.Message,
			"retry_after": rateLimitErr.RetryAfter,
			"type":        rateLimitErr.Type,
		})
		return
	}

	var conflictErr *database.BookingConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "booking_conflict",
			"message":   services.ErrBookingConflict.Error(),
			"conflicts": conflictErr.Conflicts,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrBookingConflict):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "booking_conflict", Message: err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid_credentials", Message: "Invalid email or password"})
	case errors.Is(err, services.ErrIncorrectPassword):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "incorrect_password", Message: err.Error()})
	case errors.Is(err, services.ErrOTPInvalid),
		errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrMaxAttemptsExceeded):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "otp_verification_failed", Message: err.Error()})
	case errors.Is(err, services.ErrNoOTPFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no_pending_signup", Message: err.Error()})
	case errors.Is(err, services.ErrEmailDelivery):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "email_delivery_failed", Message: "Failed to send verification email. Please try again."})
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, services.ErrFacilityNotFound),
		errors.Is(err, services.ErrCourtNotFound),
		errors.Is(err, database.ErrTimeSlotNotFound),
		errors.Is(err, services.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "email_taken", Message: "Email is already registered", Code: "EMAIL_TAKEN"})
	case errors.Is(err, services.ErrDuplicateReview):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "duplicate_review", Message: err.Error(), Code: "DUPLICATE_REVIEW"})
	case errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "duplicate", Message: "A record with these values already exists"})
	case errors.Is(err, services.ErrNotBookingParty):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: err.Error(), Code: "INSUFFICIENT_PERMISSIONS"})
	case errors.Is(err, services.ErrCourtInactive),
		errors.Is(err, services.ErrSlotUnavailable),
		errors.Is(err, services.ErrAlreadyCancelled):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "booking_rejected", Message: err.Error()})
	default:
		log.Printf("ERROR: %s: %v", operation, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to " + operation,
		})
	}
}

// parseIDParam reads a uuid route parameter and answers 400 when malformed
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid " + name + " format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// parseIDQuery reads an optional uuid query parameter
func parseIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid " + name + " format",
		})
		return nil, false
	}
	return &id, true
}

// callerContext returns the identified caller or answers 401
func callerContext(c *gin.Context) (middleware.UserContext, bool) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User context not found",
		})
		return middleware.UserContext{}, false
	}
	return userCtx, true
}

// bindJSON binds the body and answers 400 on failure
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}
