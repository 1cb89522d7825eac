package handlers

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/services"
)

// logAuditError is a helper to log audit service errors without failing the request
func logAuditError(operation string, err error) {
	if err != nil {
		log.Printf("AUDIT ERROR [%s]: %v", operation, err)
	}
}

// auditRecorder wraps the audit service for handlers. A nil service turns
// every call into a no-op, which is how ENABLE_AUDIT_LOG=false is honoured.
type auditRecorder struct {
	auditService *services.AuditService
}

func (a auditRecorder) safeLogOTPRequest(email, ipAddress, userAgent string, success bool, reason string) {
	if a.auditService == nil {
		return
	}
	if err := a.auditService.LogOTPRequest(email, ipAddress, userAgent, success, reason); err != nil {
		logAuditError("LogOTPRequest", err)
	}
}

func (a auditRecorder) safeLogOTPVerification(userID *uuid.UUID, email string, success bool, ipAddress, userAgent, failureReason string) {
	if a.auditService == nil {
		return
	}
	if err := a.auditService.LogOTPVerification(userID, email, success, ipAddress, userAgent, failureReason); err != nil {
		logAuditError("LogOTPVerification", err)
	}
}

func (a auditRecorder) safeLogRateLimitViolation(email, ipAddress, userAgent, limitType string, retryAfter time.Time) {
	if a.auditService == nil {
		return
	}
	if err := a.auditService.LogRateLimitViolation(email, ipAddress, userAgent, limitType, retryAfter); err != nil {
		logAuditError("LogRateLimitViolation", err)
	}
}

func (a auditRecorder) safeLogLogin(userID *uuid.UUID, email, ipAddress, userAgent string, success bool) {
	if a.auditService == nil {
		return
	}
	if err := a.auditService.LogLogin(userID, email, ipAddress, userAgent, success); err != nil {
		logAuditError("LogLogin", err)
	}
}

func (a auditRecorder) safeLogPasswordChange(userID uuid.UUID, ipAddress, userAgent string) {
	if a.auditService == nil {
		return
	}
	if err := a.auditService.LogPasswordChange(userID, ipAddress, userAgent); err != nil {
		logAuditError("LogPasswordChange", err)
	}
}

func (a auditRecorder) safeLogFacilityModeration(adminID, facilityID uuid.UUID, status, reason, ipAddress, userAgent string) {
	if a.auditService == nil {
		return
	}
	if err := a.auditService.LogFacilityModeration(adminID, facilityID, status, reason, ipAddress, userAgent); err != nil {
		logAuditError("LogFacilityModeration", err)
	}
}

func (a auditRecorder) safeLogBookingEvent(userID, bookingID uuid.UUID, action, ipAddress, userAgent string, details map[string]interface{}) {
	if a.auditService == nil {
		return
	}
	if err := a.auditService.LogBookingEvent(userID, bookingID, action, ipAddress, userAgent, details); err != nil {
		logAuditError("LogBookingEvent", err)
	}
}
