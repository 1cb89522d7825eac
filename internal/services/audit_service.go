package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/utils"
)

// AuditService records security and moderation events
type AuditService struct {
	repo *database.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(repo *database.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// LogOTPRequest logs an OTP issue for signup or resend
func (s *AuditService) LogOTPRequest(email, ipAddress, userAgent string, success bool, reason string) error {
	details := map[string]interface{}{
		"email":       email,
		"success":     success,
		"device_info": utils.ParseUserAgent(userAgent),
	}
	if reason != "" {
		details["reason"] = reason
	}

	return s.repo.Insert(database.AuditEntry{
		Action:     "otp_request",
		EntityType: "otp",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogOTPVerification logs an OTP verification attempt
func (s *AuditService) LogOTPVerification(userID *uuid.UUID, email string, success bool, ipAddress, userAgent, failureReason string) error {
	details := map[string]interface{}{
		"email":       email,
		"success":     success,
		"device_info": utils.ParseUserAgent(userAgent),
	}
	if !success && failureReason != "" {
		details["failure_reason"] = failureReason
	}

	action := "otp_verify_failed"
	if success {
		action = "otp_verify_success"
	}

	return s.repo.Insert(database.AuditEntry{
		UserID:     userID,
		Action:     action,
		EntityType: "otp",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogRateLimitViolation logs a rejected signup or resend
func (s *AuditService) LogRateLimitViolation(email, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	return s.repo.Insert(database.AuditEntry{
		Action:     "rate_limit_violation",
		EntityType: "rate_limit",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"email":       email,
			"limit_type":  limitType,
			"retry_after": retryAfter,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogLogin logs a login attempt; userID is nil when the credentials were wrong
func (s *AuditService) LogLogin(userID *uuid.UUID, email, ipAddress, userAgent string, success bool) error {
	action := "login_failed"
	if success {
		action = "login"
	}

	return s.repo.Insert(database.AuditEntry{
		UserID:     userID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"email":       email,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogPasswordChange logs a password change
func (s *AuditService) LogPasswordChange(userID uuid.UUID, ipAddress, userAgent string) error {
	return s.repo.Insert(database.AuditEntry{
		UserID:     &userID,
		Action:     "password_change",
		EntityType: "user",
		EntityID:   &userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogFacilityModeration logs an admin approve or reject decision
func (s *AuditService) LogFacilityModeration(adminID, facilityID uuid.UUID, status, reason, ipAddress, userAgent string) error {
	details := map[string]interface{}{
		"status": status,
	}
	if reason != "" {
		details["reason"] = reason
	}

	return s.repo.Insert(database.AuditEntry{
		UserID:     &adminID,
		Action:     "facility_" + status,
		EntityType: "facility",
		EntityID:   &facilityID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogBookingEvent logs a booking create, cancel or status change
func (s *AuditService) LogBookingEvent(userID, bookingID uuid.UUID, action, ipAddress, userAgent string, details map[string]interface{}) error {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["device_info"] = utils.ParseUserAgent(userAgent)

	return s.repo.Insert(database.AuditEntry{
		UserID:     &userID,
		Action:     action,
		EntityType: "booking",
		EntityID:   &bookingID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(olderThan time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(time.Now().Add(-olderThan))
}
