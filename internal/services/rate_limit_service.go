package services

import (
	"fmt"
	"time"

	"github.com/quickcourt/booking-backend/internal/database"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxEmailRequests int           // Max signup codes per email
	EmailWindow      time.Duration // Time window for email rate limit
	MaxIPRequests    int           // Max signup codes per IP
	IPWindow         time.Duration // Time window for IP rate limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxEmailRequests: 3,
		EmailWindow:      10 * time.Minute,
		MaxIPRequests:    10,
		IPWindow:         1 * time.Hour,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "email" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// RateLimitService limits how often signup codes are issued. Every issued
// code is a row in otps_temp, so those rows are the request log.
type RateLimitService struct {
	pending *database.PendingSignupRepository
	config  RateLimitConfig
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(pending *database.PendingSignupRepository, config RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		pending: pending,
		config:  config,
	}
}

// CheckSignupRateLimit checks if an email or IP has exceeded the limits
func (s *RateLimitService) CheckSignupRateLimit(email, ip string) error {
	if email != "" {
		count, lastRequest, err := s.pending.CountRecent("email", email, time.Now().Add(-s.config.EmailWindow))
		if err != nil {
			return fmt.Errorf("failed to check email rate limit: %w", err)
		}

		if count >= s.config.MaxEmailRequests {
			retryAfter := lastRequest.Add(s.config.EmailWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many OTP requests for this email. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "email",
			}
		}
	}

	if ip != "" && s.config.MaxIPRequests > 0 {
		count, lastRequest, err := s.pending.CountRecent("ip_address", ip, time.Now().Add(-s.config.IPWindow))
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}

		if count >= s.config.MaxIPRequests {
			retryAfter := lastRequest.Add(s.config.IPWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many OTP requests from this IP address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}
