package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/models"
)

// OTPLength is the length of the OTP code
const OTPLength = 6

var (
	// ErrOTPExpired indicates the OTP has expired
	ErrOTPExpired = fmt.Errorf("OTP has expired")

	// ErrOTPInvalid indicates the OTP is incorrect
	ErrOTPInvalid = fmt.Errorf("invalid OTP code")

	// ErrMaxAttemptsExceeded indicates too many failed validation attempts
	ErrMaxAttemptsExceeded = fmt.Errorf("maximum OTP validation attempts exceeded")

	// ErrNoOTPFound indicates there is no pending signup for the email
	ErrNoOTPFound = fmt.Errorf("no pending signup found for this email")
)

// OTPService issues and checks the codes of pending signups
type OTPService struct {
	pending     *database.PendingSignupRepository
	expiry      time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(pending *database.PendingSignupRepository, expiry time.Duration, maxAttempts int) *OTPService {
	return &OTPService{
		pending:     pending,
		expiry:      expiry,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Expiry returns how long a code stays valid
func (s *OTPService) Expiry() time.Duration {
	return s.expiry
}

// Issue invalidates earlier codes for the email and stores p with a fresh code
func (s *OTPService) Issue(p *models.PendingSignup) (string, error) {
	if err := s.pending.InvalidateAll(p.Email); err != nil {
		return "", fmt.Errorf("failed to invalidate existing OTP: %w", err)
	}

	otp, err := generateRandomOTP()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	p.OTPCode = otp
	p.ExpiresAt = s.now().Add(s.expiry)
	p.Attempts = 0
	p.IsUsed = false

	if err := s.pending.Create(p); err != nil {
		return "", err
	}
	return otp, nil
}

// Verify checks code against the newest unused pending signup of email.
// A wrong code counts as an attempt. A matching row is returned unconsumed;
// UserRepository.CreateFromSignup consumes it together with the account insert.
func (s *OTPService) Verify(email, code string) (*models.PendingSignup, error) {
	p, err := s.pending.GetLatestUnused(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get OTP record: %w", err)
	}
	if p == nil {
		return nil, ErrNoOTPFound
	}

	if s.now().After(p.ExpiresAt) {
		return nil, ErrOTPExpired
	}

	if p.Attempts >= s.maxAttempts {
		return nil, ErrMaxAttemptsExceeded
	}

	if p.OTPCode != code {
		if err := s.pending.IncrementAttempts(p.ID); err != nil {
			return nil, fmt.Errorf("failed to increment attempts: %w", err)
		}
		return nil, ErrOTPInvalid
	}

	return p, nil
}

// CleanupExpiredOTPs deletes pending signups whose code has expired
func (s *OTPService) CleanupExpiredOTPs() (int64, error) {
	return s.pending.DeleteExpired(s.now())
}

// generateRandomOTP returns a zero-padded 6-digit code from crypto/rand
func generateRandomOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}
