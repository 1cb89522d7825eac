package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/quickcourt/booking-backend/pkg/email"
	"github.com/quickcourt/booking-backend/pkg/validator"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken indicates an account already uses the email
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates a wrong email or password at login
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrIncorrectPassword indicates the current password did not match
	ErrIncorrectPassword = errors.New("current password is incorrect")

	// ErrUserNotFound indicates the caller no longer exists
	ErrUserNotFound = database.ErrUserNotFound

	// ErrEmailDelivery indicates the OTP email could not be sent
	ErrEmailDelivery = errors.New("failed to send verification email")
)

// ValidationError is a client input problem. Handlers answer 400 with Message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// SignupResult describes an issued verification code
type SignupResult struct {
	Email            string `json:"email"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
	DevOTP           string `json:"otp,omitempty"`
}

// EmailStatus is the answer of check-email-status
type EmailStatus struct {
	Exists        bool `json:"exists"`
	Verified      bool `json:"verified"`
	PendingSignup bool `json:"pending_signup"`
}

// AuthService implements signup with email OTP, login and credential changes
type AuthService struct {
	users      *database.UserRepository
	pending    *database.PendingSignupRepository
	otp        *OTPService
	rateLimit  *RateLimitService
	gateway    email.Gateway
	emails     *validator.EmailValidator
	bcryptCost int
	devMode    bool
	logger     logrus.FieldLogger
}

// AuthServiceConfig holds the knobs of AuthService
type AuthServiceConfig struct {
	BcryptCost int
	DevMode    bool // return the OTP in the signup response
}

// NewAuthService creates a new auth service
func NewAuthService(
	users *database.UserRepository,
	pending *database.PendingSignupRepository,
	otp *OTPService,
	rateLimit *RateLimitService,
	gateway email.Gateway,
	config AuthServiceConfig,
	logger logrus.FieldLogger,
) *AuthService {
	cost := config.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		pending:    pending,
		otp:        otp,
		rateLimit:  rateLimit,
		gateway:    gateway,
		emails:     validator.NewEmailValidator(),
		bcryptCost: cost,
		devMode:    config.DevMode,
		logger:     logger,
	}
}

// Signup validates the request, stores a pending signup and emails its code
func (s *AuthService) Signup(ctx context.Context, req *models.SignupRequest, ipAddress string) (*SignupResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	addr, err := s.emails.Validate(req.Email)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	exists, err := s.users.EmailExists(addr)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	if err := s.rateLimit.CheckSignupRateLimit(addr, ipAddress); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	pending := &models.PendingSignup{
		Email:        addr,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hash),
		Role:         models.UserRole(req.Role),
		AvatarURL:    models.NewNullString(req.AvatarURL),
		IPAddress:    models.NewNullString(ipAddress),
	}

	return s.issueAndSend(ctx, pending)
}

// ResendOTP issues a fresh code for the newest pending signup of email
func (s *AuthService) ResendOTP(ctx context.Context, emailAddr, ipAddress string) (*SignupResult, error) {
	addr := s.emails.Sanitize(emailAddr)

	latest, err := s.pending.GetLatestUnused(addr)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, ErrNoOTPFound
	}

	if err := s.rateLimit.CheckSignupRateLimit(addr, ipAddress); err != nil {
		return nil, err
	}

	pending := &models.PendingSignup{
		Email:        latest.Email,
		FullName:     latest.FullName,
		PasswordHash: latest.PasswordHash,
		Role:         latest.Role,
		AvatarURL:    latest.AvatarURL,
		IPAddress:    models.NewNullString(ipAddress),
	}
	return s.issueAndSend(ctx, pending)
}

func (s *AuthService) issueAndSend(ctx context.Context, pending *models.PendingSignup) (*SignupResult, error) {
	code, err := s.otp.Issue(pending)
	if err != nil {
		return nil, err
	}

	minutes := int(s.otp.Expiry().Minutes())
	if err := s.gateway.SendOTP(ctx, pending.Email, pending.FullName, code, minutes); err != nil {
		s.logger.WithError(err).WithField("email", pending.Email).Error("failed to send OTP email")
		return nil, ErrEmailDelivery
	}

	result := &SignupResult{Email: pending.Email, ExpiresInMinutes: minutes}
	if s.devMode {
		result.DevOTP = code
	}
	return result, nil
}

// VerifyOTP checks the code, then consumes it and materialises the account
// in one transaction
func (s *AuthService) VerifyOTP(ctx context.Context, emailAddr, code string) (*models.User, error) {
	addr := s.emails.Sanitize(emailAddr)
	code = strings.TrimSpace(code)
	if addr == "" || code == "" {
		return nil, invalid("email and otp are required")
	}

	pending, err := s.otp.Verify(addr, code)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateFromSignup(ctx, pending)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicate):
			return nil, ErrEmailTaken
		case errors.Is(err, database.ErrSignupConsumed):
			return nil, ErrNoOTPFound
		}
		return nil, err
	}

	return user, nil
}

// Login checks the password against the stored bcrypt hash
func (s *AuthService) Login(emailAddr, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(s.emails.Sanitize(emailAddr))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CheckEmailStatus reports whether email has an account or a pending signup
func (s *AuthService) CheckEmailStatus(emailAddr string) (*EmailStatus, error) {
	addr := s.emails.Sanitize(emailAddr)
	if addr == "" {
		return nil, invalid("email is required")
	}

	exists, err := s.users.EmailExists(addr)
	if err != nil {
		return nil, err
	}

	pending, err := s.pending.GetLatestUnused(addr)
	if err != nil {
		return nil, err
	}

	return &EmailStatus{
		Exists:        exists,
		Verified:      exists,
		PendingSignup: pending != nil,
	}, nil
}

// ChangePassword replaces the password after checking the current one
func (s *AuthService) ChangePassword(userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := s.hashNewPassword(user, currentPassword, newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(userID, hash)
}

// hashNewPassword checks the current password and the policy, then hashes
// the new one
func (s *AuthService) hashNewPassword(user *models.User, currentPassword, newPassword string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return "", ErrIncorrectPassword
	}
	if err := validator.ValidatePassword(newPassword); err != nil {
		return "", &ValidationError{Message: err.Error()}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// UpdateProfile applies name, email and avatar changes and an optional
// password change in a single write
func (s *AuthService) UpdateProfile(userID uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	fullName := user.FullName
	if req.FullName != nil {
		fullName = strings.TrimSpace(*req.FullName)
		if fullName == "" {
			return nil, invalid("full_name cannot be empty")
		}
	}

	addr := user.Email
	if req.Email != nil {
		addr, err = s.emails.Validate(*req.Email)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
	}

	avatar := user.AvatarURL.String
	if req.AvatarURL != nil {
		avatar = strings.TrimSpace(*req.AvatarURL)
	}

	passwordHash := ""
	if req.NewPassword != nil && *req.NewPassword != "" {
		if req.CurrentPassword == "" {
			return nil, invalid("current_password is required to change the password")
		}
		passwordHash, err = s.hashNewPassword(user, req.CurrentPassword, *req.NewPassword)
		if err != nil {
			return nil, err
		}
	}

	if err := s.users.UpdateProfile(userID, fullName, addr, avatar, passwordHash); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.users.GetUserByID(userID)
}
