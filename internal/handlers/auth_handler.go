package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/quickcourt/booking-backend/internal/services"
	"github.com/quickcourt/booking-backend/internal/utils"
)

// AuthHandler handles signup, OTP verification and login
type AuthHandler struct {
	auditRecorder
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler. auditService may be nil.
func NewAuthHandler(authService *services.AuthService, auditService *services.AuditService) *AuthHandler {
	return &AuthHandler{
		auditRecorder: auditRecorder{auditService: auditService},
		authService:   authService,
	}
}

// SignupResponse represents the response after a signup code was issued
type SignupResponse struct {
	Message string `json:"message"`
	*services.SignupResult
}

// LoginResponse is the profile returned by a successful login
type LoginResponse struct {
	Message     string       `json:"message"`
	User        *models.User `json:"user"`
	OTPVerified bool         `json:"otp_verified"`
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	result, err := h.authService.Signup(c.Request.Context(), &req, clientIP)
	if err != nil {
		h.auditSignupFailure(req.Email, clientIP, userAgent, err)
		respondError(c, "create signup", err)
		return
	}

	h.safeLogOTPRequest(result.Email, clientIP, userAgent, true, "")

	c.JSON(http.StatusOK, SignupResponse{
		Message:      "OTP sent to your email. Please verify to complete registration.",
		SignupResult: result,
	})
}

// ResendOTP handles POST /api/v1/auth/resend-otp
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req models.ResendOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	result, err := h.authService.ResendOTP(c.Request.Context(), req.Email, clientIP)
	if err != nil {
		h.auditSignupFailure(req.Email, clientIP, userAgent, err)
		respondError(c, "resend OTP", err)
		return
	}

	h.safeLogOTPRequest(result.Email, clientIP, userAgent, true, "resend")

	c.JSON(http.StatusOK, SignupResponse{
		Message:      "A new OTP has been sent to your email",
		SignupResult: result,
	})
}

func (h *AuthHandler) auditSignupFailure(email, clientIP, userAgent string, err error) {
	var rateLimitErr *services.RateLimitError
	switch {
	case errors.As(err, &rateLimitErr):
		h.safeLogRateLimitViolation(email, clientIP, userAgent, rateLimitErr.Type, rateLimitErr.RetryAfter)
	case errors.Is(err, services.ErrEmailDelivery):
		h.safeLogOTPRequest(email, clientIP, userAgent, false, "delivery_failed")
	}
}

// VerifyOTP handles POST /api/v1/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	user, err := h.authService.VerifyOTP(c.Request.Context(), req.Email, req.OTPCode)
	if err != nil {
		h.safeLogOTPVerification(nil, req.Email, false, clientIP, userAgent, err.Error())
		respondError(c, "verify OTP", err)
		return
	}

	h.safeLogOTPVerification(&user.ID, user.Email, true, clientIP, userAgent, "")

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"user_id": user.ID,
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.safeLogLogin(nil, req.Email, clientIP, userAgent, false)
		}
		respondError(c, "log in", err)
		return
	}

	h.safeLogLogin(&user.ID, user.Email, clientIP, userAgent, true)

	c.JSON(http.StatusOK, LoginResponse{
		Message:     "Login successful",
		User:        user,
		OTPVerified: true,
	})
}

// CheckEmailStatus handles GET /api/v1/auth/check-email-status?email=
func (h *AuthHandler) CheckEmailStatus(c *gin.Context) {
	status, err := h.authService.CheckEmailStatus(c.Query("email"))
	if err != nil {
		respondError(c, "check email status", err)
		return
	}
	c.JSON(http.StatusOK, status)
}
