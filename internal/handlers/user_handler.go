package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/quickcourt/booking-backend/internal/services"
	"github.com/quickcourt/booking-backend/internal/utils"
)

// UserHandler handles profile and user listing requests
type UserHandler struct {
	auditRecorder
	authService    *services.AuthService
	userRepository *database.UserRepository
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *services.AuthService, userRepository *database.UserRepository, auditService *services.AuditService) *UserHandler {
	return &UserHandler{
		auditRecorder:  auditRecorder{auditService: auditService},
		authService:    authService,
		userRepository: userRepository,
	}
}

// GetProfile handles GET /api/v1/users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	user, err := h.userRepository.GetUserByID(userCtx.UserID)
	if err != nil {
		respondError(c, "get profile", err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "user_not_found",
			Message: "User not found",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles POST /api/v1/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(userCtx.UserID, &req)
	if err != nil {
		respondError(c, "update profile", err)
		return
	}

	if req.NewPassword != nil && *req.NewPassword != "" {
		h.safeLogPasswordChange(userCtx.UserID, utils.GetRealIP(c), utils.GetUserAgent(c))
	}

	log.Printf("INFO: Profile updated for user %s", userCtx.UserID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ChangePassword handles POST /api/v1/users/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(userCtx.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, "change password", err)
		return
	}

	h.safeLogPasswordChange(userCtx.UserID, utils.GetRealIP(c), utils.GetUserAgent(c))

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed successfully",
	})
}

// ListUsers handles GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.listByRole(c, models.RoleUser)
}

// ListFacilityOwners handles GET /api/v1/facility-owners
func (h *UserHandler) ListFacilityOwners(c *gin.Context) {
	h.listByRole(c, models.RoleFacilityOwner)
}

func (h *UserHandler) listByRole(c *gin.Context, role models.UserRole) {
	users, err := h.userRepository.ListUsersByRole(role)
	if err != nil {
		respondError(c, "list users", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}
