package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/quickcourt/booking-backend/internal/services"
	"github.com/quickcourt/booking-backend/internal/utils"
)

// AdminHandler handles admin-related HTTP requests
type AdminHandler struct {
	auditRecorder
	statsRepo       *database.StatsRepository
	userRepo        *database.UserRepository
	facilityService *services.FacilityService
	cronService     *services.CronService
}

// NewAdminHandler creates a new admin handler. cronService is nil when the
// scheduler is disabled.
func NewAdminHandler(
	statsRepo *database.StatsRepository,
	userRepo *database.UserRepository,
	facilityService *services.FacilityService,
	cronService *services.CronService,
	auditService *services.AuditService,
) *AdminHandler {
	return &AdminHandler{
		auditRecorder:   auditRecorder{auditService: auditService},
		statsRepo:       statsRepo,
		userRepo:        userRepo,
		facilityService: facilityService,
		cronService:     cronService,
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	kpis, err := h.statsRepo.KPIs()
	if err != nil {
		respondError(c, "load dashboard statistics", err)
		return
	}

	registrations, err := h.statsRepo.MonthlyRegistrations()
	if err != nil {
		respondError(c, "load dashboard statistics", err)
		return
	}

	bookings, err := h.statsRepo.MonthlyBookings()
	if err != nil {
		respondError(c, "load dashboard statistics", err)
		return
	}

	sports, err := h.statsRepo.MostActiveSports()
	if err != nil {
		respondError(c, "load dashboard statistics", err)
		return
	}

	stats := models.AdminStats{
		KPIData:              *kpis,
		MonthlyRegistrations: registrations,
		MonthlyBookings:      bookings,
		MostActiveSports:     sports,
	}
	if stats.MonthlyRegistrations == nil {
		stats.MonthlyRegistrations = []models.MonthlyCount{}
	}
	if stats.MonthlyBookings == nil {
		stats.MonthlyBookings = []models.MonthlyCount{}
	}
	if stats.MostActiveSports == nil {
		stats.MostActiveSports = []models.SportActivity{}
	}

	c.JSON(http.StatusOK, stats)
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.ListUsersWithActivity()
	if err != nil {
		respondError(c, "list users", err)
		return
	}
	if users == nil {
		users = []models.UserWithActivity{}
	}
	c.JSON(http.StatusOK, users)
}

// ListFacilities handles GET /api/v1/admin/facilities
func (h *AdminHandler) ListFacilities(c *gin.Context) {
	facilities, err := h.facilityService.ListAll()
	if err != nil {
		respondError(c, "list facilities", err)
		return
	}
	if facilities == nil {
		facilities = []models.FacilityDetail{}
	}
	c.JSON(http.StatusOK, facilities)
}

// ApproveFacility handles POST /api/v1/admin/facilities/:id/approve
func (h *AdminHandler) ApproveFacility(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	facilityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.ApproveFacilityRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.facilityService.Moderate(facilityID, req.Action, req.Comments)
	if err != nil {
		respondError(c, "update facility status", err)
		return
	}

	h.safeLogFacilityModeration(userCtx.UserID, facilityID, string(status), req.Comments, utils.GetRealIP(c), utils.GetUserAgent(c))

	c.JSON(http.StatusOK, gin.H{
		"message":     "Facility status updated",
		"facility_id": facilityID,
		"status":      status,
	})
}

// GetCronStatus handles GET /api/v1/admin/cron
func (h *AdminHandler) GetCronStatus(c *gin.Context) {
	if h.cronService == nil {
		c.JSON(http.StatusOK, gin.H{
			"running": false,
			"jobs":    []interface{}{},
		})
		return
	}
	c.JSON(http.StatusOK, h.cronService.GetJobStatus())
}
