package handlers

import (
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/middleware"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/quickcourt/booking-backend/internal/services"
)

// FacilityHandler handles facility listing and management
type FacilityHandler struct {
	facilityService *services.FacilityService
	maxUploadBytes  int64
}

// NewFacilityHandler creates a new facility handler
func NewFacilityHandler(facilityService *services.FacilityService, maxUploadMB int) *FacilityHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &FacilityHandler{
		facilityService: facilityService,
		maxUploadBytes:  int64(maxUploadMB) << 20,
	}
}

// ListFacilities handles GET /api/v1/facilities
func (h *FacilityHandler) ListFacilities(c *gin.Context) {
	facilities, err := h.facilityService.ListActive()
	if err != nil {
		respondError(c, "list facilities", err)
		return
	}
	if facilities == nil {
		facilities = []models.FacilityDetail{}
	}
	c.JSON(http.StatusOK, facilities)
}

// ListMyFacilities handles GET /api/v1/facilities/my
func (h *FacilityHandler) ListMyFacilities(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	facilities, err := h.facilityService.ListByOwner(userCtx.UserID)
	if err != nil {
		respondError(c, "list facilities", err)
		return
	}
	if facilities == nil {
		facilities = []models.FacilityDetail{}
	}
	c.JSON(http.StatusOK, facilities)
}

// GetFacility handles GET /api/v1/facilities/:id
func (h *FacilityHandler) GetFacility(c *gin.Context) {
	facilityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	facility, err := h.facilityService.GetFacility(facilityID)
	if err != nil {
		respondError(c, "get facility", err)
		return
	}
	c.JSON(http.StatusOK, facility)
}

// CreateFacility handles POST /api/v1/facilities. It accepts JSON or
// multipart/form-data with photo files in the "photos" field.
func (h *FacilityHandler) CreateFacility(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	var req models.CreateFacilityRequest
	var uploads []services.Upload

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "Invalid form data: " + err.Error(),
			})
			return
		}
		req.Sports = models.SplitList(c.PostForm("sports"))
		req.Amenities = models.SplitList(c.PostForm("amenities"))

		var files []multipart.File
		defer func() {
			for _, f := range files {
				f.Close()
			}
		}()

		if form := c.Request.MultipartForm; form != nil {
			for _, header := range form.File["photos"] {
				file, err := header.Open()
				if err != nil {
					log.Printf("ERROR: Failed to open uploaded photo %s: %v", header.Filename, err)
					c.JSON(http.StatusBadRequest, ErrorResponse{
						Error:   "upload_error",
						Message: "Failed to read uploaded photo",
					})
					return
				}
				files = append(files, file)
				uploads = append(uploads, services.Upload{
					FileName:    header.Filename,
					ContentType: header.Header.Get("Content-Type"),
					Body:        file,
				})
			}
		}
	} else if !bindJSON(c, &req) {
		return
	}

	facility, err := h.facilityService.CreateFacility(c.Request.Context(), userCtx.UserID, &req, uploads)
	if err != nil {
		respondError(c, "create facility", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Facility submitted for approval",
		"facility_id": facility.ID,
		"facility":    facility,
	})
}

// UpdateFacility handles PUT /api/v1/facilities/:id
// Ownership is enforced by middleware.RequireFacilityOwnership.
func (h *FacilityHandler) UpdateFacility(c *gin.Context) {
	facilityID, ok := facilityFromContext(c)
	if !ok {
		return
	}

	var req models.UpdateFacilityRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.facilityService.UpdateFacility(c.Request.Context(), facilityID, &req); err != nil {
		respondError(c, "update facility", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Facility updated successfully",
	})
}

// DeleteFacility handles DELETE /api/v1/facilities/:id
func (h *FacilityHandler) DeleteFacility(c *gin.Context) {
	facilityID, ok := facilityFromContext(c)
	if !ok {
		return
	}

	if err := h.facilityService.DeleteFacility(facilityID); err != nil {
		respondError(c, "delete facility", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Facility deleted successfully",
	})
}

// ListFacilityCourts handles GET /api/v1/facility-courts?facility_id=
func (h *FacilityHandler) ListFacilityCourts(c *gin.Context) {
	facilityID, err := uuid.Parse(c.Query("facility_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "facility_id query parameter is required",
		})
		return
	}

	courts, err := h.facilityService.ListFacilityCourts(facilityID)
	if err != nil {
		respondError(c, "list facility courts", err)
		return
	}
	if courts == nil {
		courts = []models.FacilityCourtSummary{}
	}
	c.JSON(http.StatusOK, courts)
}

func facilityFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(middleware.FacilityContextKey)
	if !exists {
		return parseIDParam(c, "id")
	}
	facility, ok := value.(*models.Facility)
	if !ok {
		return parseIDParam(c, "id")
	}
	return facility.ID, true
}
