package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/quickcourt/booking-backend/internal/services"
)

// ReviewHandler handles facility reviews
type ReviewHandler struct {
	reviewService *services.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// CreateReview handles POST /api/v1/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	var req models.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.CreateReview(userCtx.UserID, &req)
	if err != nil {
		respondError(c, "create review", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review submitted successfully",
		"review":  review,
	})
}

// ListFacilityReviews handles GET /api/v1/reviews/facility/:id
func (h *ReviewHandler) ListFacilityReviews(c *gin.Context) {
	facilityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reviews, err := h.reviewService.ListReviews(facilityID)
	if err != nil {
		respondError(c, "list reviews", err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	c.JSON(http.StatusOK, reviews)
}

// GetFacilityReviewStats handles GET /api/v1/reviews/facility/:id/stats
func (h *ReviewHandler) GetFacilityReviewStats(c *gin.Context) {
	facilityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.reviewService.Stats(facilityID)
	if err != nil {
		respondError(c, "load review statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CanReview handles GET /api/v1/reviews/can-review/:id
func (h *ReviewHandler) CanReview(c *gin.Context) {
	userCtx, ok := callerContext(c)
	if !ok {
		return
	}

	facilityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	allowed, err := h.reviewService.CanReview(userCtx.UserID, facilityID)
	if err != nil {
		respondError(c, "check review eligibility", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"can_review": allowed})
}
