package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/quickcourt/booking-backend/pkg/storage"
	"github.com/sirupsen/logrus"
)

// ErrFacilityNotFound is returned for unknown facility ids
var ErrFacilityNotFound = database.ErrFacilityNotFound

// Upload is one photo file from a multipart request
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// FacilityConfig holds the defaults applied to new facilities
type FacilityConfig struct {
	AllowedCities     []string
	DefaultHourlyRate float64
}

// FacilityService manages facilities and their photos
type FacilityService struct {
	repo   *database.FacilityRepository
	store  storage.Store
	config FacilityConfig
	logger logrus.FieldLogger
}

// NewFacilityService creates a new facility service
func NewFacilityService(repo *database.FacilityRepository, store storage.Store, config FacilityConfig, logger logrus.FieldLogger) *FacilityService {
	return &FacilityService{
		repo:   repo,
		store:  store,
		config: config,
		logger: logger.WithField("component", "facility"),
	}
}

// CreateFacility stores the uploads and then writes the facility. When the
// database write fails the stored files are removed again.
func (s *FacilityService) CreateFacility(ctx context.Context, ownerID uuid.UUID, req *models.CreateFacilityRequest, uploads []Upload) (*models.Facility, error) {
	if err := req.Validate(s.config.AllowedCities); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	for _, u := range uploads {
		if !storage.AllowedExtension(u.FileName) {
			return nil, &ValidationError{Message: storage.ErrUnsupportedType.Error()}
		}
	}

	photos := make([]models.NewPhoto, 0, len(req.Photos)+len(uploads))
	stored := make([]*storage.Object, 0, len(uploads))

	for _, u := range uploads {
		obj, err := s.store.Save(ctx, u.FileName, u.ContentType, u.Body)
		if err != nil {
			s.removeObjects(ctx, stored)
			if errors.Is(err, storage.ErrUnsupportedType) {
				return nil, &ValidationError{Message: err.Error()}
			}
			return nil, fmt.Errorf("failed to store photo %s: %w", u.FileName, err)
		}
		stored = append(stored, obj)
		photos = append(photos, models.NewPhoto{
			URL: obj.URL,
			File: &models.StoredFile{
				FileName:    obj.Name,
				FilePath:    obj.Path,
				URL:         obj.URL,
				ContentType: obj.ContentType,
				Size:        obj.Size,
				UploadedBy:  ownerID,
			},
		})
	}
	for _, url := range req.Photos {
		if url = strings.TrimSpace(url); url != "" {
			photos = append(photos, models.NewPhoto{URL: url})
		}
	}

	facility, err := s.repo.CreateFacility(ctx, ownerID, req, photos, s.config.DefaultHourlyRate)
	if err != nil {
		s.removeObjects(ctx, stored)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"facility_id": facility.ID,
		"owner_id":    ownerID,
		"photos":      len(photos),
	}).Info("Facility created")
	return facility, nil
}

func (s *FacilityService) removeObjects(ctx context.Context, objects []*storage.Object) {
	for _, obj := range objects {
		if err := s.store.Delete(ctx, obj.Path); err != nil {
			s.logger.WithError(err).WithField("path", obj.Path).Warn("failed to remove stored photo")
		}
	}
}

// GetFacility returns a facility with its courts
func (s *FacilityService) GetFacility(id uuid.UUID) (*models.FacilityDetail, error) {
	detail, err := s.repo.GetFacilityDetail(id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, ErrFacilityNotFound
	}
	return detail, nil
}

// ListActive returns the facilities visible to players
func (s *FacilityService) ListActive() ([]models.FacilityDetail, error) {
	return s.repo.ListActiveFacilities()
}

// ListByOwner returns the facilities of an owner in every status
func (s *FacilityService) ListByOwner(ownerID uuid.UUID) ([]models.FacilityDetail, error) {
	return s.repo.ListFacilitiesByOwner(ownerID)
}

// ListAll returns every facility for moderation
func (s *FacilityService) ListAll() ([]models.FacilityDetail, error) {
	return s.repo.ListAllFacilities()
}

// ListFacilityCourts returns the sport/court-count rows of a facility
func (s *FacilityService) ListFacilityCourts(facilityID uuid.UUID) ([]models.FacilityCourtSummary, error) {
	return s.repo.ListFacilityCourts(facilityID)
}

// UpdateFacility applies a partial update and deletes photos that were
// dropped from the facility
func (s *FacilityService) UpdateFacility(ctx context.Context, id uuid.UUID, req *models.UpdateFacilityRequest) error {
	if req.City != nil {
		if err := models.ValidateCity(*req.City, s.config.AllowedCities); err != nil {
			return &ValidationError{Message: err.Error()}
		}
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return invalid("name cannot be empty")
	}

	detached, err := s.repo.UpdateFacility(ctx, id, req)
	if err != nil {
		return err
	}

	for _, f := range detached {
		if err := s.store.Delete(ctx, f.FilePath); err != nil {
			s.logger.WithError(err).WithField("path", f.FilePath).Warn("failed to remove replaced photo")
		}
	}
	return nil
}

// DeleteFacility hides a facility
func (s *FacilityService) DeleteFacility(id uuid.UUID) error {
	return s.repo.SoftDelete(id)
}

// Moderate applies an admin decision: approve makes the facility active,
// reject stores comments as the rejection reason
func (s *FacilityService) Moderate(id uuid.UUID, action, comments string) (models.FacilityStatus, error) {
	var status models.FacilityStatus
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "approve":
		status = models.FacilityStatusActive
		comments = ""
	case "reject":
		status = models.FacilityStatusRejected
	default:
		return "", invalid("action must be approve or reject")
	}

	if err := s.repo.SetStatus(id, status, comments); err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{"facility_id": id, "status": status}).Info("Facility moderated")
	return status, nil
}

// IsOwner reports whether userID owns the facility
func (s *FacilityService) IsOwner(facilityID, userID uuid.UUID) (bool, error) {
	facility, err := s.repo.GetFacilityByID(facilityID)
	if err != nil {
		return false, err
	}
	if facility == nil {
		return false, ErrFacilityNotFound
	}
	return facility.OwnerID == userID, nil
}
