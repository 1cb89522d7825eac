package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FacilityStatus represents the approval lifecycle of a facility
type FacilityStatus string

const (
	FacilityStatusPending  FacilityStatus = "pending"
	FacilityStatusActive   FacilityStatus = "active"
	FacilityStatusInactive FacilityStatus = "inactive"
	FacilityStatusRejected FacilityStatus = "rejected"
)

// Facility is a venue containing one or more courts
type Facility struct {
	ID                     uuid.UUID      `json:"id" db:"id"`
	OwnerID                uuid.UUID      `json:"owner_id" db:"owner_id"`
	Name                   string         `json:"name" db:"name"`
	Description            string         `json:"description" db:"description"`
	Location               string         `json:"location" db:"location"`
	City                   string         `json:"city" db:"city"`
	Phone                  string         `json:"phone" db:"phone"`
	Email                  string         `json:"email" db:"email"`
	Website                string         `json:"website" db:"website"`
	OperatingHoursWeekdays string         `json:"operating_hours_weekdays" db:"operating_hours_weekdays"`
	OperatingHoursWeekends string         `json:"operating_hours_weekends" db:"operating_hours_weekends"`
	Status                 FacilityStatus `json:"status" db:"status"`
	RejectionReason        NullString     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt              time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at" db:"updated_at"`
}

// FacilityPhoto is a picture attached to a facility
type FacilityPhoto struct {
	ID            uuid.UUID  `json:"-" db:"id"`
	FacilityID    uuid.UUID  `json:"-" db:"facility_id"`
	URL           string     `json:"url" db:"photo_url"`
	Caption       string     `json:"caption" db:"caption"`
	IsPrimary     bool       `json:"is_primary" db:"is_primary"`
	FileStorageID *uuid.UUID `json:"-" db:"file_storage_id"`
}

// FacilityCourtSummary is one "sport: N courts" row of a facility
type FacilityCourtSummary struct {
	ID         uuid.UUID `json:"id" db:"id"`
	FacilityID uuid.UUID `json:"facility_id" db:"facility_id"`
	SportType  string    `json:"sport_type" db:"sport_type"`
	CourtCount int       `json:"court_count" db:"court_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ReviewSummary is the aggregate rating of a facility
type ReviewSummary struct {
	AverageRating float64 `json:"average_rating" db:"average_rating"`
	TotalReviews  int     `json:"total_reviews" db:"total_reviews"`
}

// FacilityDetail is a facility with everything the listing pages render
type FacilityDetail struct {
	Facility
	OwnerName  string          `json:"owner_name" db:"owner_name"`
	OwnerEmail string          `json:"owner_email" db:"owner_email"`
	Reviews    ReviewSummary   `json:"reviews"`
	Sports     []string        `json:"sports"`
	Amenities  []string        `json:"amenities"`
	Photos     []FacilityPhoto `json:"photos"`
	Courts     []Court         `json:"courts,omitempty"`
}

// StoredFile describes an upload persisted by the storage backend
type StoredFile struct {
	ID          uuid.UUID `json:"id" db:"id"`
	FileName    string    `json:"file_name" db:"file_name"`
	FilePath    string    `json:"file_path" db:"file_path"`
	URL         string    `json:"url" db:"url"`
	ContentType string    `json:"content_type" db:"file_type"`
	Size        int64     `json:"file_size" db:"file_size"`
	UploadedBy  uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewPhoto is a photo to attach to a facility. File is nil for photos given
// by URL only.
type NewPhoto struct {
	URL  string
	File *StoredFile
}

// SportCourtCount is a parsed "Sport:N" entry
type SportCourtCount struct {
	SportType string
	Count     int
}

// ParseSportCourts parses "Tennis:2,Badminton:3". Entries without a colon or
// with a non-positive count are skipped.
func ParseSportCourts(raw string) []SportCourtCount {
	var result []SportCourtCount
	for _, entry := range strings.Split(raw, ",") {
		sport, countStr, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		sport = strings.TrimSpace(sport)
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil || count <= 0 || sport == "" {
			continue
		}
		result = append(result, SportCourtCount{SportType: sport, Count: count})
	}
	return result
}

// CreateFacilityRequest carries a new facility from JSON or multipart input
type CreateFacilityRequest struct {
	Name                   string   `json:"name" form:"name"`
	Description            string   `json:"description" form:"description"`
	Location               string   `json:"location" form:"location"`
	City                   string   `json:"city" form:"city"`
	Phone                  string   `json:"phone" form:"phone"`
	Email                  string   `json:"email" form:"email"`
	Website                string   `json:"website" form:"website"`
	OperatingHoursWeekdays string   `json:"operating_hours_weekdays" form:"operating_hours_weekdays"`
	OperatingHoursWeekends string   `json:"operating_hours_weekends" form:"operating_hours_weekends"`
	Sports                 []string `json:"sports"`
	Amenities              []string `json:"amenities"`
	SportCourts            string   `json:"sportCourts" form:"sportCourts"`
	Photos                 []string `json:"photos"`
}

// Validate checks the required fields and the city whitelist
func (r *CreateFacilityRequest) Validate(allowedCities []string) error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Location) == "" {
		return errors.New("location is required")
	}
	if strings.TrimSpace(r.City) == "" {
		return errors.New("city is required")
	}
	return ValidateCity(r.City, allowedCities)
}

// ValidateCity checks city against the whitelist
func ValidateCity(city string, allowedCities []string) error {
	for _, allowed := range allowedCities {
		if allowed == city {
			return nil
		}
	}
	return fmt.Errorf("invalid city. Must be one of: %s", strings.Join(allowedCities, ", "))
}

// UpdateFacilityRequest is a partial facility update. Nil slices leave the
// related rows untouched; non-nil slices replace them.
type UpdateFacilityRequest struct {
	Name                   *string  `json:"name,omitempty"`
	Description            *string  `json:"description,omitempty"`
	Location               *string  `json:"location,omitempty"`
	City                   *string  `json:"city,omitempty"`
	Phone                  *string  `json:"phone,omitempty"`
	Email                  *string  `json:"email,omitempty"`
	Website                *string  `json:"website,omitempty"`
	OperatingHoursWeekdays *string  `json:"operating_hours_weekdays,omitempty"`
	OperatingHoursWeekends *string  `json:"operating_hours_weekends,omitempty"`
	Sports                 []string `json:"sports,omitempty"`
	Amenities              []string `json:"amenities,omitempty"`
	Photos                 []string `json:"photos,omitempty"`
}

// ApproveFacilityRequest is the admin decision on a pending facility
type ApproveFacilityRequest struct {
	Action   string `json:"action" binding:"required"`
	Comments string `json:"comments"`
}

// SplitList splits a comma-separated form value into trimmed, non-empty items
func SplitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
