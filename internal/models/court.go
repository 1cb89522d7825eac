package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// CourtStatus represents whether a court accepts bookings
type CourtStatus string

const (
	CourtStatusActive      CourtStatus = "active"
	CourtStatusMaintenance CourtStatus = "maintenance"
	CourtStatusInactive    CourtStatus = "inactive"
)

// IsValid reports whether s is a known court status
func (s CourtStatus) IsValid() bool {
	switch s {
	case CourtStatusActive, CourtStatusMaintenance, CourtStatusInactive:
		return true
	}
	return false
}

// Court is a bookable playing area inside a facility
type Court struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	FacilityID  uuid.UUID   `json:"facility_id" db:"facility_id"`
	Name        string      `json:"name" db:"name"`
	SportType   string      `json:"sport_type" db:"sport_type"`
	SurfaceType NullString  `json:"surface_type" db:"surface_type"`
	CourtNumber *int        `json:"court_number" db:"court_number"`
	HourlyRate  *float64    `json:"hourly_rate" db:"hourly_rate"`
	Status      CourtStatus `json:"status" db:"status"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// CreateCourtRequest is the body of POST /courts
type CreateCourtRequest struct {
	FacilityID  uuid.UUID `json:"facility_id" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	SportType   string    `json:"sport_type" binding:"required"`
	SurfaceType string    `json:"surface_type"`
	CourtNumber *int      `json:"court_number"`
	HourlyRate  *float64  `json:"hourly_rate"`
	Status      string    `json:"status"`
}

// Validate applies defaults and checks ranges
func (r *CreateCourtRequest) Validate() error {
	if r.Status == "" {
		r.Status = string(CourtStatusActive)
	}
	if !CourtStatus(r.Status).IsValid() {
		return fmt.Errorf("invalid court status: %s", r.Status)
	}
	if r.HourlyRate != nil && *r.HourlyRate < 0 {
		return errors.New("hourly_rate cannot be negative")
	}
	return nil
}

// UpdateCourtRequest is a partial court update
type UpdateCourtRequest struct {
	Name        *string  `json:"name,omitempty"`
	SportType   *string  `json:"sport_type,omitempty"`
	SurfaceType *string  `json:"surface_type,omitempty"`
	CourtNumber *int     `json:"court_number,omitempty"`
	HourlyRate  *float64 `json:"hourly_rate,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

// Validate checks the fields that were provided
func (r *UpdateCourtRequest) Validate() error {
	if r.Status != nil && !CourtStatus(*r.Status).IsValid() {
		return fmt.Errorf("invalid court status: %s", *r.Status)
	}
	if r.HourlyRate != nil && *r.HourlyRate < 0 {
		return errors.New("hourly_rate cannot be negative")
	}
	return nil
}

// clockRegex matches a zero-padded 24h HH:MM value
var clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// IsClock reports whether s is a zero-padded HH:MM time of day
func IsClock(s string) bool {
	return clockRegex.MatchString(s)
}

// TimeSlot is a recurring weekly availability window of a court
type TimeSlot struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CourtID     uuid.UUID  `json:"court_id" db:"court_id"`
	DayOfWeek   int        `json:"day_of_week" db:"day_of_week"`
	StartTime   string     `json:"start_time" db:"start_time"`
	EndTime     string     `json:"end_time" db:"end_time"`
	IsAvailable bool       `json:"is_available" db:"is_available"`
	Reason      NullString `json:"reason,omitempty" db:"reason"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// CreateTimeSlotRequest is the body of POST /time-slots
type CreateTimeSlotRequest struct {
	CourtID     uuid.UUID `json:"court_id" binding:"required"`
	DayOfWeek   *int      `json:"day_of_week" binding:"required"`
	StartTime   string    `json:"start_time" binding:"required"`
	EndTime     string    `json:"end_time" binding:"required"`
	IsAvailable *bool     `json:"is_available"`
	Reason      string    `json:"reason"`
}

// Validate checks the weekday and the time window
func (r *CreateTimeSlotRequest) Validate() error {
	if r.DayOfWeek == nil || *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
		return errors.New("day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	}
	return ValidateWindow(r.StartTime, r.EndTime)
}

// UpdateTimeSlotRequest is a partial time slot update
type UpdateTimeSlotRequest struct {
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	IsAvailable *bool   `json:"is_available,omitempty"`
	Reason      *string `json:"reason,omitempty"`
}

// BulkUpdateTimeSlotsRequest blocks or unblocks every slot of a court and
// weekday inside [start_time, end_time]
type BulkUpdateTimeSlotsRequest struct {
	CourtID     uuid.UUID `json:"court_id" binding:"required"`
	DayOfWeek   *int      `json:"day_of_week" binding:"required"`
	StartTime   string    `json:"start_time" binding:"required"`
	EndTime     string    `json:"end_time" binding:"required"`
	IsAvailable *bool     `json:"is_available" binding:"required"`
	Reason      string    `json:"reason"`
}

// Validate checks the weekday and the time window
func (r *BulkUpdateTimeSlotsRequest) Validate() error {
	if r.DayOfWeek == nil || *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
		return errors.New("day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	}
	return ValidateWindow(r.StartTime, r.EndTime)
}

// ValidateWindow checks that start and end are HH:MM and start < end
func ValidateWindow(start, end string) error {
	if !IsClock(start) {
		return fmt.Errorf("start_time must be HH:MM, got %q", start)
	}
	if !IsClock(end) {
		return fmt.Errorf("end_time must be HH:MM, got %q", end)
	}
	// Zero-padded HH:MM compares correctly as a string
	if start >= end {
		return errors.New("start_time must be before end_time")
	}
	return nil
}
