package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the payment status of a booking
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid reports whether s is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// IsValid reports whether s is a known booking status
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// DateLayout is the wire and storage format of booking dates
const DateLayout = "2006-01-02"

// Booking is a reservation of one court for a time window on a date
type Booking struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	UserID        uuid.UUID     `json:"user_id" db:"user_id"`
	CourtID       uuid.UUID     `json:"court_id" db:"court_id"`
	FacilityID    uuid.UUID     `json:"facility_id" db:"facility_id"`
	BookingDate   string        `json:"booking_date" db:"booking_date"`
	StartTime     string        `json:"start_time" db:"start_time"`
	EndTime       string        `json:"end_time" db:"end_time"`
	Duration      int           `json:"duration" db:"duration"`
	TotalAmount   float64       `json:"total_amount" db:"total_amount"`
	PaymentMethod string        `json:"payment_method" db:"payment_method"`
	Status        BookingStatus `json:"status" db:"status"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// BookingWithVenue is a booking joined with its court and facility
type BookingWithVenue struct {
	Booking
	CourtName        string `json:"court_name" db:"court_name"`
	SportType        string `json:"sport_type" db:"sport_type"`
	FacilityName     string `json:"facility_name" db:"facility_name"`
	FacilityLocation string `json:"facility_location" db:"facility_location"`
}

// ConflictingBooking is the public view of a booking that blocks a request
type ConflictingBooking struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StartTime string    `json:"start_time" db:"start_time"`
	EndTime   string    `json:"end_time" db:"end_time"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	CourtID       uuid.UUID `json:"court_id" binding:"required"`
	BookingDate   string    `json:"booking_date" binding:"required"`
	StartTime     string    `json:"start_time" binding:"required"`
	EndTime       string    `json:"end_time" binding:"required"`
	Duration      int       `json:"duration" binding:"required"`
	TotalAmount   float64   `json:"total_amount" binding:"required"`
	PaymentMethod string    `json:"payment_method" binding:"required"`
	Status        string    `json:"status" binding:"required"`
	PaymentStatus string    `json:"payment_status"`

	// UserID is filled from the caller, never from the body
	UserID uuid.UUID `json:"-"`
}

// Validate validates the create booking request
func (r *CreateBookingRequest) Validate() error {
	if _, err := time.Parse(DateLayout, r.BookingDate); err != nil {
		return fmt.Errorf("booking_date must be YYYY-MM-DD, got %q", r.BookingDate)
	}
	if err := ValidateWindow(r.StartTime, r.EndTime); err != nil {
		return err
	}
	if r.Duration <= 0 {
		return errors.New("duration must be positive")
	}
	if r.TotalAmount < 0 {
		return errors.New("total_amount cannot be negative")
	}
	status := BookingStatus(r.Status)
	if !status.IsValid() || status == BookingStatusCancelled || status == BookingStatusCompleted {
		return errors.New("status must be pending or confirmed")
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = string(PaymentStatusPending)
	}
	if !PaymentStatus(r.PaymentStatus).IsValid() {
		return fmt.Errorf("invalid payment_status: %s", r.PaymentStatus)
	}
	return nil
}

// CheckConflictRequest is the body of POST /bookings/check-conflict
type CheckConflictRequest struct {
	CourtID     uuid.UUID `json:"court_id" binding:"required"`
	BookingDate string    `json:"booking_date" binding:"required"`
	StartTime   string    `json:"start_time" binding:"required"`
	EndTime     string    `json:"end_time" binding:"required"`
}

// Validate checks the date and time window
func (r *CheckConflictRequest) Validate() error {
	if _, err := time.Parse(DateLayout, r.BookingDate); err != nil {
		return fmt.Errorf("booking_date must be YYYY-MM-DD, got %q", r.BookingDate)
	}
	return ValidateWindow(r.StartTime, r.EndTime)
}

// UpdateBookingRequest updates status and/or payment status
type UpdateBookingRequest struct {
	Status        *string `json:"status,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty"`
}

// Validate checks the provided statuses
func (r *UpdateBookingRequest) Validate() error {
	if r.Status == nil && r.PaymentStatus == nil {
		return errors.New("status or payment_status is required")
	}
	if r.Status != nil && !BookingStatus(*r.Status).IsValid() {
		return fmt.Errorf("invalid status: %s", *r.Status)
	}
	if r.PaymentStatus != nil && !PaymentStatus(*r.PaymentStatus).IsValid() {
		return fmt.Errorf("invalid payment_status: %s", *r.PaymentStatus)
	}
	return nil
}

// FacilityBookingStats summarises the bookings of one facility
type FacilityBookingStats struct {
	Total     int     `json:"total" db:"total"`
	Upcoming  int     `json:"upcoming" db:"upcoming"`
	Completed int     `json:"completed" db:"completed"`
	Cancelled int     `json:"cancelled" db:"cancelled"`
	Revenue   float64 `json:"revenue" db:"revenue"`
}
