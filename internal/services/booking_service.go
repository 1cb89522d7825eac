package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/database"
	"github.com/quickcourt/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// Booking ledger errors, re-exported for handlers
var (
	ErrCourtNotFound    = database.ErrCourtNotFound
	ErrCourtInactive    = database.ErrCourtInactive
	ErrBookingConflict  = database.ErrBookingConflict
	ErrSlotUnavailable  = database.ErrSlotUnavailable
	ErrBookingNotFound  = database.ErrBookingNotFound
	ErrAlreadyCancelled = database.ErrAlreadyCancelled

	// ErrNotBookingParty indicates the caller may not change the booking
	ErrNotBookingParty = errors.New("not allowed to modify this booking")
)

// DayOfWeek returns the weekday of a YYYY-MM-DD date with Sunday = 0
func DayOfWeek(date string) (int, error) {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return int(t.Weekday()), nil
}

// Overlaps reports whether the half-open windows [aStart, aEnd) and
// [bStart, bEnd) intersect. HH:MM strings compare correctly as text.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

// ConflictResult is the outcome of a read-only conflict check
type ConflictResult struct {
	HasConflict bool                        `json:"has_conflict"`
	Conflicts   []models.ConflictingBooking `json:"conflicts,omitempty"`
}

// BookingService owns the booking ledger rules
type BookingService struct {
	bookings   *database.BookingRepository
	facilities *database.FacilityRepository
	logger     logrus.FieldLogger
	now        func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(bookings *database.BookingRepository, facilities *database.FacilityRepository, logger logrus.FieldLogger) *BookingService {
	return &BookingService{
		bookings:   bookings,
		facilities: facilities,
		logger:     logger.WithField("component", "booking"),
		now:        time.Now,
	}
}

// CreateBooking validates req and books it in one serializable transaction.
// A conflict is returned as *database.BookingConflictError.
func (s *BookingService) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	dayOfWeek, err := DayOfWeek(req.BookingDate)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	booking, err := s.bookings.CreateWithConflictCheck(ctx, req, dayOfWeek)
	if err != nil {
		if database.IsConflict(err) {
			s.logger.WithFields(logrus.Fields{
				"court_id": req.CourtID,
				"date":     req.BookingDate,
				"start":    req.StartTime,
				"end":      req.EndTime,
			}).Info("Booking rejected: conflict")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"court_id":   booking.CourtID,
		"user_id":    booking.UserID,
		"date":       booking.BookingDate,
		"start":      booking.StartTime,
		"end":        booking.EndTime,
	}).Info("Booking created")
	return booking, nil
}

// CheckConflict lists the live bookings overlapping the requested window
func (s *BookingService) CheckConflict(req *models.CheckConflictRequest) (*ConflictResult, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	conflicts, err := s.bookings.FindConflicts(req.CourtID, req.BookingDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if len(conflicts) == 0 {
		return &ConflictResult{HasConflict: false}, nil
	}
	return &ConflictResult{HasConflict: true, Conflicts: conflicts}, nil
}

// CancelBooking cancels the caller's booking and frees its slot
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) error {
	if err := s.bookings.Cancel(ctx, bookingID, userID); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"booking_id": bookingID, "user_id": userID}).Info("Booking cancelled")
	return nil
}

// UpdateBooking changes status and/or payment status. The booker, the owner
// of the facility and admins may do this.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID uuid.UUID, caller uuid.UUID, role models.UserRole, req *models.UpdateBookingRequest) error {
	if err := req.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}

	if err := s.authorize(booking, caller, role); err != nil {
		return err
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, req.Status, req.PaymentStatus); err != nil {
		return err
	}

	fields := logrus.Fields{"booking_id": bookingID, "by": caller}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.PaymentStatus != nil {
		fields["payment_status"] = *req.PaymentStatus
	}
	s.logger.WithFields(fields).Info("Booking updated")
	return nil
}

func (s *BookingService) authorize(booking *models.Booking, caller uuid.UUID, role models.UserRole) error {
	if role == models.RoleAdmin || booking.UserID == caller {
		return nil
	}
	if role != models.RoleFacilityOwner {
		return ErrNotBookingParty
	}

	facility, err := s.facilities.GetFacilityByID(booking.FacilityID)
	if err != nil {
		return err
	}
	if facility == nil || facility.OwnerID != caller {
		return ErrNotBookingParty
	}
	return nil
}

// ListUserBookings returns the caller's bookings with venue details
func (s *BookingService) ListUserBookings(userID uuid.UUID) ([]models.BookingWithVenue, error) {
	return s.bookings.ListByUser(userID)
}

// FacilityStats summarises the bookings of a facility as of today
func (s *BookingService) FacilityStats(facilityID uuid.UUID) (*models.FacilityBookingStats, error) {
	return s.bookings.FacilityStats(facilityID, s.now())
}

// CompletePastBookings marks confirmed bookings that have ended as completed
func (s *BookingService) CompletePastBookings() (int64, error) {
	return s.bookings.CompletePast(s.now())
}
