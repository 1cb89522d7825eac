package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/quickcourt/booking-backend/internal/models"
)

// Postgres SQLSTATE codes the repositories react to
const (
	codeUniqueViolation      = "23505"
	codeExclusionViolation   = "23P01"
	codeCheckViolation       = "23514"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

var (
	// ErrDuplicate indicates a unique constraint rejected the write
	ErrDuplicate = errors.New("record already exists")

	// Lookups by id that matched no row
	ErrUserNotFound     = errors.New("user not found")
	ErrFacilityNotFound = errors.New("facility not found")
	ErrTimeSlotNotFound = errors.New("time slot not found")

	// ErrSignupConsumed indicates the pending signup was used by another request
	ErrSignupConsumed = errors.New("pending signup already used")
)

// sqlState extracts the SQLSTATE from either driver's error type
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports a duplicate key error
func IsUniqueViolation(err error) bool {
	return sqlState(err) == codeUniqueViolation
}

// IsExclusionViolation reports an exclusion constraint error
func IsExclusionViolation(err error) bool {
	return sqlState(err) == codeExclusionViolation
}

// IsCheckViolation reports a CHECK constraint error
func IsCheckViolation(err error) bool {
	return sqlState(err) == codeCheckViolation
}

// IsForeignKeyViolation reports a missing referenced row
func IsForeignKeyViolation(err error) bool {
	return sqlState(err) == codeForeignKeyViolation
}

// IsSerializationFailure reports a serializable transaction that must be retried
func IsSerializationFailure(err error) bool {
	state := sqlState(err)
	return state == codeSerializationFailure || state == codeDeadlockDetected
}

// Booking ledger errors
var (
	ErrCourtNotFound    = errors.New("court not found")
	ErrCourtInactive    = errors.New("court is not accepting bookings")
	ErrSlotUnavailable  = errors.New("Selected time slot is not available")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrBookingConflict  = errors.New("Booking conflict detected")
)

// BookingConflictError carries the bookings that block a request. It matches
// ErrBookingConflict with errors.Is.
type BookingConflictError struct {
	Conflicts []models.ConflictingBooking
}

func (e *BookingConflictError) Error() string {
	return fmt.Sprintf("%s: %d overlapping booking(s)", ErrBookingConflict.Error(), len(e.Conflicts))
}

// Is reports whether target is ErrBookingConflict
func (e *BookingConflictError) Is(target error) bool {
	return target == ErrBookingConflict
}
