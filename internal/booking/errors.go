package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrSlotsLocked     = errors.New("one or more slots are being held by another checkout")
	ErrNotCancellable  = errors.New("booking can no longer be cancelled")
	ErrNotConfirmable  = errors.New("booking is not awaiting confirmation")
)

// SlotConflictError reports which slots lost the race. It is returned both
// by the pre-insert check and by the unique-index translation, so callers
// see one shape regardless of which defense fired.
type SlotConflictError struct {
	GroundID string
	Date     string
	Slots    []string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slots already booked on %s ground for %s: %s",
		e.GroundID, e.Date, strings.Join(e.Slots, ", "))
}

// IsSlotConflict reports whether err wraps a SlotConflictError.
func IsSlotConflict(err error) bool {
	var sc *SlotConflictError
	return errors.As(err, &sc)
}

// ValidationError covers malformed booking requests. Handlers map it to a
// 400 instead of a 500.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalidRequest(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
