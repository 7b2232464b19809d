package booking

import (
	"errors"
	"time"

	"rentora/models"
)

// captureCompleted is the gateway status that confirms funds were captured.
const captureCompleted = "COMPLETED"

var (
	// ErrAlreadyCanceled rejects capture of a terminal canceled booking.
	ErrAlreadyCanceled = errors.New("booking is canceled")
	// ErrCaptureIncomplete means the gateway reported anything other than a
	// completed capture; the booking stays pending.
	ErrCaptureIncomplete = errors.New("capture not completed")
)

// ApplyCapture advances the booking state machine from a capture result.
// It returns true only on the pending → confirmed transition; a booking that
// is already confirmed is a no-op so capture retries never repeat side
// effects (cart clearing, notification mail).
func ApplyCapture(b *models.Booking, gatewayStatus string, now time.Time) (bool, error) {
	switch b.Status {
	case models.BookingConfirmed:
		return false, nil
	case models.BookingCanceled:
		return false, ErrAlreadyCanceled
	}

	if gatewayStatus != captureCompleted {
		return false, ErrCaptureIncomplete
	}

	b.Status = models.BookingConfirmed
	b.ConfirmedAt = now
	return true, nil
}

// CanCancel reports whether a booking may move to canceled. Only pending
// bookings are cancelable; both confirmed and canceled are terminal.
func CanCancel(b *models.Booking) bool {
	return b.Status == models.BookingPending
}
