package booking

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"rentora/models"
)

func TestApplyCapturePendingToConfirmed(t *testing.T) {
	b := &models.Booking{BookingID: "b1", Status: models.BookingPending}
	now := time.Now()

	changed, err := ApplyCapture(b, "COMPLETED", now)
	if err != nil {
		t.Fatalf("ApplyCapture: %v", err)
	}
	if !changed {
		t.Fatal("expected pending booking to transition")
	}
	if b.Status != models.BookingConfirmed {
		t.Fatalf("expected confirmed, got %s", b.Status)
	}
	if !b.ConfirmedAt.Equal(now) {
		t.Fatal("ConfirmedAt not stamped")
	}
}

// A second capture of an already-confirmed booking must be a no-op: no state
// change, no error, so the caller skips cart clearing and notifications.
func TestApplyCaptureConfirmedIsIdempotent(t *testing.T) {
	confirmedAt := time.Now().Add(-time.Hour)
	b := &models.Booking{Status: models.BookingConfirmed, ConfirmedAt: confirmedAt}

	changed, err := ApplyCapture(b, "COMPLETED", time.Now())
	if err != nil {
		t.Fatalf("ApplyCapture: %v", err)
	}
	if changed {
		t.Fatal("confirmed booking must not transition again")
	}
	if !b.ConfirmedAt.Equal(confirmedAt) {
		t.Fatal("ConfirmedAt must not be overwritten on retry")
	}
}

func TestApplyCaptureCanceledRejected(t *testing.T) {
	b := &models.Booking{Status: models.BookingCanceled}

	changed, err := ApplyCapture(b, "COMPLETED", time.Now())
	if !errors.Is(err, ErrAlreadyCanceled) {
		t.Fatalf("expected ErrAlreadyCanceled, got %v", err)
	}
	if changed || b.Status != models.BookingCanceled {
		t.Fatal("canceled booking must stay canceled")
	}
}

func TestApplyCaptureIncompleteLeavesPending(t *testing.T) {
	for _, status := range []string{"PENDING", "DECLINED", ""} {
		b := &models.Booking{Status: models.BookingPending}
		changed, err := ApplyCapture(b, status, time.Now())
		if !errors.Is(err, ErrCaptureIncomplete) {
			t.Fatalf("status %q: expected ErrCaptureIncomplete, got %v", status, err)
		}
		if changed || b.Status != models.BookingPending {
			t.Fatalf("status %q: booking must stay pending", status)
		}
	}
}

func TestCanCancel(t *testing.T) {
	cases := map[string]bool{
		models.BookingPending:   true,
		models.BookingConfirmed: false,
		models.BookingCanceled:  false,
	}
	for status, want := range cases {
		if got := CanCancel(&models.Booking{Status: status}); got != want {
			t.Fatalf("CanCancel(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestCartClearMutationPinsSnapshotVersion(t *testing.T) {
	b := &models.Booking{UserID: "u1", CartVersion: 7}
	now := time.Now()

	filter, update := cartClearMutation(b, now)

	if filter["userId"] != "u1" || filter["version"] != int64(7) {
		t.Fatalf("filter must pin the checkout snapshot, got %v", filter)
	}
	set, ok := update["$set"].(bson.M)
	if !ok {
		t.Fatalf("unexpected update shape %v", update)
	}
	if lines, ok := set["lines"].([]models.CartLine); !ok || len(lines) != 0 {
		t.Fatalf("clear must empty the lines, got %v", set["lines"])
	}
	if !set["updatedAt"].(time.Time).Equal(now) {
		t.Fatal("clear must stamp updatedAt")
	}
	if inc, ok := update["$inc"].(bson.M); !ok || inc["version"] != 1 {
		t.Fatalf("clear must advance the version, got %v", update["$inc"])
	}
}

// A cart mutated after checkout carries a later version and must not match
// the clear filter; capture leaves it intact.
func TestCartClearMutationSkipsMovedOnCart(t *testing.T) {
	b := &models.Booking{UserID: "u1", CartVersion: 7}
	filter, _ := cartClearMutation(b, time.Now())

	current := models.Cart{UserID: "u1", Version: 9}
	if filter["userId"] == current.UserID && filter["version"] == current.Version {
		t.Fatal("moved-on cart must not match the snapshot filter")
	}

	snapshot := models.Cart{UserID: "u1", Version: 7}
	if filter["userId"] != snapshot.UserID || filter["version"] != snapshot.Version {
		t.Fatal("untouched cart must match the snapshot filter")
	}
}

func TestReceiptPayloadSigned(t *testing.T) {
	a := receiptPayload("b1", "o1")
	b := receiptPayload("b1", "o1")
	if a != b {
		t.Fatal("payload must be deterministic")
	}
	if receiptPayload("b2", "o1") == a {
		t.Fatal("different bookings must sign differently")
	}
}
