package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/insuquote/backend/internal/models"
)

func newTestResponder(store *mockAssignments, led *mockLedger) *Responder {
	return NewResponder(mockPool{}, store, led, slog.Default())
}

// ---------------------------------------------------------------------------
// 1. TestRespondAccept
// ---------------------------------------------------------------------------

func TestRespondAccept(t *testing.T) {
	contractor := uuid.New()
	a := makePendingAssignment(uuid.New(), contractor, time.Hour)

	store := newMockAssignments(a)
	led := newMockLedger()
	r := newTestResponder(store, led)

	got, err := r.Respond(context.Background(), a.ID, contractor, models.ResponseAccept)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got.Status != models.AssignmentStatusAccepted {
		t.Errorf("status: got %s, want accepted", got.Status)
	}
	// Accepting consumes the credit; no refund.
	if n := len(led.byType(models.CreditEntryAssignmentRefund)); n != 0 {
		t.Errorf("refund entries after accept: got %d, want 0", n)
	}
}

// ---------------------------------------------------------------------------
// 2. TestRespondDecline_RefundsExactlyOnce
//    A decline refunds the assignment cost. A retried decline returns the
//    terminal state again without a second refund.
// ---------------------------------------------------------------------------

func TestRespondDecline_RefundsExactlyOnce(t *testing.T) {
	contractor := uuid.New()
	a := makePendingAssignment(uuid.New(), contractor, time.Hour)

	store := newMockAssignments(a)
	led := newMockLedger()
	r := newTestResponder(store, led)

	got, err := r.Respond(context.Background(), a.ID, contractor, models.ResponseDecline)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got.Status != models.AssignmentStatusDeclined {
		t.Errorf("status: got %s, want declined", got.Status)
	}
	if led.balance(contractor) != a.Cost {
		t.Errorf("balance after refund: got %d, want %d", led.balance(contractor), a.Cost)
	}

	// Retry: same outcome reported, no extra refund.
	again, err := r.Respond(context.Background(), a.ID, contractor, models.ResponseDecline)
	if err != nil {
		t.Fatalf("retried Respond: %v", err)
	}
	if again.Status != models.AssignmentStatusDeclined {
		t.Errorf("retry status: got %s, want declined", again.Status)
	}
	if led.refundsFor(a.ID) != 1 {
		t.Fatalf("refund entries: got %d, want exactly 1", led.refundsFor(a.ID))
	}
	if led.balance(contractor) != a.Cost {
		t.Errorf("balance after retry: got %d, want %d", led.balance(contractor), a.Cost)
	}
}

// ---------------------------------------------------------------------------
// 3. TestRespondConflictingTerminal
//    Responding to an assignment that already reached a different terminal
//    state is rejected, never silently honored. A late accept after the
//    expiry sweep is the critical case.
// ---------------------------------------------------------------------------

func TestRespondConflictingTerminal(t *testing.T) {
	contractor := uuid.New()
	a := makePendingAssignment(uuid.New(), contractor, time.Hour)
	a.Status = models.AssignmentStatusExpired

	store := newMockAssignments(a)
	led := newMockLedger()
	r := newTestResponder(store, led)

	_, err := r.Respond(context.Background(), a.ID, contractor, models.ResponseAccept)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("late accept: expected ErrInvalidState, got %v", err)
	}
	if store.status(a.ID) != models.AssignmentStatusExpired {
		t.Error("assignment must stay expired")
	}

	// Decline over accept is also a conflict.
	b := makePendingAssignment(uuid.New(), contractor, time.Hour)
	b.Status = models.AssignmentStatusAccepted
	store = newMockAssignments(b)
	r = newTestResponder(store, newMockLedger())

	_, err = r.Respond(context.Background(), b.ID, contractor, models.ResponseDecline)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("decline over accept: expected ErrInvalidState, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// 4. TestRespondOwnershipAndLookup
// ---------------------------------------------------------------------------

func TestRespondOwnershipAndLookup(t *testing.T) {
	owner := uuid.New()
	a := makePendingAssignment(uuid.New(), owner, time.Hour)

	store := newMockAssignments(a)
	r := newTestResponder(store, newMockLedger())
	ctx := context.Background()

	if _, err := r.Respond(ctx, a.ID, uuid.New(), models.ResponseAccept); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign contractor: expected ErrForbidden, got %v", err)
	}
	if _, err := r.Respond(ctx, uuid.New(), owner, models.ResponseAccept); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown assignment: expected ErrNotFound, got %v", err)
	}
	if _, err := r.Respond(ctx, a.ID, owner, "maybe"); err == nil {
		t.Error("invalid response verb should be rejected")
	}
	if store.status(a.ID) != models.AssignmentStatusPending {
		t.Error("rejected calls must not change the assignment")
	}
}
