package notify

import (
	"github.com/google/uuid"
)

// Events fanned out to the homeowner/contractor messaging gateway.
const (
	EventAssignmentCreated = "assignment_created"
	EventQuoteAccepted     = "quote_accepted"
)

// NotificationArgs is the River job payload for one outbound notification.
// Enqueued transactionally with the state change that produced it and
// delivered out of band, so a slow email/SMS provider can never delay or
// fail a credit-bearing transition.
type NotificationArgs struct {
	Event        string    `json:"event"`
	LeadID       uuid.UUID `json:"lead_id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	ContractorID uuid.UUID `json:"contractor_id"`
}

func (NotificationArgs) Kind() string { return "notification" }
