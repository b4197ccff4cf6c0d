package models

import (
	"time"

	"github.com/google/uuid"
)

// Assignment status enums. pending is the only non-terminal state; each
// transition out of pending is final.
const (
	AssignmentStatusPending  = "pending"
	AssignmentStatusAccepted = "accepted"
	AssignmentStatusDeclined = "declined"
	AssignmentStatusExpired  = "expired"
)

// Contractor responses accepted by the assignment workflow.
const (
	ResponseAccept  = "accept"
	ResponseDecline = "decline"
)

// AssignmentCost is the flat number of credits charged per assignment.
const AssignmentCost = 20

type Assignment struct {
	ID               uuid.UUID  `json:"id"`
	LeadID           uuid.UUID  `json:"lead_id"`
	ContractorID     uuid.UUID  `json:"contractor_id"`
	Status           string     `json:"status"`
	Cost             int        `json:"cost"`
	QuoteAmountCents *int64     `json:"quote_amount_cents,omitempty"`
	QuoteNotes       *string    `json:"quote_notes,omitempty"`
	Won              bool       `json:"won"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
	QuotedAt         *time.Time `json:"quoted_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewAssignment returns a pending assignment at the flat credit cost.
func NewAssignment(leadID, contractorID uuid.UUID) *Assignment {
	return &Assignment{
		ID:           uuid.New(),
		LeadID:       leadID,
		ContractorID: contractorID,
		Status:       AssignmentStatusPending,
		Cost:         AssignmentCost,
	}
}

// HasQuote reports whether the contractor attached a quote.
func (a *Assignment) HasQuote() bool {
	return a.QuoteAmountCents != nil
}
