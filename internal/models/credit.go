package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit ledger entry_type enums. Amounts are stored as positive
// magnitudes; the entry type carries the sign (debit subtracts, refund
// and topup add).
const (
	CreditEntryAssignmentDebit  = "assignment_debit"
	CreditEntryAssignmentRefund = "assignment_refund"
	CreditEntryTopup            = "topup"
)

type CreditLedger struct {
	ID           uuid.UUID  `json:"id"`
	ContractorID uuid.UUID  `json:"contractor_id"`
	AssignmentID *uuid.UUID `json:"assignment_id,omitempty"`
	EntryType    string     `json:"entry_type"`
	Amount       int        `json:"amount"`
	BalanceAfter *int       `json:"balance_after,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SignedAmount returns the entry's effect on the contractor balance.
func (c *CreditLedger) SignedAmount() int {
	if c.EntryType == CreditEntryAssignmentDebit {
		return -c.Amount
	}
	return c.Amount
}
