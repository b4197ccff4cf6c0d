package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead status enums.
const (
	LeadStatusActive    = "active"
	LeadStatusCompleted = "completed"
	LeadStatusExpired   = "expired"
)

// Quote preference: random_three distributes to the top-rated contractors,
// choose_three to the customer's explicit picks.
const (
	QuotePrefRandomThree = "random_three"
	QuotePrefChooseThree = "choose_three"
)

// DefaultFanOut is the number of contractors a lead is distributed to
// unless the customer picked a smaller set.
const DefaultFanOut = 3

type Lead struct {
	ID              uuid.UUID   `json:"id"`
	HomeownerName   string      `json:"homeowner_name"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone,omitempty"`
	HomeSizeSqft    int         `json:"home_size_sqft"`
	Areas           []string    `json:"areas"`
	InsulationTypes []string    `json:"insulation_types"`
	City            string      `json:"city"`
	State           string      `json:"state"`
	Zip             string      `json:"zip"`
	QuotePreference string      `json:"quote_preference"`
	ChosenIDs       []uuid.UUID `json:"chosen_contractor_ids,omitempty"`
	Status          string      `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// FanOut returns how many assignments this lead should spawn at most.
func (l *Lead) FanOut() int {
	if l.QuotePreference == QuotePrefChooseThree && len(l.ChosenIDs) > 0 && len(l.ChosenIDs) < DefaultFanOut {
		return len(l.ChosenIDs)
	}
	return DefaultFanOut
}
