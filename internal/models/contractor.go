package models

import (
	"time"

	"github.com/google/uuid"
)

// Contractor status enums. Only approved contractors are eligible for
// lead distribution.
const (
	ContractorStatusPending   = "pending"
	ContractorStatusApproved  = "approved"
	ContractorStatusSuspended = "suspended"
)

type Contractor struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	CompanyName  string    `json:"company_name"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	Credits      int       `json:"credits"`
	Rating       float64   `json:"rating"`
	ReviewCount  int       `json:"review_count"`
	FoundedYear  int       `json:"founded_year"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ServiceArea is an additional (city, state) a contractor serves beyond
// its home city.
type ServiceArea struct {
	ID           uuid.UUID `json:"id"`
	ContractorID uuid.UUID `json:"contractor_id"`
	City         string    `json:"city"`
	State        string    `json:"state"`
}
