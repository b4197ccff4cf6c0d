package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrValidation can be used with errors.Is to detect intake validation
// failures.
var ErrValidation = errors.New("validation failed")

// leadIntakeSchema is the contract the upstream form layer must meet.
// The core trusts payloads past this gate.
const leadIntakeSchema = `{
	"type": "object",
	"required": ["homeowner_name", "email", "home_size_sqft", "areas", "city", "state", "zip", "quote_preference"],
	"properties": {
		"homeowner_name": {"type": "string", "minLength": 1},
		"email": {"type": "string", "minLength": 3},
		"phone": {"type": "string"},
		"home_size_sqft": {"type": "integer", "minimum": 1},
		"areas": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string", "enum": ["attic", "walls", "crawlspace", "basement", "garage", "roof"]}
		},
		"insulation_types": {
			"type": "array",
			"items": {"type": "string", "enum": ["fiberglass", "spray_foam", "cellulose", "rigid_foam", "mineral_wool"]}
		},
		"city": {"type": "string", "minLength": 1},
		"state": {"type": "string", "minLength": 2, "maxLength": 2},
		"zip": {"type": "string", "pattern": "^[0-9]{5}$"},
		"quote_preference": {"type": "string", "enum": ["random_three", "choose_three"]},
		"chosen_contractor_ids": {
			"type": "array",
			"maxItems": 3,
			"items": {"type": "string", "format": "uuid"}
		}
	}
}`

// Validator checks lead intake payloads against the intake schema.
type Validator struct {
	intake *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	schema, err := jsonschema.CompileString("https://insuquote.dev/schemas/lead.intake", leadIntakeSchema)
	if err != nil {
		return nil, fmt.Errorf("compile lead intake schema: %w", err)
	}
	return &Validator{intake: schema}, nil
}

// ValidateIntake performs a hard reject: returns an error wrapping
// ErrValidation if the payload does not match the intake schema.
func (v *Validator) ValidateIntake(payload json.RawMessage) error {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := v.intake.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
