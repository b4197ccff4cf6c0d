package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/insuquote/backend/internal/models"
)

// ContractorDirectory is the minimal directory interface required for
// matching.
type ContractorDirectory interface {
	FindEligible(ctx context.Context, city, state string, leadID uuid.UUID) ([]*models.Contractor, error)
}

// Matcher selects and orders the contractors a lead should be offered to.
type Matcher struct {
	Directory ContractorDirectory
}

func NewMatcher(directory ContractorDirectory) *Matcher {
	return &Matcher{Directory: directory}
}

// rankCandidates orders by rating descending, then earlier founded_year,
// then id ascending. The two tie-breaks make repeated runs over the same
// candidate set reproducible.
func rankCandidates(candidates []*models.Contractor) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.FoundedYear != b.FoundedYear {
			return a.FoundedYear < b.FoundedYear
		}
		return a.ID.String() < b.ID.String()
	})
}

// SelectCandidates returns the lead's candidate contractors in offer
// order. For random_three that is every eligible contractor ranked by
// rating (the name is historical; selection has always been rating-ranked,
// not random). For choose_three it is the customer's picks in the
// customer's order, restricted to the same eligible set as the ranked
// path, so a pick that is suspended or does not serve the lead's area is
// dropped rather than offered.
// The distributor walks this list until the fan-out is satisfied, so
// candidates beyond the fan-out serve as stand-ins for skipped ones.
func (m *Matcher) SelectCandidates(ctx context.Context, lead *models.Lead) ([]*models.Contractor, error) {
	if lead.QuotePreference == models.QuotePrefChooseThree {
		return m.chosenCandidates(ctx, lead)
	}

	candidates, err := m.Directory.FindEligible(ctx, lead.City, lead.State, lead.ID)
	if err != nil {
		return nil, err
	}
	rankCandidates(candidates)
	return candidates, nil
}

// chosenCandidates intersects the customer's explicit picks with the
// eligible set for the lead's area, preserving the customer's list order.
// The eligibility predicate is the directory's, not a weaker one: a pick
// must be approved and cover the lead's city/state to be offered.
func (m *Matcher) chosenCandidates(ctx context.Context, lead *models.Lead) ([]*models.Contractor, error) {
	if len(lead.ChosenIDs) == 0 {
		return nil, nil
	}
	eligible, err := m.Directory.FindEligible(ctx, lead.City, lead.State, lead.ID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Contractor, len(eligible))
	for _, c := range eligible {
		byID[c.ID] = c
	}
	out := make([]*models.Contractor, 0, len(lead.ChosenIDs))
	for _, id := range lead.ChosenIDs {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
