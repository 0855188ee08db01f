package catalog

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"

	"github.com/johnrirwin/autolot/internal/models"
)

// Filter returns the vehicles matching every set criterion, in catalog order.
//
// Brand and fuel type match exactly, the price range is inclusive at both ends,
// and the search token is trimmed and matched case-insensitively against brand
// or name. An inverted or non-finite price range is rejected with ErrInvalidCriteria.
// An empty result is not an error.
func Filter(s *Store, criteria models.FilterCriteria) ([]models.Vehicle, error) {
	if r := criteria.PriceRange; r != nil && (!finite(r.Min) || !finite(r.Max)) {
		return nil, fmt.Errorf("%w: price range bounds must be finite", ErrInvalidCriteria)
	}
	if r := criteria.PriceRange; r != nil && r.Min > r.Max {
		return nil, fmt.Errorf("%w: price range min %.0f exceeds max %.0f", ErrInvalidCriteria, r.Min, r.Max)
	}

	m := newMatcher(criteria.Search)
	out := make([]models.Vehicle, 0, len(s.vehicles))

	for i := range s.vehicles {
		v := &s.vehicles[i]

		if criteria.Brand != "" && v.Brand != criteria.Brand {
			continue
		}
		if criteria.FuelType != "" && v.FuelType != criteria.FuelType {
			continue
		}
		if criteria.PriceRange != nil && !criteria.PriceRange.Contains(v.Price) {
			continue
		}
		if !m.match(v) {
			continue
		}

		out = append(out, v.Clone())
	}

	return out, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// matcher does case-insensitive substring search over brand and name.
// cases.Caser is stateful, so each matcher owns one.
type matcher struct {
	fold  cases.Caser
	token string
}

func newMatcher(token string) *matcher {
	m := &matcher{fold: cases.Fold()}
	if t := strings.TrimSpace(token); t != "" {
		m.token = m.fold.String(t)
	}
	return m
}

func (m *matcher) match(v *models.Vehicle) bool {
	if m.token == "" {
		return true
	}
	return strings.Contains(m.fold.String(v.Brand), m.token) ||
		strings.Contains(m.fold.String(v.Name), m.token)
}
