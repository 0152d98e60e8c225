// Package ranking orders candidate drivers and vehicles for a trip.
// All functions are pure and deterministic for a given input.
package ranking

import (
	"sort"

	"tripdispatch/internal/domain"
)

const (
	experiencedRating = 4.5
	experiencedTrips  = 10
)

// Tier buckets used to order drivers. Lower is better.
const (
	TierLocal = iota + 1
	TierExperienced
	TierOther
)

// DriverTier returns the locality/experience bucket of c for a pickup in province.
func DriverTier(c domain.DriverCandidate, province string) int {
	switch {
	case c.VisitsTo(province) > 0:
		return TierLocal
	case c.Rating >= experiencedRating && c.Experience >= experiencedTrips:
		return TierExperienced
	default:
		return TierOther
	}
}

// RankDrivers orders candidates by tier, then rating, then experience.
// Ties keep their input order. The input slice is not modified.
func RankDrivers(candidates []domain.DriverCandidate, province string) []domain.DriverCandidate {
	out := append([]domain.DriverCandidate(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := DriverTier(out[i], province), DriverTier(out[j], province)
		if ti != tj {
			return ti < tj
		}
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Experience > out[j].Experience
	})
	return out
}

// RankVehicles keeps vehicles of the requested category (all for CategoryAll
// or empty) and orders them by effective rate, cheapest first.
func RankVehicles(candidates []domain.VehicleCandidate, category domain.VehicleCategory) []domain.VehicleCandidate {
	out := make([]domain.VehicleCandidate, 0, len(candidates))
	for _, c := range candidates {
		if category == "" || category == domain.CategoryAll || c.Category == category {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveRate() < out[j].EffectiveRate()
	})
	return out
}

// ExcludeDrivers returns a new slice without the candidates whose id is in ids.
func ExcludeDrivers(candidates []domain.DriverCandidate, ids ...string) []domain.DriverCandidate {
	skip := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}
	out := make([]domain.DriverCandidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := skip[c.DriverID]; !ok {
			out = append(out, c)
		}
	}
	return out
}
