package domain

import (
	"math"
	"strings"
	"time"
)

// VehicleCategory is the service class of a vehicle.
type VehicleCategory string

const (
	CategoryEconomy  VehicleCategory = "ECONOMY"
	CategoryStandard VehicleCategory = "STANDARD"
	CategoryLuxury   VehicleCategory = "LUXURY"
	CategoryPremium  VehicleCategory = "PREMIUM"
	// CategoryAll disables category filtering.
	CategoryAll VehicleCategory = "ALL"
)

// defaultRates are per-km rates used when a vehicle has no explicit rate.
var defaultRates = map[VehicleCategory]float64{
	CategoryEconomy:  50,
	CategoryStandard: 80,
	CategoryLuxury:   150,
	CategoryPremium:  250,
}

// ParseCategory normalises a category name. Empty input means CategoryAll.
func ParseCategory(s string) (VehicleCategory, bool) {
	c := VehicleCategory(strings.ToUpper(strings.TrimSpace(s)))
	if c == "" || c == CategoryAll {
		return CategoryAll, true
	}
	_, ok := defaultRates[c]
	return c, ok
}

// DefaultRate returns the per-km rate of a category.
func (c VehicleCategory) DefaultRate() float64 {
	return defaultRates[c]
}

// MaintenanceWindow is a period during which a vehicle cannot be booked.
type MaintenanceWindow struct {
	Start time.Time
	End   time.Time
}

// Vehicle represents a bookable vehicle.
type Vehicle struct {
	ID          string
	Plate       string
	Model       string
	Category    VehicleCategory
	RatePerKm   float64 // Zero means use the category default.
	Seats       int
	Maintenance []MaintenanceWindow
}

// EffectiveRate is the explicit per-km rate if set, otherwise the category default.
func (v *Vehicle) EffectiveRate() float64 {
	if v.RatePerKm > 0 {
		return v.RatePerKm
	}
	return v.Category.DefaultRate()
}

// InMaintenance reports whether any maintenance window overlaps w.
func (v *Vehicle) InMaintenance(w TimeWindow) bool {
	for _, m := range v.Maintenance {
		if (TimeWindow{Start: m.Start, End: m.End}).Overlaps(w) {
			return true
		}
	}
	return false
}

// VehicleCandidate is a vehicle eligible for a given pickup point and window.
type VehicleCandidate struct {
	Vehicle
	DistanceKm float64
}

// BasePrice is the pre-discount price of travelling distanceKm in v.
func BasePrice(distanceKm float64, v *Vehicle) float64 {
	return RoundMoney(distanceKm * v.EffectiveRate())
}

// RoundMoney rounds an amount to two decimal places.
func RoundMoney(x float64) float64 {
	return math.Round(x*100) / 100
}
