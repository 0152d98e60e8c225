// Package booking holds the client-side selection state of a trip being
// booked. State changes only through Reduce, so the same rules apply to
// any caller that drives it.
package booking

import (
	"tripdispatch/internal/domain"
	"tripdispatch/internal/ranking"
)

// Draft is the in-progress selection for one booking.
type Draft struct {
	Pickup   *domain.Point
	Window   domain.TimeWindow
	Category domain.VehicleCategory

	// Ranked, filtered candidate lists.
	Drivers     []domain.DriverCandidate
	Vehicles    []domain.VehicleCandidate
	allVehicles []domain.VehicleCandidate

	DriverID  string
	VehicleID string

	DistanceKm    float64
	DistanceKnown bool

	BasePrice  float64
	Price      float64
	PriceKnown bool
	Promo      *domain.AppliedPromo
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

type (
	// PickupChanged sets or clears the pickup point and invalidates the distance.
	PickupChanged struct{ Point *domain.Point }
	// WindowChanged sets the requested time window. Selections are re-checked
	// on the next refresh.
	WindowChanged struct{ Window domain.TimeWindow }
	// DriverCandidatesRefreshed replaces the driver list with a fresh lookup result.
	DriverCandidatesRefreshed struct{ Candidates []domain.DriverCandidate }
	// VehicleCandidatesRefreshed replaces the vehicle list with a fresh lookup result.
	VehicleCandidatesRefreshed struct{ Candidates []domain.VehicleCandidate }
	// CategoryChanged re-filters vehicles by category.
	CategoryChanged struct{ Category domain.VehicleCategory }
	// DriverSelected is an explicit user choice.
	DriverSelected struct{ DriverID string }
	// VehicleSelected is an explicit user choice.
	VehicleSelected struct{ VehicleID string }
	// DistanceResolved carries the routed distance between pickup and dropoff.
	DistanceResolved struct{ Km float64 }
	// DistanceUnavailable marks the distance, and therefore the price, as unknown.
	DistanceUnavailable struct{}
	// PromoApplied records a validated promo for the current base price.
	PromoApplied struct{ Applied domain.AppliedPromo }
	// PromoRemoved drops the applied promo.
	PromoRemoved struct{}
)

func (PickupChanged) isEvent()              {}
func (WindowChanged) isEvent()              {}
func (DriverCandidatesRefreshed) isEvent()  {}
func (VehicleCandidatesRefreshed) isEvent() {}
func (CategoryChanged) isEvent()            {}
func (DriverSelected) isEvent()             {}
func (VehicleSelected) isEvent()            {}
func (DistanceResolved) isEvent()           {}
func (DistanceUnavailable) isEvent()        {}
func (PromoApplied) isEvent()               {}
func (PromoRemoved) isEvent()               {}

// Reduce returns the draft that results from applying e to d.
// Selections of ids that are not in the current list are ignored.
func Reduce(d Draft, e Event) Draft {
	before := d.pricingInputs()

	switch e := e.(type) {
	case PickupChanged:
		d.Pickup = e.Point
		d.DistanceKnown = false
		d.DistanceKm = 0
		if d.Pickup == nil {
			d.Drivers, d.Vehicles, d.allVehicles = nil, nil, nil
			d.DriverID, d.VehicleID = "", ""
			break
		}
		d.Drivers = ranking.RankDrivers(d.Drivers, d.province())
		d.DriverID = reconcile(d.DriverID, driverIDs(d.Drivers))
	case WindowChanged:
		d.Window = e.Window
	case DriverCandidatesRefreshed:
		d.Drivers = ranking.RankDrivers(e.Candidates, d.province())
		d.DriverID = reconcile(d.DriverID, driverIDs(d.Drivers))
	case VehicleCandidatesRefreshed:
		d.allVehicles = e.Candidates
		d.Vehicles = ranking.RankVehicles(d.allVehicles, d.Category)
		d.VehicleID = reconcile(d.VehicleID, vehicleIDs(d.Vehicles))
	case CategoryChanged:
		d.Category = e.Category
		d.Vehicles = ranking.RankVehicles(d.allVehicles, d.Category)
		d.VehicleID = reconcile(d.VehicleID, vehicleIDs(d.Vehicles))
	case DriverSelected:
		if contains(driverIDs(d.Drivers), e.DriverID) {
			d.DriverID = e.DriverID
		}
	case VehicleSelected:
		if contains(vehicleIDs(d.Vehicles), e.VehicleID) {
			d.VehicleID = e.VehicleID
		}
	case DistanceResolved:
		d.DistanceKm = e.Km
		d.DistanceKnown = true
	case DistanceUnavailable:
		d.DistanceKm = 0
		d.DistanceKnown = false
	case PromoApplied:
		if d.PriceKnown && e.Applied.PreDiscountAmount == d.BasePrice {
			applied := e.Applied
			d.Promo = &applied
			d.Price = applied.NewTotal
		}
		return d
	case PromoRemoved:
		if d.Promo != nil {
			d.Price = domain.RoundMoney(d.Price + d.Promo.DiscountAmount)
			d.Promo = nil
		}
		return d
	}

	if d.pricingInputs() != before {
		d.reprice()
	}
	return d
}

// SelectedVehicle returns the selected vehicle candidate, if any.
func (d Draft) SelectedVehicle() (domain.VehicleCandidate, bool) {
	for _, v := range d.Vehicles {
		if v.ID == d.VehicleID {
			return v, true
		}
	}
	return domain.VehicleCandidate{}, false
}

type pricingInputs struct {
	vehicleID string
	rate      float64
	km        float64
	known     bool
}

func (d Draft) pricingInputs() pricingInputs {
	in := pricingInputs{vehicleID: d.VehicleID, km: d.DistanceKm, known: d.DistanceKnown}
	if v, ok := d.SelectedVehicle(); ok {
		in.rate = v.EffectiveRate()
	}
	return in
}

// reprice recomputes the base price and drops any applied promo.
func (d *Draft) reprice() {
	d.Promo = nil
	v, ok := d.SelectedVehicle()
	if !ok || !d.DistanceKnown {
		d.BasePrice, d.Price, d.PriceKnown = 0, 0, false
		return
	}
	d.BasePrice = domain.BasePrice(d.DistanceKm, &v.Vehicle)
	d.Price = d.BasePrice
	d.PriceKnown = true
}

func (d Draft) province() string {
	if d.Pickup == nil {
		return ""
	}
	return d.Pickup.Province
}

// reconcile keeps current if still listed, clears it if not, and picks the
// top entry when nothing is chosen.
func reconcile(current string, ids []string) string {
	if current != "" {
		if contains(ids, current) {
			return current
		}
		return ""
	}
	if len(ids) > 0 {
		return ids[0]
	}
	return ""
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func driverIDs(cs []domain.DriverCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.DriverID
	}
	return out
}

func vehicleIDs(cs []domain.VehicleCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
