package domain

// DriverStatus is the driver's availability flag.
type DriverStatus string

const (
	DriverStatusOnline  DriverStatus = "ONLINE"
	DriverStatusOffline DriverStatus = "OFFLINE"
)

// Driver represents a driver in the system.
type Driver struct {
	ID             string
	Name           string
	Phone          string
	Status         DriverStatus
	Rating         float64 // Average stars, 0 when unrated.
	RatingCount    int
	TripCount      int            // Completed trips.
	ProvinceVisits map[string]int // Completed trips per pickup province.
}

// Available reports whether the driver accepts new work.
func (d *Driver) Available() bool {
	return d.Status == DriverStatusOnline
}

// DriverCandidate is a driver eligible for a given pickup point and window.
type DriverCandidate struct {
	DriverID       string
	Name           string
	Phone          string
	Available      bool
	Rating         float64
	RatingCount    int
	Experience     int
	ProvinceVisits map[string]int
	DistanceKm     float64
}

// NewDriverCandidate projects a driver into a candidate.
func NewDriverCandidate(d *Driver, distanceKm float64) DriverCandidate {
	return DriverCandidate{
		DriverID:       d.ID,
		Name:           d.Name,
		Phone:          d.Phone,
		Available:      d.Available(),
		Rating:         d.Rating,
		RatingCount:    d.RatingCount,
		Experience:     d.TripCount,
		ProvinceVisits: d.ProvinceVisits,
		DistanceKm:     distanceKm,
	}
}

// VisitsTo returns how many completed trips the driver has had in province.
func (c DriverCandidate) VisitsTo(province string) int {
	if province == "" {
		return 0
	}
	return c.ProvinceVisits[province]
}
