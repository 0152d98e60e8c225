package domain

import (
	"math"
	"time"
)

const earthRadiusKm = 6371.0

// Point is a geographic location with its resolved address.
type Point struct {
	Lat      float64
	Lng      float64
	Address  string
	Province string // First-level administrative area, used for locality ranking.
}

// Valid reports whether the coordinates are within range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceKm returns the great-circle distance to q in kilometers.
func (p Point) DistanceKm(q Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := q.Lat * math.Pi / 180
	dLat := (q.Lat - p.Lat) * math.Pi / 180
	dLng := (q.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Place is a geocoding result.
type Place struct {
	Point
	Name    string
	PlaceID string
}

// TimeWindow is a closed interval [Start, End].
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// InstantWindow is the degenerate window used for trips that start now.
func InstantWindow(now time.Time) TimeWindow {
	return TimeWindow{Start: now, End: now}
}

// ScheduledWindow returns [start, end], with end defaulting to start.
func ScheduledWindow(start, end time.Time) TimeWindow {
	if end.IsZero() || end.Before(start) {
		end = start
	}
	return TimeWindow{Start: start, End: end}
}

// Overlaps reports whether the two closed intervals share at least one instant.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return !w.Start.After(o.End) && !o.Start.After(w.End)
}
