package domain

import "time"

// Rating is a customer's score for the driver of a finished trip.
type Rating struct {
	ID         string
	TripID     string
	DriverID   string
	CustomerID string
	Stars      int
	Comment    string
	CreatedAt  time.Time
}

// ValidateStars checks the 1..5 range.
func ValidateStars(stars int) error {
	if stars < 1 || stars > 5 {
		return Errorf(KindInvalidStars, "stars must be between 1 and 5, got %d", stars)
	}
	return nil
}
