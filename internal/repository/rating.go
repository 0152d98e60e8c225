package repository

import (
	"context"

	"tripdispatch/internal/domain"
)

// RatingRepository defines the persistence operations for trip ratings.
type RatingRepository interface {
	// Create persists a rating. Returns ErrDuplicate if the customer already
	// rated the trip.
	Create(ctx context.Context, rating *domain.Rating) error

	// Exists reports whether customerID has rated tripID.
	Exists(ctx context.Context, tripID, customerID string) (bool, error)

	// RatedTripIDs returns the set of trips customerID has rated.
	RatedTripIDs(ctx context.Context, customerID string) (map[string]bool, error)
}
