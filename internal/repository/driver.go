package repository

import (
	"context"

	"tripdispatch/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByIDs retrieves the drivers with the given IDs. Unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Driver, error)

	// UpdateStatus updates the availability of a driver.
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error

	// RecordCompletedTrip increments the driver's experience and the visit
	// count of province.
	RecordCompletedTrip(ctx context.Context, id string, province string) error

	// AddRating folds a new star score into the driver's average.
	AddRating(ctx context.Context, id string, stars int) error
}
