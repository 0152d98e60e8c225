package repository

import (
	"context"

	"tripdispatch/internal/domain"
)

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// GetByID retrieves a vehicle by ID, including maintenance windows.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetByIDs retrieves the vehicles with the given IDs. Unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Vehicle, error)
}
