package repository

import (
	"context"

	"tripdispatch/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip together with its assignments.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID, including its assignment history.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// ListByCustomer retrieves a customer's trips, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Trip, error)

	// ListByDriver retrieves the trips currently or previously assigned to a driver.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error)

	// Update stores trip if its persisted version equals expectedVersion,
	// and bumps the version. Returns ErrVersionConflict otherwise.
	Update(ctx context.Context, trip *domain.Trip, expectedVersion int) error

	// DriverHasConflict reports whether an active trip other than excludeTripID
	// holds driverID during any part of w.
	DriverHasConflict(ctx context.Context, driverID string, w domain.TimeWindow, excludeTripID string) (bool, error)

	// VehicleHasConflict reports whether an active trip other than excludeTripID
	// holds vehicleID during any part of w.
	VehicleHasConflict(ctx context.Context, vehicleID string, w domain.TimeWindow, excludeTripID string) (bool, error)

	// BusyDriverIDs returns the drivers held by an active trip during w.
	BusyDriverIDs(ctx context.Context, w domain.TimeWindow) (map[string]bool, error)

	// BusyVehicleIDs returns the vehicles held by an active trip during w.
	BusyVehicleIDs(ctx context.Context, w domain.TimeWindow) (map[string]bool, error)

	// AppendEvent adds an entry to the trip's transition log.
	AppendEvent(ctx context.Context, event *domain.TripEvent) error

	// ListEvents returns the transition log of a trip in order.
	ListEvents(ctx context.Context, tripID string) ([]*domain.TripEvent, error)
}
