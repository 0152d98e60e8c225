package repository

import "context"

// Store groups the repositories that can take part in one transaction.
type Store interface {
	Trips() TripRepository
	Drivers() DriverRepository
	Vehicles() VehicleRepository
	Promotions() PromotionRepository
	Ratings() RatingRepository

	// Lock serialises concurrent transactions on key until the current
	// transaction ends.
	Lock(ctx context.Context, key string) error
}

// Transactor runs a function inside a single all-or-nothing transaction.
type Transactor interface {
	// WithinTx commits if fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}
