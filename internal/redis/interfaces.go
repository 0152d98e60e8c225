package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the geo index operations.
type LocationStoreInterface interface {
	UpdateDriverLocation(ctx context.Context, driverID string, lat, lng float64) error
	UpdateVehicleLocation(ctx context.Context, vehicleID string, lat, lng float64) error
	FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]Location, error)
	FindNearbyVehicles(ctx context.Context, lat, lng, radiusKm float64) ([]Location, error)
	RemoveDriver(ctx context.Context, driverID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Release(ctx context.Context, key, token string) error
}

// DriverCacheInterface defines the driver profile cache.
type DriverCacheInterface interface {
	GetDriversBatch(ctx context.Context, driverIDs []string) (map[string]*CachedDriver, []string, error)
	SetDriversBatch(ctx context.Context, drivers []*CachedDriver) error
	InvalidateDriver(ctx context.Context, driverID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ DriverCacheInterface   = (*CacheStore)(nil)
)
