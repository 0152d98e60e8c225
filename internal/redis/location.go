package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	driverLocationKey  = "drivers:locations"
	vehicleLocationKey = "vehicles:locations"
)

// Location is a member of a geo index with its distance from the query point.
type Location struct {
	ID         string
	Lat        float64
	Lng        float64
	DistanceKm float64
}

// LocationStore keeps driver and vehicle positions in Redis geo indexes.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateDriverLocation stores a driver's position using GEOADD.
func (s *LocationStore) UpdateDriverLocation(ctx context.Context, driverID string, lat, lng float64) error {
	return s.add(ctx, driverLocationKey, driverID, lat, lng)
}

// UpdateVehicleLocation stores a vehicle's position using GEOADD.
func (s *LocationStore) UpdateVehicleLocation(ctx context.Context, vehicleID string, lat, lng float64) error {
	return s.add(ctx, vehicleLocationKey, vehicleID, lat, lng)
}

// FindNearbyDrivers returns drivers within radiusKm, nearest first.
func (s *LocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]Location, error) {
	return s.search(ctx, driverLocationKey, lat, lng, radiusKm)
}

// FindNearbyVehicles returns vehicles within radiusKm, nearest first.
func (s *LocationStore) FindNearbyVehicles(ctx context.Context, lat, lng, radiusKm float64) ([]Location, error) {
	return s.search(ctx, vehicleLocationKey, lat, lng, radiusKm)
}

// RemoveDriver removes a driver from the geo index.
func (s *LocationStore) RemoveDriver(ctx context.Context, driverID string) error {
	return s.client.ZRem(ctx, driverLocationKey, driverID).Err()
}

func (s *LocationStore) add(ctx context.Context, key, id string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, key, &redis.GeoLocation{
		Name:      id,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

func (s *LocationStore) search(ctx context.Context, key string, lat, lng, radiusKm float64) ([]Location, error) {
	results, err := s.client.GeoSearchLocation(ctx, key, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]Location, 0, len(results))
	for _, r := range results {
		locations = append(locations, Location{
			ID:         r.Name,
			Lat:        r.Latitude,
			Lng:        r.Longitude,
			DistanceKm: r.Dist,
		})
	}
	return locations, nil
}
