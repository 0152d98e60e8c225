package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DriverCacheTTL bounds how stale a cached driver profile can be.
const DriverCacheTTL = 30 * time.Second

const driverCachePrefix = "cache:driver:"

// CachedDriver represents a cached driver profile.
type CachedDriver struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Phone          string         `json:"phone"`
	Status         string         `json:"status"`
	Rating         float64        `json:"rating"`
	RatingCount    int            `json:"rating_count"`
	TripCount      int            `json:"trip_count"`
	ProvinceVisits map[string]int `json:"province_visits,omitempty"`
}

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// InvalidateDriver removes a driver from cache.
func (s *CacheStore) InvalidateDriver(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, driverCachePrefix+driverID).Err()
}

// GetDriversBatch retrieves multiple drivers from cache using a pipeline.
// Returns a map of driverID -> CachedDriver, and a slice of missing IDs.
func (s *CacheStore) GetDriversBatch(ctx context.Context, driverIDs []string) (map[string]*CachedDriver, []string, error) {
	result := make(map[string]*CachedDriver, len(driverIDs))
	if len(driverIDs) == 0 {
		return result, nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(driverIDs))
	for i, id := range driverIDs {
		cmds[i] = pipe.Get(ctx, driverCachePrefix+id)
	}

	// Missing keys surface as redis.Nil on the individual commands.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, nil, err
	}

	var missing []string
	for i, cmd := range cmds {
		id := driverIDs[i]
		data, err := cmd.Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}

		var driver CachedDriver
		if err := json.Unmarshal(data, &driver); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = &driver
	}

	return result, missing, nil
}

// SetDriversBatch stores multiple drivers in cache using a pipeline.
func (s *CacheStore) SetDriversBatch(ctx context.Context, drivers []*CachedDriver) error {
	if len(drivers) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, driver := range drivers {
		data, err := json.Marshal(driver)
		if err != nil {
			continue
		}
		pipe.Set(ctx, driverCachePrefix+driver.ID, data, DriverCacheTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}
