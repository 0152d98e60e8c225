package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles short-lived assignment locks in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// Acquire attempts to take the lock named key for ttl.
// It returns a token for Release, or "" if the lock is already held.
func (s *LockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Release frees the lock if it is still held with token.
func (s *LockStore) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, s.client, []string{lockKey(key)}, token).Err()
}

// DriverLockKey names the assignment lock of a driver.
func DriverLockKey(driverID string) string {
	return fmt.Sprintf("driver:%s", driverID)
}

// VehicleLockKey names the assignment lock of a vehicle.
func VehicleLockKey(vehicleID string) string {
	return fmt.Sprintf("vehicle:%s", vehicleID)
}

func lockKey(key string) string {
	return "lock:" + key
}
