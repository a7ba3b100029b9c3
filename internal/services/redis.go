package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// tripLockTTL bounds how long a crashed caller can hold a trip lock.
const tripLockTTL = 10 * time.Second

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// AcquireTripLock serializes state-mutating operations per trip id. It
// polls SETNX until the lock is taken or the context is done, and returns
// the unlock function. When Redis is not configured (unit tests,
// single-process deployments) it degrades to a no-op and the database
// transaction is the only serialization.
func AcquireTripLock(ctx context.Context, tripID uint) (func(), error) {
	if RedisClient == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf("trip:lock:%d", tripID)
	for {
		ok, err := RedisClient.SetNX(ctx, key, "1", tripLockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire trip lock: %v", err)
		}
		if ok {
			return func() {
				RedisClient.Del(context.Background(), key)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// CacheTripSnapshot stores a rendered trip snapshot for fast reads
func CacheTripSnapshot(ctx context.Context, tripID uint, snapshot interface{}) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("trip:snapshot:%d", tripID)
	return RedisClient.Set(ctx, key, data, 5*time.Minute).Err()
}

// GetTripSnapshot retrieves a cached trip snapshot; found is false on miss
func GetTripSnapshot(ctx context.Context, tripID uint, out interface{}) (bool, error) {
	if RedisClient == nil {
		return false, nil
	}

	key := fmt.Sprintf("trip:snapshot:%d", tripID)
	data, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, err
	}
	return true, nil
}

// InvalidateTripSnapshot drops the cached snapshot after a mutation
func InvalidateTripSnapshot(ctx context.Context, tripID uint) {
	if RedisClient == nil {
		return
	}
	key := fmt.Sprintf("trip:snapshot:%d", tripID)
	RedisClient.Del(ctx, key)
}

// PublishTripUpdate publishes a trip status update to Redis pub/sub
func PublishTripUpdate(ctx context.Context, tripID uint, status string, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}

	updateData := map[string]interface{}{
		"tripId":    tripID,
		"status":    status,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "trip:updates", jsonData).Err()
}
