package livecalls

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Registry is the read-only view of in-progress calls consulted by the lead
// dispatcher. The telephony side owns the keys; this service never writes
// them.
type Registry interface {
	HasLiveCall(ctx context.Context, agentID string) (bool, error)
}

const keyPrefix = "livecall:"

// RedisRegistry reads live-call markers from Redis. A key livecall:<agentID>
// exists for exactly as long as the agent has a call up.
type RedisRegistry struct {
	client *redis.Client
}

func NewRedisRegistry(redisURL string) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisRegistry{client: client}, nil
}

func (r *RedisRegistry) HasLiveCall(ctx context.Context, agentID string) (bool, error) {
	count, err := r.client.Exists(ctx, keyPrefix+agentID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check live call for agent %s: %w", agentID, err)
	}
	return count > 0, nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

// NoopRegistry reports no live calls. Used when the registry is not
// configured so the dispatcher still works on floors without telephony
// integration.
type NoopRegistry struct{}

func NewNoopRegistry() *NoopRegistry {
	log.Printf("⚠️ Live-call registry disabled - dispatcher will never return 'live'")
	return &NoopRegistry{}
}

func (r *NoopRegistry) HasLiveCall(ctx context.Context, agentID string) (bool, error) {
	return false, nil
}
