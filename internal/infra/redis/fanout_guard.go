package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orcamentox/orcamentox/internal/guard"
	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultFanoutGuardTTL = 24 * time.Hour
	fanoutKeyPrefix       = "fanout:request:"
)

var _ guard.FanoutGuard = (*RedisFanoutGuard)(nil)

// RedisFanoutGuard marks a request as notified with SET NX EX.
type RedisFanoutGuard struct {
	client *goredis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisFanoutGuard(client *goredis.Client, ttl time.Duration) (*RedisFanoutGuard, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultFanoutGuardTTL
	}

	return &RedisFanoutGuard{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (g *RedisFanoutGuard) Acquire(ctx context.Context, requestID string) (bool, error) {
	key, err := g.key(requestID)
	if err != nil {
		return false, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	acquired, err := g.client.SetNX(ctx, key, g.now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire fan-out guard: %w", err)
	}

	return acquired, nil
}

func (g *RedisFanoutGuard) Release(ctx context.Context, requestID string) error {
	key, err := g.key(requestID)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := g.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release fan-out guard: %w", err)
	}

	return nil
}

func (g *RedisFanoutGuard) key(requestID string) (string, error) {
	if g == nil || g.client == nil {
		return "", fmt.Errorf("fan-out guard is not initialized")
	}

	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return "", fmt.Errorf("request id is required")
	}

	return fanoutKeyPrefix + requestID, nil
}
