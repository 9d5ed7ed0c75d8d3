// internal/notify/throttle.go
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"maintenance-dispatch/internal/models"

	"github.com/redis/go-redis/v9"
)

// WindowFor maps a rule frequency to its suppression window. IMMEDIATE has
// no window.
func WindowFor(freq models.NotifyFrequency) (time.Duration, bool) {
	switch freq {
	case models.FreqHourly:
		return time.Hour, true
	case models.FreqDaily:
		return 24 * time.Hour, true
	case models.FreqWeekly:
		return 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Throttle enforces at-most-one firing per rule per window. Acquire must be
// atomic: two near-simultaneous events for the same rule must never both
// pass.
type Throttle interface {
	Acquire(ctx context.Context, ruleID string, window time.Duration) (bool, error)
}

// RedisThrottle implements the window with SET NX + TTL, which is a single
// atomic check-and-set on the Redis side and works across processes.
type RedisThrottle struct {
	client *redis.Client
}

func NewRedisThrottle(client *redis.Client) *RedisThrottle {
	return &RedisThrottle{client: client}
}

func (t *RedisThrottle) Acquire(ctx context.Context, ruleID string, window time.Duration) (bool, error) {
	return t.client.SetNX(ctx, throttleKey(ruleID), time.Now().UTC().Format(time.RFC3339), window).Result()
}

func throttleKey(ruleID string) string {
	return fmt.Sprintf("notify:throttle:%s", ruleID)
}

// MemoryThrottle is the in-process implementation used when Redis is not
// configured and in tests. A mutex makes the check-then-act atomic.
type MemoryThrottle struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (t *MemoryThrottle) Acquire(_ context.Context, ruleID string, window time.Duration) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if expiry, ok := t.expires[ruleID]; ok && now.Before(expiry) {
		return false, nil
	}
	t.expires[ruleID] = now.Add(window)
	return true, nil
}
