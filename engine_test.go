package devcred

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

// newTestEngine builds an engine against miniredis with the rotate throttle
// disabled so tests can drive hot loops against a single family. mutate may
// be nil.
func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *fakeClock) {
	t.Helper()

	_, client := newTestRedis(t)
	clock := newFakeClock()

	cfg := DefaultConfig()
	cfg.Security.EnableRotateThrottle = false
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, clock
}
