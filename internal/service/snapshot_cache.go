package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const maxRetryBackoff = 30 * time.Second

// ErrSnapshotDegraded reports that the latest refresh failed.
var ErrSnapshotDegraded = errors.New("snapshot refresh failed")

// SnapshotCache holds a whole-table snapshot loaded from a slow source and
// refreshes it eagerly once it expires. A failed refresh never surfaces to
// callers: the last good snapshot (or the zero value when there is none) is
// kept and the cache is marked degraded until a refresh succeeds.
type SnapshotCache[T any] struct {
	name   string
	ttl    time.Duration
	load   func(ctx context.Context) (T, error)
	shared *CacheService
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	value     T
	loaded    bool
	degraded  bool
	version   uint64
	expiresAt time.Time
}

// NewSnapshotCache constructs a cache named name. shared may be nil; when
// enabled the snapshot is also published to and read from Redis so replicas
// share one copy.
func NewSnapshotCache[T any](name string, ttl time.Duration, load func(ctx context.Context) (T, error), shared *CacheService, logger *zap.Logger) *SnapshotCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SnapshotCache[T]{name: name, ttl: ttl, load: load, shared: shared, logger: logger, now: time.Now}
}

// Get returns the current snapshot and its version, refreshing first when
// expired. The version changes every time a new snapshot is swapped in.
func (c *SnapshotCache[T]) Get(ctx context.Context) (T, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked(ctx)
	return c.value, c.version
}

// RefreshIfExpired reloads the snapshot when its lifetime has passed.
func (c *SnapshotCache[T]) RefreshIfExpired(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked(ctx)
}

// Reload drops the local and shared copies, reads the source again and
// reports whether the cache is degraded afterwards. The last-known snapshot
// survives a failed reload.
func (c *SnapshotCache[T]) Reload(ctx context.Context) error {
	if c.shared.Enabled() {
		_ = c.shared.Invalidate(ctx, c.sharedKey())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiresAt = time.Time{}
	c.refreshLocked(ctx)
	if c.degraded {
		return fmt.Errorf("snapshot %s: %w", c.name, ErrSnapshotDegraded)
	}
	return nil
}

// Invalidate forces the next access to reload from the source.
func (c *SnapshotCache[T]) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.expiresAt = time.Time{}
	c.mu.Unlock()
	if c.shared.Enabled() {
		_ = c.shared.Invalidate(ctx, c.sharedKey())
	}
}

// Degraded reports whether the last refresh failed.
func (c *SnapshotCache[T]) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// Loaded reports whether any snapshot was ever loaded successfully.
func (c *SnapshotCache[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func (c *SnapshotCache[T]) refreshLocked(ctx context.Context) {
	now := c.now()
	if !c.expiresAt.IsZero() && now.Before(c.expiresAt) {
		return
	}

	if c.shared.Enabled() {
		var cached T
		hit, err := c.shared.Get(ctx, c.sharedKey(), &cached)
		if err == nil && hit {
			c.swap(cached, now)
			return
		}
	}

	value, err := c.load(ctx)
	if err != nil {
		c.degraded = true
		backoff := c.ttl
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
		c.expiresAt = now.Add(backoff)
		c.logger.Warn("snapshot refresh failed, serving last known data",
			zap.String("cache", c.name),
			zap.Bool("has_snapshot", c.loaded),
			zap.Error(err),
		)
		return
	}
	c.swap(value, now)
	if c.shared.Enabled() {
		_ = c.shared.Set(ctx, c.sharedKey(), value, c.ttl)
	}
}

func (c *SnapshotCache[T]) swap(value T, now time.Time) {
	c.value = value
	c.loaded = true
	c.degraded = false
	c.version++
	c.expiresAt = now.Add(c.ttl)
}

func (c *SnapshotCache[T]) sharedKey() string {
	return "snapshot:" + c.name
}
