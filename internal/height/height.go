// Package height provides the externally advanced logical clock that batch
// expiration is measured against. Every source is monotonic: the height a
// reader observes never decreases.
package height

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"batchledger/internal/registry/models"
	dErrors "batchledger/pkg/domain-errors"
)

// ErrRegression is returned when a caller tries to move the clock backwards.
var ErrRegression = errors.New("height cannot decrease")

// Manual is a height source advanced explicitly. Tests and development
// setups drive it directly; the ticker drives it in production.
type Manual struct {
	current atomic.Uint64
}

func NewManual(start models.Height) *Manual {
	m := &Manual{}
	m.current.Store(uint64(start))
	return m
}

func (m *Manual) Current(context.Context) (models.Height, error) {
	return models.Height(m.current.Load()), nil
}

// Advance moves the clock forward by n blocks and returns the new height.
func (m *Manual) Advance(n uint64) models.Height {
	return models.Height(m.current.Add(n))
}

// Set jumps to h. Setting a lower height fails and leaves the clock as is.
func (m *Manual) Set(h models.Height) error {
	for {
		cur := m.current.Load()
		if uint64(h) < cur {
			return dErrors.Wrap(ErrRegression, dErrors.CodeInvalidInput, "height must not decrease")
		}
		if m.current.CompareAndSwap(cur, uint64(h)) {
			return nil
		}
	}
}

// Ticker advances a Manual source by one block per interval.
type Ticker struct {
	source   *Manual
	interval time.Duration
	logger   *slog.Logger
}

func NewTicker(source *Manual, interval time.Duration, logger *slog.Logger) *Ticker {
	return &Ticker{source: source, interval: interval, logger: logger}
}

// Run blocks until ctx is done.
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h := t.source.Advance(1)
			if t.logger != nil {
				t.logger.DebugContext(ctx, "block height advanced", "height", uint64(h))
			}
		}
	}
}

// Redis reads the height from a shared key so several registry replicas
// observe one clock. Whatever advances the chain writes the key; Advance is
// provided for that writer and for tests.
type Redis struct {
	client redis.Cmdable
	key    string
}

func NewRedis(client redis.Cmdable, key string) *Redis {
	return &Redis{client: client, key: key}
}

// Current returns 0 while the key is unset.
func (r *Redis) Current(ctx context.Context) (models.Height, error) {
	v, err := r.client.Get(ctx, r.key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read block height")
	}
	return models.Height(v), nil
}

// Advance increments the shared height by n.
func (r *Redis) Advance(ctx context.Context, n uint64) (models.Height, error) {
	v, err := r.client.IncrBy(ctx, r.key, int64(n)).Result()
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to advance block height")
	}
	return models.Height(v), nil
}
