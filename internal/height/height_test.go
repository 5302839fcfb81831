package height

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchledger/internal/registry/models"
	dErrors "batchledger/pkg/domain-errors"
)

func TestManual(t *testing.T) {
	ctx := context.Background()
	m := NewManual(10)

	h, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Height(10), h)

	assert.Equal(t, models.Height(15), m.Advance(5))

	require.NoError(t, m.Set(15), "setting the same height is allowed")
	require.NoError(t, m.Set(40))

	err = m.Set(39)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRegression)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	h, _ = m.Current(ctx)
	assert.Equal(t, models.Height(40), h)
}

func TestManualConcurrentAdvance(t *testing.T) {
	m := NewManual(0)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Advance(2)
		}()
	}
	wg.Wait()
	h, _ := m.Current(context.Background())
	assert.Equal(t, models.Height(100), h)
}

func TestTickerAdvancesUntilCancelled(t *testing.T) {
	m := NewManual(0)
	ticker := NewTicker(m, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ticker.Run(ctx) }()

	require.Eventually(t, func() bool {
		h, _ := m.Current(context.Background())
		return h >= 3
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	stopped, _ := m.Current(context.Background())
	time.Sleep(10 * time.Millisecond)
	after, _ := m.Current(context.Background())
	assert.Equal(t, stopped, after)
}
