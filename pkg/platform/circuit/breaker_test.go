package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failuresToOpen counts consecutive failures until the breaker opens.
func failuresToOpen(t *testing.T, b *Breaker) int {
	t.Helper()
	for n := 1; n <= 100; n++ {
		if _, change := b.RecordFailure(); change.Opened {
			return n
		}
	}
	t.Fatal("breaker never opened")
	return 0
}

// successesToClose counts consecutive successes until an open breaker closes.
func successesToClose(t *testing.T, b *Breaker) int {
	t.Helper()
	require.True(t, b.IsOpen())
	for n := 1; n <= 100; n++ {
		if _, change := b.RecordSuccess(); change.Closed {
			return n
		}
	}
	t.Fatal("breaker never closed")
	return 0
}

// Thresholds arrive from AUTHORITY_BREAKER_FAILURES and
// AUTHORITY_BREAKER_SUCCESSES; unset or non-positive values keep the defaults.
func TestBreakerThresholdsFromConfig(t *testing.T) {
	tests := []struct {
		name          string
		failures      int
		successes     int
		wantFailures  int
		wantSuccesses int
	}{
		{"config defaults", 5, 2, 5, 2},
		{"single failure trips", 1, 1, 1, 1},
		{"zero keeps defaults", 0, 0, defaultFailureThreshold, defaultSuccessThreshold},
		{"negative keeps defaults", -3, -1, defaultFailureThreshold, defaultSuccessThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("authority", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.successes))

			assert.Equal(t, tt.wantFailures, failuresToOpen(t, b))
			assert.Equal(t, tt.wantSuccesses, successesToClose(t, b))
			assert.Equal(t, StateClosed, b.State())
		})
	}
}

// Each step records one gateway call outcome: 'F' failed, 'S' answered.
// wantFallback is the routing hint per step; wantOpen the state after it.
func TestBreakerGatewayOutages(t *testing.T) {
	tests := []struct {
		name         string
		outcomes     string
		wantFallback string
		wantOpen     string
	}{
		{
			name:         "isolated errors surface without opening",
			outcomes:     "FSFS",
			wantFallback: "....",
			wantOpen:     "....",
		},
		{
			name:         "outage opens on the third error",
			outcomes:     "FFFF",
			wantFallback: "..XX",
			wantOpen:     "..XX",
		},
		{
			name:         "recovery needs two answers in a row",
			outcomes:     "FFFSS",
			wantFallback: "..XX.",
			wantOpen:     "..XX.",
		},
		{
			name:         "a relapse while open restarts recovery",
			outcomes:     "FFFSFSS",
			wantFallback: "..XXXX.",
			wantOpen:     "..XXXX.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("authority", WithFailureThreshold(3), WithSuccessThreshold(2))

			for i, outcome := range tt.outcomes {
				var fallback bool
				if outcome == 'F' {
					fallback, _ = b.RecordFailure()
				} else {
					usePrimary, _ := b.RecordSuccess()
					fallback = !usePrimary
				}
				assert.Equal(t, tt.wantFallback[i] == 'X', fallback, "fallback hint at step %d", i)
				assert.Equal(t, tt.wantOpen[i] == 'X', b.IsOpen(), "state after step %d", i)
			}
		})
	}
}

func TestBreakerReportsEachTransitionOnce(t *testing.T) {
	b := New("authority", WithFailureThreshold(1), WithSuccessThreshold(1))

	_, change := b.RecordFailure()
	assert.True(t, change.Opened)
	_, change = b.RecordFailure()
	assert.Equal(t, Change{}, change, "already open")

	_, change = b.RecordSuccess()
	assert.True(t, change.Closed)
	_, change = b.RecordSuccess()
	assert.Equal(t, Change{}, change, "already closed")
}

func TestBreakerResetAndNaming(t *testing.T) {
	b := New("authority", WithFailureThreshold(1))
	assert.Equal(t, "authority", b.Name())
	assert.Equal(t, "closed", b.State().String())

	b.RecordFailure()
	assert.Equal(t, "open", b.State().String())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, 1, failuresToOpen(t, b), "reset clears the failure count")
}
