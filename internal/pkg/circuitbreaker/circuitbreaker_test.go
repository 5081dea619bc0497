package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDownstream = errors.New("connection refused")

func failingCall() (string, error) { return "", errDownstream }

func succeedingCall() (string, error) { return "ok", nil }

func tripBreaker(t *testing.T, cb *CircuitBreaker, failures int) {
	t.Helper()
	for i := 0; i < failures; i++ {
		_, err := ExecuteWithResult(cb, context.Background(), failingCall)
		require.ErrorIs(t, err, errDownstream)
	}
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("opens after max failures and rejects fast", func(t *testing.T) {
		cb := New(Config{Name: "agent:code", MaxFailures: 3, Timeout: time.Minute})

		tripBreaker(t, cb, 3)
		assert.Equal(t, StateOpen, cb.State())

		_, err := ExecuteWithResult(cb, context.Background(), succeedingCall)
		assert.ErrorIs(t, err, ErrCircuitOpen)
	})

	t.Run("closed breaker forgets failures on success", func(t *testing.T) {
		cb := New(Config{Name: "agent:docs", MaxFailures: 3, Timeout: time.Minute})

		tripBreaker(t, cb, 2)
		_, err := ExecuteWithResult(cb, context.Background(), succeedingCall)
		require.NoError(t, err)

		tripBreaker(t, cb, 2)
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("half-open probe closes on success", func(t *testing.T) {
		cb := New(Config{Name: "agent:code", MaxFailures: 1, Timeout: 10 * time.Millisecond})

		tripBreaker(t, cb, 1)
		require.Equal(t, StateOpen, cb.State())
		time.Sleep(20 * time.Millisecond)

		result, err := ExecuteWithResult(cb, context.Background(), succeedingCall)
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("half-open probe failure reopens", func(t *testing.T) {
		cb := New(Config{Name: "agent:code", MaxFailures: 1, Timeout: 10 * time.Millisecond})

		tripBreaker(t, cb, 1)
		time.Sleep(20 * time.Millisecond)

		_, err := ExecuteWithResult(cb, context.Background(), failingCall)
		require.ErrorIs(t, err, errDownstream)
		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("reset returns an open breaker to closed", func(t *testing.T) {
		cb := New(Config{Name: "agent:code", MaxFailures: 1, Timeout: time.Minute})

		tripBreaker(t, cb, 1)
		require.Equal(t, StateOpen, cb.State())

		cb.Reset()
		assert.Equal(t, StateClosed, cb.State())

		result, err := ExecuteWithResult(cb, context.Background(), succeedingCall)
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
	})

	t.Run("cancelled context is surfaced without a call", func(t *testing.T) {
		cb := New(DefaultConfig("agent:code"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ExecuteWithResult(cb, ctx, succeedingCall)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()

	first := registry.Get("agent:http://code.agents.local:8080")
	second := registry.Get("agent:http://code.agents.local:8080")
	other := registry.Get("agent:http://docs.agents.local:8080")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
}
