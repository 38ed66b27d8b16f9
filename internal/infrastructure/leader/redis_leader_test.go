package leader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHeartbeatStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	refreshed := make(chan struct{}, 16)
	done := make(chan struct{})

	go func() {
		runHeartbeat(ctx, time.Millisecond, func(context.Context) bool {
			refreshed <- struct{}{}
			return true
		})
		close(done)
	}()

	// Let it refresh at least once, then cancel.
	select {
	case <-refreshed:
	case <-time.After(time.Second):
		t.Fatal("heartbeat never refreshed")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("heartbeat did not stop on cancel")
	}
}

func TestRunHeartbeatStopsWhenLeaseLost(t *testing.T) {
	done := make(chan struct{})
	calls := 0

	go func() {
		runHeartbeat(context.Background(), time.Millisecond, func(context.Context) bool {
			calls++
			return calls < 3
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("heartbeat did not stop after losing the lease")
	}
	assert.Equal(t, 3, calls)
}

func TestStopHeartbeatCancelsPendingBeat(t *testing.T) {
	// A long interval keeps the goroutine parked on the ticker, so no
	// redis call ever fires; stopHeartbeat must still terminate it.
	election := NewRedisLeaderElection(nil, time.Hour, time.Hour)
	election.startHeartbeat("instance-1")

	election.mu.Lock()
	require.NotNil(t, election.cancelHeartbeat)
	election.mu.Unlock()

	election.stopHeartbeat()

	election.mu.Lock()
	assert.Nil(t, election.cancelHeartbeat)
	election.mu.Unlock()

	// Idempotent.
	election.stopHeartbeat()
}

func TestHeartbeatIntervalDefaultsToThirdOfTTL(t *testing.T) {
	election := NewRedisLeaderElection(nil, 30*time.Second, 0)
	assert.Equal(t, 10*time.Second, election.heartbeat)

	election = NewRedisLeaderElection(nil, 30*time.Second, 5*time.Second)
	assert.Equal(t, 5*time.Second, election.heartbeat)
}
