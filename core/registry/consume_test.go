package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cabmatch/core/model"
)

func TestConsumeHeartbeats(t *testing.T) {
	s := newStore()
	s.Register(mini("a"))

	in := make(chan Heartbeat, 3)
	in <- Heartbeat{DriverID: "ghost", At: t0}
	in <- Heartbeat{DriverID: "a", At: t0.Add(time.Minute), State: model.StateBusy}
	close(in)

	done := make(chan struct{})
	go func() {
		ConsumeHeartbeats(context.Background(), s, in, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop on closed channel")
	}

	d, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, model.StateBusy, d.State)
	assert.Equal(t, t0.Add(time.Minute), d.LastPing)
}

func TestConsumeHeartbeatsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ConsumeHeartbeats(ctx, newStore(), make(chan Heartbeat), nil)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop on cancel")
	}
}
