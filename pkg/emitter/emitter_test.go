package emitter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/insighthire/engine/pkg/canonicalize"
	"github.com/insighthire/engine/pkg/store/iface"
	"github.com/insighthire/engine/pkg/store/providers/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	iface.Store
}

func (failingStore) PersistSample(ctx context.Context, sessionID string, sample canonicalize.Sample) error {
	return errors.New("boom")
}

type failingBus struct{}

func (failingBus) Broadcast(ctx context.Context, sessionID string, event string, payload any) error {
	return errors.New("boom")
}

func TestEmitter_Emit_PersistsThenBroadcasts(t *testing.T) {
	store := inmemory.New()
	bus := inmemory.NewEventBus()
	ch := bus.Subscribe("sess-1")

	e := New(store, bus, nil)
	sample := canonicalize.Sample{Timestamp: time.Now()}
	e.Emit(context.Background(), "sess-1", sample)

	samples, err := store.ListSamples(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, samples, 1)

	select {
	case ev := <-ch:
		assert.Equal(t, "analysis_update", ev.Name)
	case <-time.After(time.Second):
		t.Fatal("expected broadcast not received")
	}
}

func TestEmitter_Emit_StoreErrorDoesNotPreventBroadcast(t *testing.T) {
	bus := inmemory.NewEventBus()
	ch := bus.Subscribe("sess-1")

	e := New(failingStore{}, bus, nil)
	e.Emit(context.Background(), "sess-1", canonicalize.Sample{Timestamp: time.Now()})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected broadcast not received despite store error")
	}
}

func TestEmitter_Emit_BusErrorDoesNotPanic(t *testing.T) {
	store := inmemory.New()
	e := New(store, failingBus{}, nil)

	assert.NotPanics(t, func() {
		e.Emit(context.Background(), "sess-1", canonicalize.Sample{Timestamp: time.Now()})
	})
}
