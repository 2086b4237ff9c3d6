package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/insighthire/engine/pkg/canonicalize"
	"github.com/insighthire/engine/pkg/store/iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ListSamples_OrdersByTimestamp(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.PersistSample(ctx, "sess-1", canonicalize.Sample{Timestamp: now.Add(2 * time.Second)}))
	require.NoError(t, s.PersistSample(ctx, "sess-1", canonicalize.Sample{Timestamp: now}))

	samples, err := s.ListSamples(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.True(t, samples[0].Timestamp.Before(samples[1].Timestamp))
}

func TestStore_GetFinalScore_NotFound(t *testing.T) {
	s := New()
	_, err := s.GetFinalScore(context.Background(), "missing")
	assert.ErrorIs(t, err, iface.ErrFinalScoreNotFound)
}

func TestStore_PersistFinalScore_Overwrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.PersistFinalScore(ctx, iface.FinalScore{SessionID: "sess-1", SamplesAnalyzed: 1}))
	require.NoError(t, s.PersistFinalScore(ctx, iface.FinalScore{SessionID: "sess-1", SamplesAnalyzed: 2}))

	final, err := s.GetFinalScore(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, final.SamplesAnalyzed)
}

func TestEventBus_Broadcast_DeliversToSubscriber(t *testing.T) {
	b := NewEventBus()
	ch := b.Subscribe("sess-1")

	require.NoError(t, b.Broadcast(context.Background(), "sess-1", "analysis_update", 42))

	select {
	case ev := <-ch:
		assert.Equal(t, "analysis_update", ev.Name)
		assert.Equal(t, 42, ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("expected event not received")
	}
}

func TestEventBus_Broadcast_NonBlockingOnFullChannel(t *testing.T) {
	b := NewEventBus()
	b.Subscribe("sess-1") // capacity 16, never drained

	for i := 0; i < 32; i++ {
		require.NoError(t, b.Broadcast(context.Background(), "sess-1", "analysis_update", i))
	}
}
