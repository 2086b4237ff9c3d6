package audiobuffer

import (
	"testing"
	"time"

	"github.com/insighthire/engine/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioBuffer_ExtractWindow_ConcatenatesInOrder(t *testing.T) {
	b := New()
	b.Append(media.AudioChunk{Samples: []float32{1, 2}, SampleRate: 16000})
	b.Append(media.AudioChunk{Samples: []float32{3, 4}, SampleRate: 16000})

	window := b.ExtractWindow()
	assert.Equal(t, []float32{1, 2, 3, 4}, window.Samples)
	assert.Equal(t, 16000, window.SampleRate)
}

func TestAudioBuffer_ExtractWindow_MostRecentRateWins(t *testing.T) {
	b := New()
	b.Append(media.AudioChunk{Samples: []float32{1, 2}, SampleRate: 16000})
	b.Append(media.AudioChunk{Samples: []float32{3, 4}, SampleRate: 22050})

	window := b.ExtractWindow()
	assert.Equal(t, []float32{3, 4}, window.Samples)
	assert.Equal(t, 22050, window.SampleRate)
}

func TestAudioBuffer_AudioStartedAt_StampsOnceOnFirstAppend(t *testing.T) {
	b := New()
	require.True(t, b.AudioStartedAt().IsZero())

	b.Append(media.AudioChunk{Samples: []float32{1}, SampleRate: 16000})
	first := b.AudioStartedAt()
	require.False(t, first.IsZero())

	time.Sleep(5 * time.Millisecond)
	b.Append(media.AudioChunk{Samples: []float32{2}, SampleRate: 16000})
	assert.Equal(t, first, b.AudioStartedAt())
}

func TestAudioBuffer_Clear_EmptiesButKeepsAudioStartedAt(t *testing.T) {
	b := New()
	b.Append(media.AudioChunk{Samples: []float32{1}, SampleRate: 16000})
	started := b.AudioStartedAt()

	b.Clear()
	assert.True(t, b.Empty())
	assert.Equal(t, started, b.AudioStartedAt())
}

func TestAudioBuffer_ExtractWindow_EmptyBufferReturnsEmptyWindow(t *testing.T) {
	b := New()
	window := b.ExtractWindow()
	assert.True(t, window.Empty())
}
