package intake

import (
	"testing"

	"github.com/insighthire/engine/pkg/media"
	"github.com/stretchr/testify/assert"
)

func TestMediaIntake_DrainLatestVideo_ReturnsMostRecent(t *testing.T) {
	m := New()
	for i := 0; i < 3; i++ {
		m.OfferVideo(media.VideoFrame{Width: i + 1})
	}

	frame, ok := m.DrainLatestVideo()
	assert.True(t, ok)
	assert.Equal(t, 3, frame.Width)

	_, ok = m.DrainLatestVideo()
	assert.False(t, ok, "queue should be empty after drain")
}

func TestMediaIntake_OfferVideo_DropsNewestPastCapacity(t *testing.T) {
	m := New()
	for i := 0; i < 100; i++ {
		m.OfferVideo(media.VideoFrame{Width: i})
	}

	m.mu.Lock()
	count := len(m.video)
	m.mu.Unlock()
	assert.Equal(t, queueCapacity, count)
}

func TestMediaIntake_OfferAudio_UpdatesLastReceivedAt(t *testing.T) {
	m := New()
	assert.True(t, m.LastAudioReceivedAt().IsZero())

	m.OfferAudio(media.AudioChunk{SampleRate: 16000})
	assert.False(t, m.LastAudioReceivedAt().IsZero())
}

func TestMediaIntake_Close_DropsSubsequentOffers(t *testing.T) {
	m := New()
	m.Close()
	m.OfferVideo(media.VideoFrame{Width: 5})

	_, ok := m.DrainLatestVideo()
	assert.False(t, ok)
}
