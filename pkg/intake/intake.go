// Package intake holds incoming media for one session in two bounded,
// drop-newest queues: the scheduler drains only the most recent frame/chunk
// on each tick, so stale media never biases inference (§4.2).
package intake

import (
	"sync"
	"time"

	"github.com/insighthire/engine/pkg/media"
)

const queueCapacity = 10

// MediaIntake holds the two per-session queues and tracks the last audio
// arrival time the scheduler's inactivity rule depends on.
type MediaIntake struct {
	mu     sync.Mutex
	video  []media.VideoFrame
	audio  []media.AudioChunk
	closed bool

	lastAudioReceivedAt time.Time
}

// New returns an empty MediaIntake.
func New() *MediaIntake {
	return &MediaIntake{}
}

// OfferVideo appends frame to the video queue, dropping it silently if the
// queue is already at capacity. Never blocks.
func (m *MediaIntake) OfferVideo(frame media.VideoFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if len(m.video) >= queueCapacity {
		return
	}
	m.video = append(m.video, frame)
}

// OfferAudio appends chunk to the audio queue under the same drop-newest
// policy and records the arrival time.
func (m *MediaIntake) OfferAudio(chunk media.AudioChunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.lastAudioReceivedAt = time.Now()
	if len(m.audio) >= queueCapacity {
		return
	}
	m.audio = append(m.audio, chunk)
}

// DrainLatestVideo removes and returns the most recent frame in the queue,
// discarding any older frames, and reports whether a frame was present.
func (m *MediaIntake) DrainLatestVideo() (media.VideoFrame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.video) == 0 {
		return media.VideoFrame{}, false
	}
	latest := m.video[len(m.video)-1]
	m.video = m.video[:0]
	return latest, true
}

// DrainLatestAudio is the audio analogue of DrainLatestVideo.
func (m *MediaIntake) DrainLatestAudio() (media.AudioChunk, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.audio) == 0 {
		return media.AudioChunk{}, false
	}
	latest := m.audio[len(m.audio)-1]
	m.audio = m.audio[:0]
	return latest, true
}

// LastAudioReceivedAt returns the last time OfferAudio was called, used by
// the scheduler's inactivity rule. Returns the zero time if no audio has
// ever been offered.
func (m *MediaIntake) LastAudioReceivedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAudioReceivedAt
}

// Close marks the intake closed; subsequent Offer calls are silently
// dropped instead of panicking, since producers racing a session teardown
// are expected and harmless.
func (m *MediaIntake) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.video = nil
	m.audio = nil
}
