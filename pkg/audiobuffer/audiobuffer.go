// Package audiobuffer holds the sliding 5-second window of recent PCM audio
// a session's scheduler extracts into an AudioWindow for the voice
// detector (§4.3).
package audiobuffer

import (
	"sync"
	"time"

	"github.com/insighthire/engine/pkg/media"
)

const (
	// WindowDuration is how far back Append retains chunks.
	WindowDuration = 5 * time.Second
	// InactivityFlush is the scheduler's threshold for a final voice
	// analysis followed by a buffer clear.
	InactivityFlush = 2 * time.Second
	// NoAudioDeclaration is the threshold past which the scheduler reports
	// no_audio instead of running a stale window.
	NoAudioDeclaration = 5 * time.Second
)

type entry struct {
	chunk     media.AudioChunk
	arrivedAt time.Time
}

// AudioBuffer is the sliding window for one session; the scheduler is its
// sole owner per session. Every method takes the buffer's mutex, so calls
// from concurrent goroutines are safe.
type AudioBuffer struct {
	mu                  sync.Mutex
	entries             []entry
	audioStartedAt      time.Time
	lastAudioReceivedAt time.Time
}

// New returns an empty AudioBuffer.
func New() *AudioBuffer {
	return &AudioBuffer{}
}

// Append records chunk's arrival, evicts entries older than WindowDuration,
// and stamps audioStartedAt on first use.
func (b *AudioBuffer) Append(chunk media.AudioChunk) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if b.audioStartedAt.IsZero() {
		b.audioStartedAt = now
	}
	b.lastAudioReceivedAt = now

	b.entries = append(b.entries, entry{chunk: chunk, arrivedAt: now})
	b.evictLocked(now)
}

func (b *AudioBuffer) evictLocked(now time.Time) {
	cutoff := now.Add(-WindowDuration)
	i := 0
	for ; i < len(b.entries); i++ {
		if b.entries[i].arrivedAt.After(cutoff) {
			break
		}
	}
	b.entries = b.entries[i:]
}

// ExtractWindow concatenates the remaining chunks in arrival order. If
// sample rates differ across the window, the most recent chunk's rate wins
// and any chunk recorded at a different rate is discarded, per §4.3.
func (b *AudioBuffer) ExtractWindow() media.AudioWindow {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) == 0 {
		return media.AudioWindow{}
	}

	rate := b.entries[len(b.entries)-1].chunk.SampleRate
	var samples []float32
	for _, e := range b.entries {
		if e.chunk.SampleRate != rate {
			continue
		}
		samples = append(samples, e.chunk.Samples...)
	}

	return media.AudioWindow{
		Start:      b.entries[0].arrivedAt,
		End:        b.entries[len(b.entries)-1].arrivedAt,
		Samples:    samples,
		SampleRate: rate,
	}
}

// Clear empties the buffer without resetting audioStartedAt, since the
// voice cadence (§4.4) is computed relative to the session's first-ever
// audio, not the most recent flush.
func (b *AudioBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}

// Empty reports whether the buffer currently holds any chunks.
func (b *AudioBuffer) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries) == 0
}

// AudioStartedAt returns the time of the first-ever Append, or the zero
// time if no audio has arrived yet.
func (b *AudioBuffer) AudioStartedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.audioStartedAt
}

// LastAudioReceivedAt returns the arrival time of the most recent Append.
func (b *AudioBuffer) LastAudioReceivedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAudioReceivedAt
}
