// Package media defines the raw media types produced by session producers
// and consumed by detectors: decoded video frames and PCM audio.
package media

import "time"

// VideoFrame is a decoded RGB image captured during a session.
type VideoFrame struct {
	CapturedAt time.Time
	SessionID  string
	Pixels     []byte // row-major, 3 channels (R,G,B) per pixel
	Width      int
	Height     int
}

// Channels is always 3 (RGB) for a VideoFrame.
const Channels = 3

// AudioChunk is a slice of mono float32 PCM samples as received from a
// producer, along with the sample rate it was captured at.
type AudioChunk struct {
	ArrivedAt  time.Time
	SessionID  string
	Samples    []float32
	SampleRate int
}

// AudioWindow is the concatenation of AudioChunks within a buffer's active
// window. It is produced on demand and never mutated afterwards.
type AudioWindow struct {
	Start      time.Time
	End        time.Time
	Samples    []float32
	SampleRate int
}

// Duration returns the nominal duration of the window given its sample rate.
func (w AudioWindow) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// Empty reports whether the window carries no samples.
func (w AudioWindow) Empty() bool {
	return len(w.Samples) == 0
}
