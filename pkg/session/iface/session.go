// Package iface defines the Session contract owned exclusively by the
// SessionManager (§4.7) and the state machine a Scheduler drives it through.
package iface

import (
	"time"

	"github.com/insighthire/engine/pkg/canonicalize"
	"github.com/insighthire/engine/pkg/media"
)

// State is one of the four scheduler lifecycle states (§4.4).
type State string

const (
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

// Session is the per-interview handle exposed by the SessionManager to
// transport adapters. Implementations own a MediaIntake, an AudioBuffer, and
// a running scheduler loop.
type Session interface {
	ID() string
	JobRoleID() string
	State() State

	OfferVideo(frame media.VideoFrame)
	OfferAudio(chunk media.AudioChunk)

	// Stop requests cancellation; it returns once the scheduler's final
	// flush has completed or the 2s grace period has elapsed (§4.4).
	Stop()

	// Done is closed once the scheduler loop has exited, for callers that
	// want to wait on teardown without polling State().
	Done() <-chan struct{}
}

// View is a read-only snapshot of a Session used by the REST surface (§6.4)
// and by log/metric attribution, kept free of the mutexes and channels the
// live Session holds.
type View struct {
	SessionID      string
	JobRoleID      string
	State          State
	StartedAt      time.Time
	SamplesEmitted int

	// LastSample is the scheduler's most recently emitted Sample, the
	// "last known Sample" Lookup returns per §4.7. HasSample is false
	// until the first composite tick or final flush has emitted anything,
	// in which case LastSample is its zero value and should be ignored.
	LastSample canonicalize.Sample
	HasSample  bool
}
