package manager

import (
	"context"
	"log/slog"

	"github.com/insighthire/engine/pkg/audiobuffer"
	"github.com/insighthire/engine/pkg/canonicalize"
	"github.com/insighthire/engine/pkg/emitter"
	"github.com/insighthire/engine/pkg/intake"
	"github.com/insighthire/engine/pkg/media"
	"github.com/insighthire/engine/pkg/scheduler"
	sessioniface "github.com/insighthire/engine/pkg/session/iface"
)

// session is the SessionManager's concrete, privately-owned Session
// implementation: a MediaIntake, an AudioBuffer, and a Scheduler sharing
// one lifecycle.
type session struct {
	id        string
	jobRoleID string
	intake    *intake.MediaIntake
	audioBuf  *audiobuffer.AudioBuffer
	sched     *scheduler.Scheduler
}

func newSession(id, jobRoleID string, detectors scheduler.Detectors, em *emitter.Emitter, logger *slog.Logger) *session {
	in := intake.New()
	buf := audiobuffer.New()
	sched := scheduler.New(id, detectors, in, buf, em, logger)
	return &session{id: id, jobRoleID: jobRoleID, intake: in, audioBuf: buf, sched: sched}
}

func (s *session) ID() string        { return s.id }
func (s *session) JobRoleID() string { return s.jobRoleID }
func (s *session) State() sessioniface.State { return s.sched.State() }

func (s *session) OfferVideo(frame media.VideoFrame) { s.intake.OfferVideo(frame) }
func (s *session) OfferAudio(chunk media.AudioChunk) { s.intake.OfferAudio(chunk) }

func (s *session) Stop() { s.sched.Stop() }

func (s *session) Done() <-chan struct{} { return s.sched.Done() }

// LastSample returns the most recent Sample the session's scheduler has
// emitted, the total count emitted so far, and whether any has been
// emitted yet.
func (s *session) LastSample() (canonicalize.Sample, int, bool) { return s.sched.LastSample() }

func (s *session) run(ctx context.Context) { s.sched.Run(ctx) }

var _ sessioniface.Session = (*session)(nil)
