// Package manager implements the SessionManager (§4.7): the process-wide,
// mutex-guarded registry of live interview sessions. It is the only thing
// transport adapters and the REST surface ever talk to; nothing outside
// this package constructs a Scheduler directly.
package manager

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/insighthire/engine/pkg/aggregator"
	"github.com/insighthire/engine/pkg/detector"
	detectoriface "github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/emitter"
	"github.com/insighthire/engine/pkg/media"
	"github.com/insighthire/engine/pkg/scheduler"
	sessioniface "github.com/insighthire/engine/pkg/session/iface"
	"github.com/insighthire/engine/pkg/store/iface"
)

// ErrAlreadyRunning is returned by Start when sessionID already has a live
// scheduler; the caller is never handed a second one (§4.7).
var ErrAlreadyRunning = errors.New("manager: session already running")

// ErrSessionNotFound is returned by Stop, OfferVideo, and OfferAudio for an
// unknown sessionID (Lookup reports the same case with a false result). Per §7's error taxonomy this is a benign race
// with a concurrent Stop, not a caller error, and transport adapters should
// treat it as such rather than surfacing it loudly.
var ErrSessionNotFound = errors.New("manager: session not found")

// SessionManager owns every live session's lifecycle: starting a Scheduler,
// fanning media offers into it, and scheduling finalization once it stops.
type SessionManager struct {
	detectors scheduler.Detectors
	store     iface.Store
	bus       iface.EventBus
	emit      *emitter.Emitter
	agg       *aggregator.Aggregator
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	started  map[string]time.Time
}

// New builds a SessionManager over store and bus, constructing its detector
// set from the process-wide detector registry and cfg.
func New(cfg *detector.Config, store iface.Store, bus iface.EventBus, logger *slog.Logger) (*SessionManager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reg := detector.GetRegistry()
	face, err := reg.BuildVisual(detectoriface.ModalityFace, cfg)
	if err != nil {
		return nil, err
	}
	eye, err := reg.BuildVisual(detectoriface.ModalityEye, cfg)
	if err != nil {
		return nil, err
	}
	hand, err := reg.BuildVisual(detectoriface.ModalityHand, cfg)
	if err != nil {
		return nil, err
	}
	voice, err := reg.BuildVoice(cfg)
	if err != nil {
		return nil, err
	}

	em := emitter.New(store, bus, logger)
	return &SessionManager{
		detectors: scheduler.Detectors{Face: face, Eye: eye, Hand: hand, Voice: voice},
		store:     store,
		bus:       bus,
		emit:      em,
		agg:       aggregator.New(store),
		logger:    logger,
		sessions:  make(map[string]*session),
		started:   make(map[string]time.Time),
	}, nil
}

// Start creates and runs a new session's scheduler, returning the session ID
// actually used. It is a no-op returning ErrAlreadyRunning if sessionID
// already has a live scheduler — a second scheduler for the same session is
// never created (§4.7). If sessionID is empty, one is generated with
// google/uuid: the REST and socket transports always supply their own ID,
// but direct callers may rely on server-side generation.
func (m *SessionManager) Start(ctx context.Context, sessionID, jobRoleID string) (string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	m.mu.Lock()
	if _, exists := m.sessions[sessionID]; exists {
		m.mu.Unlock()
		return "", ErrAlreadyRunning
	}
	sess := newSession(sessionID, jobRoleID, m.detectors, m.emit, m.logger)
	m.sessions[sessionID] = sess
	m.started[sessionID] = time.Now()
	m.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	go sess.run(runCtx)
	go m.watchForCrash(sessionID, sess, cancel)

	m.logger.InfoContext(ctx, "session started", slog.String("session_id", sessionID), slog.String("job_role_id", jobRoleID))
	return sessionID, nil
}

// watchForCrash reclaims the registry slot for a session whose scheduler
// exited on its own (panic recovery or an internally triggered cancel)
// rather than through an explicit Stop call, so §6 P6's "no further
// broadcasts, Lookup returns None" guarantee holds on the Fatal path too.
func (m *SessionManager) watchForCrash(sessionID string, sess *session, cancel context.CancelFunc) {
	defer cancel()
	<-sess.Done()

	m.mu.Lock()
	cur, exists := m.sessions[sessionID]
	if !exists || cur != sess {
		m.mu.Unlock()
		return // already removed by an explicit Stop
	}
	delete(m.sessions, sessionID)
	delete(m.started, sessionID)
	m.mu.Unlock()

	ctx, finalizeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer finalizeCancel()
	if _, err := m.agg.Finalize(ctx, sess.ID(), sess.JobRoleID()); err != nil {
		m.logger.Error("finalize after crash failed", slog.String("session_id", sessionID), slog.Any("error", err))
	}
}

// Stop requests cancellation of sessionID's scheduler, waits for its final
// flush, removes it from the registry, and schedules Aggregator.Finalize on
// a detached goroutine so the caller is never blocked on it (§4.7, §4.8).
func (m *SessionManager) Stop(sessionID string) error {
	m.mu.Lock()
	sess, exists := m.sessions[sessionID]
	if !exists {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	delete(m.started, sessionID)
	m.mu.Unlock()

	sess.Stop()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := m.agg.Finalize(ctx, sess.ID(), sess.JobRoleID()); err != nil {
			m.logger.Error("finalize failed", slog.String("session_id", sess.ID()), slog.Any("error", err))
		}
	}()

	m.logger.Info("session stopped", slog.String("session_id", sessionID))
	return nil
}

// OfferVideo fans a decoded video frame into sessionID's intake queue.
// For an unknown sessionID the frame is dropped and ErrSessionNotFound is
// returned: per §7 this is a benign race with a concurrent Stop, and the
// socket transport ignores it rather than surfacing it.
func (m *SessionManager) OfferVideo(sessionID string, frame media.VideoFrame) error {
	sess, ok := m.lookupSession(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	sess.OfferVideo(frame)
	return nil
}

// OfferAudio fans a decoded audio chunk into sessionID's intake queue, with
// the same benign-race semantics as OfferVideo.
func (m *SessionManager) OfferAudio(sessionID string, chunk media.AudioChunk) error {
	sess, ok := m.lookupSession(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	sess.OfferAudio(chunk)
	return nil
}

// Lookup returns a read-only View of sessionID for the REST surface, or
// false if no such session is currently running.
func (m *SessionManager) Lookup(sessionID string) (sessioniface.View, bool) {
	sess, ok := m.lookupSession(sessionID)
	if !ok {
		return sessioniface.View{}, false
	}
	m.mu.Lock()
	startedAt := m.started[sessionID]
	m.mu.Unlock()

	lastSample, samplesEmitted, hasSample := sess.LastSample()
	return sessioniface.View{
		SessionID:      sess.ID(),
		JobRoleID:      sess.JobRoleID(),
		State:          sess.State(),
		StartedAt:      startedAt,
		SamplesEmitted: samplesEmitted,
		LastSample:     lastSample,
		HasSample:      hasSample,
	}, true
}

func (m *SessionManager) lookupSession(sessionID string) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	return sess, ok
}
