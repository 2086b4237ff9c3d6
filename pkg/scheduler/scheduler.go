// Package scheduler runs the per-session cooperative loop that drives the
// four detectors on their respective cadences and hands the resulting
// composite Sample to the Emitter (§4.4). It is the heart of the system.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/insighthire/engine/pkg/audiobuffer"
	"github.com/insighthire/engine/pkg/canonicalize"
	"github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/emitter"
	"github.com/insighthire/engine/pkg/intake"
	"github.com/insighthire/engine/pkg/media"
	sessioniface "github.com/insighthire/engine/pkg/session/iface"
)

const (
	// sleepStep is the cooperative loop's polling granularity.
	sleepStep = 500 * time.Millisecond
	// compositeCadence T_c (§4.4).
	compositeCadence = 10 * time.Second
	// voiceCadence T_v (§4.4).
	voiceCadence = 5 * time.Second
	// stopGraceDeadline bounds Stop()'s final flush (§4.4, §5).
	stopGraceDeadline = 2 * time.Second
	// detectorSoftDeadline bounds the final flush's last voice analysis
	// call (§5); an exceeded call still lets the flush proceed with
	// whatever voice state was already current.
	detectorSoftDeadline = 2 * time.Second
)

// Detectors bundles the four modality detectors a Scheduler dispatches to.
// Implementations are shared, read-only, and re-entrant across sessions.
type Detectors struct {
	Face  iface.VisualDetector
	Eye   iface.VisualDetector
	Hand  iface.VisualDetector
	Voice iface.VoiceDetector
}

// Scheduler owns one session's MediaIntake, AudioBuffer, and rotation
// state, and drives its lifecycle through Starting/Running/Stopping/Stopped.
type Scheduler struct {
	sessionID string
	detectors Detectors
	intake    *intake.MediaIntake
	audioBuf  *audiobuffer.AudioBuffer
	emit      *emitter.Emitter
	logger    *slog.Logger

	sf singleflight.Group

	mu              sync.Mutex
	state           sessioniface.State
	cycleCounter    int
	analysesDone    int
	lastCompositeAt time.Time
	faceState       iface.FaceStressResult
	eyeState        iface.EyeConfidenceResult
	handState       iface.HandConfidenceResult
	voiceState      iface.VoiceConfidenceResult
	lastSample      canonicalize.Sample
	samplesEmitted  int

	inProgress atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Scheduler for sessionID. Call Run to start its loop.
// lastCompositeAt is anchored to the construction time so the first
// composite tick fires a full compositeCadence later, not immediately on
// the first sleepStep (§8 scenario 1/3).
func New(sessionID string, detectors Detectors, in *intake.MediaIntake, buf *audiobuffer.AudioBuffer, emit *emitter.Emitter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	return &Scheduler{
		sessionID:       sessionID,
		detectors:       detectors,
		intake:          in,
		audioBuf:        buf,
		emit:            emit,
		logger:          logger,
		state:           sessioniface.StateStarting,
		lastCompositeAt: now,
		faceState:       iface.UnknownFaceResult(now),
		eyeState:        iface.UnknownEyeResult(now),
		handState:       iface.UnknownHandResult(now),
		voiceState:      iface.NoAudioResult(now),
		done:            make(chan struct{}),
	}
}

// State returns the scheduler's current lifecycle state.
func (s *Scheduler) State() sessioniface.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the loop has exited, including any final flush.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// LastSample returns the most recently emitted Sample and the total count of
// samples emitted so far, for Lookup's View (§4.7 "return last known
// Sample"). The third value is false until the first composite tick or
// final flush has emitted anything.
func (s *Scheduler) LastSample() (canonicalize.Sample, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSample, s.samplesEmitted, s.samplesEmitted > 0
}

// Run starts the cooperative loop and blocks until ctx is canceled or Stop
// is called; callers typically invoke it on its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.state = sessioniface.StateRunning
	s.mu.Unlock()

	defer close(s.done)

	ticker := time.NewTicker(sleepStep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setState(sessioniface.StateStopping)
			s.finalFlush(context.Background())
			s.setState(sessioniface.StateStopped)
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop requests cancellation and waits up to stopGraceDeadline for the
// final flush to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	select {
	case <-s.done:
	case <-time.After(stopGraceDeadline):
		s.logger.Warn("scheduler stop deadline exceeded, abandoning task", slog.String("session_id", s.sessionID))
	}
}

func (s *Scheduler) setState(state sessioniface.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// tick evaluates cadence conditions and, if a composite emission is due,
// dispatches the work through the single-flight guard so a slow detector
// call never causes two composite ticks to run concurrently (P4); the
// sleep loop above keeps polling regardless of how long the dispatched
// work takes.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	compositeDue := now.Sub(s.lastCompositeAt) >= compositeCadence
	s.mu.Unlock()

	inactivityFlushDue := s.audioInactivityFlushDue(now)

	if !compositeDue && !inactivityFlushDue {
		return
	}

	if !s.inProgress.CompareAndSwap(false, true) {
		return // previous tick still running; this one is skipped, not queued
	}

	go func() {
		defer s.inProgress.Store(false)
		defer s.recoverFatal(ctx)
		s.sf.Do(s.sessionID, func() (any, error) {
			s.runComposite(ctx, now)
			return nil, nil
		})
	}()
}

// recoverFatal is the Fatal handler of §7 item 8: a panic anywhere in a
// dispatched composite tick is caught here rather than crashing the
// process, a terminal method:error sample is emitted, and the scheduler is
// cancelled so Run's main loop carries it through Stopping/Stopped.
func (s *Scheduler) recoverFatal(ctx context.Context) {
	r := recover()
	if r == nil {
		return
	}
	s.logger.Error("scheduler tick panicked, stopping session",
		slog.String("session_id", s.sessionID), slog.Any("panic", r))

	s.emit.Emit(ctx, s.sessionID, canonicalize.ErrorSample(time.Now()))

	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Scheduler) audioInactivityFlushDue(now time.Time) bool {
	if s.audioBuf.Empty() {
		return false
	}
	return now.Sub(s.audioBuf.LastAudioReceivedAt()) > audiobuffer.InactivityFlush
}

// runComposite is one composite tick's body: §4.4 steps 3a-3g.
func (s *Scheduler) runComposite(ctx context.Context, now time.Time) {
	if frame, ok := s.intake.DrainLatestVideo(); ok {
		s.runRotation(ctx, frame)
	}

	if chunk, ok := s.intake.DrainLatestAudio(); ok {
		s.audioBuf.Append(chunk)
	}

	s.maybeRunVoice(ctx, now)

	sample := s.canonicalizeLocked(now)
	s.emit.Emit(ctx, s.sessionID, sample)

	s.mu.Lock()
	s.lastCompositeAt = now
	s.cycleCounter++
	s.lastSample = sample
	s.samplesEmitted++
	s.mu.Unlock()
}

// runRotation dispatches exactly one of {Face, Eye, Hand} selected by
// cycle_counter mod 3 (§4.4); the other two retain their previous state.
func (s *Scheduler) runRotation(ctx context.Context, frame media.VideoFrame) {
	s.mu.Lock()
	selector := s.cycleCounter % 3
	s.mu.Unlock()

	switch selector {
	case 0:
		result := s.detectors.Face.Analyze(ctx, frame)
		if fs, ok := result.(iface.FaceStressResult); ok {
			s.mu.Lock()
			s.faceState = fs
			s.mu.Unlock()
		}
	case 1:
		result := s.detectors.Eye.Analyze(ctx, frame)
		if er, ok := result.(iface.EyeConfidenceResult); ok {
			s.mu.Lock()
			s.eyeState = er
			s.mu.Unlock()
		}
	case 2:
		result := s.detectors.Hand.Analyze(ctx, frame)
		if hr, ok := result.(iface.HandConfidenceResult); ok {
			s.mu.Lock()
			s.handState = hr
			s.mu.Unlock()
		}
	}
}

// maybeRunVoice implements §4.4 steps 3c-3e: cadence-gated analysis,
// inactivity flush, and the no_audio declaration.
func (s *Scheduler) maybeRunVoice(ctx context.Context, now time.Time) {
	audioStarted := s.audioBuf.AudioStartedAt()
	empty := s.audioBuf.Empty()

	if audioStarted.IsZero() {
		if empty {
			s.setVoiceState(iface.NoAudioResult(now))
		}
		return
	}

	s.mu.Lock()
	analysesDone := s.analysesDone
	s.mu.Unlock()
	due := !empty && analysesDone < int(now.Sub(audioStarted)/voiceCadence)

	inactivityFlush := s.audioInactivityFlushDue(now)
	noAudioFor5s := now.Sub(s.audioBuf.LastAudioReceivedAt()) > audiobuffer.NoAudioDeclaration

	switch {
	case due || inactivityFlush:
		window := s.audioBuf.ExtractWindow()
		result := s.detectors.Voice.Analyze(ctx, window)
		s.setVoiceState(result)
		s.mu.Lock()
		s.analysesDone++
		s.mu.Unlock()
		if inactivityFlush {
			s.audioBuf.Clear()
		}
	case empty && noAudioFor5s:
		s.setVoiceState(iface.NoAudioResult(now))
	}
}

// runVoiceBounded runs the voice detector against the final-flush window
// under detectorSoftDeadline using an errgroup, so a detector that ignores
// cancellation never holds Stop's caller past the soft deadline once real
// blocking model backends replace the current synchronous stand-ins.
func (s *Scheduler) runVoiceBounded(ctx context.Context, window media.AudioWindow) {
	deadlineCtx, cancel := context.WithTimeout(ctx, detectorSoftDeadline)
	defer cancel()

	resultCh := make(chan iface.VoiceConfidenceResult, 1)
	g, gctx := errgroup.WithContext(deadlineCtx)
	g.Go(func() error {
		resultCh <- s.detectors.Voice.Analyze(gctx, window)
		return nil
	})

	select {
	case result := <-resultCh:
		s.setVoiceState(result)
	case <-deadlineCtx.Done():
		s.logger.Warn("final voice analysis exceeded soft deadline", slog.String("session_id", s.sessionID))
	}
}

func (s *Scheduler) setVoiceState(result iface.VoiceConfidenceResult) {
	s.mu.Lock()
	s.voiceState = result
	s.mu.Unlock()
}

func (s *Scheduler) canonicalizeLocked(now time.Time) canonicalize.Sample {
	s.mu.Lock()
	face, eye, hand, voice := s.faceState, s.eyeState, s.handState, s.voiceState
	s.mu.Unlock()
	return canonicalize.Canonicalize(face, eye, hand, voice, now)
}

// finalFlush runs one last voice analysis on any remaining buffer contents,
// marks the voice state session_stopped, and emits one terminal sample,
// bounded to the caller's Stop deadline (§4.4 step 2).
func (s *Scheduler) finalFlush(ctx context.Context) {
	now := time.Now()

	if !s.audioBuf.Empty() {
		window := s.audioBuf.ExtractWindow()
		s.runVoiceBounded(ctx, window)
		s.audioBuf.Clear()
	}
	s.setVoiceState(iface.SessionStoppedResult(now))

	sample := s.canonicalizeLocked(now)
	s.emit.Emit(ctx, s.sessionID, sample)

	s.mu.Lock()
	s.lastSample = sample
	s.samplesEmitted++
	s.mu.Unlock()
}
