package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/insighthire/engine/pkg/audiobuffer"
	"github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/emitter"
	"github.com/insighthire/engine/pkg/intake"
	"github.com/insighthire/engine/pkg/media"
	sessioniface "github.com/insighthire/engine/pkg/session/iface"
	"github.com/insighthire/engine/pkg/store/providers/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVisual struct {
	modality iface.Modality
	result   iface.DetectorResult
	calls    int
}

func (s *stubVisual) Modality() iface.Modality { return s.modality }
func (s *stubVisual) Analyze(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
	s.calls++
	return s.result
}

type stubVoice struct {
	result iface.VoiceConfidenceResult
	calls  int
}

func (s *stubVoice) Analyze(ctx context.Context, window media.AudioWindow) iface.VoiceConfidenceResult {
	s.calls++
	return s.result
}

func newTestScheduler(t *testing.T) (*Scheduler, *stubVisual, *stubVisual, *stubVisual, *stubVoice) {
	t.Helper()
	face := &stubVisual{modality: iface.ModalityFace, result: iface.FaceStressResult{StressLevel: iface.FaceStress, RunAt: time.Now(), DetectorUsed: "stub"}}
	eye := &stubVisual{modality: iface.ModalityEye, result: iface.EyeConfidenceResult{ConfidenceLevel: iface.EyeConfident, RunAt: time.Now(), DetectorUsed: "stub"}}
	hand := &stubVisual{modality: iface.ModalityHand, result: iface.HandConfidenceResult{ConfidenceLevel: iface.HandConfident, RunAt: time.Now(), DetectorUsed: "stub"}}
	voice := &stubVoice{result: iface.VoiceConfidenceResult{ConfidenceLevel: iface.VoiceConfident, RunAt: time.Now(), DetectorUsed: "stub"}}

	store := inmemory.New()
	bus := inmemory.NewEventBus()
	em := emitter.New(store, bus, nil)

	sched := New("sess-1", Detectors{Face: face, Eye: eye, Hand: hand, Voice: voice}, intake.New(), audiobuffer.New(), em, nil)
	return sched, face, eye, hand, voice
}

func TestScheduler_RunRotation_SelectsByModCycleCounter(t *testing.T) {
	sched, face, eye, hand, _ := newTestScheduler(t)
	ctx := context.Background()
	frame := media.VideoFrame{Width: 1, Height: 1, Pixels: []byte{1, 2, 3}}

	sched.runRotation(ctx, frame) // cycle 0 -> face
	assert.Equal(t, 1, face.calls)
	assert.Equal(t, 0, eye.calls)
	assert.Equal(t, 0, hand.calls)

	sched.mu.Lock()
	sched.cycleCounter = 1
	sched.mu.Unlock()
	sched.runRotation(ctx, frame) // cycle 1 -> eye
	assert.Equal(t, 1, eye.calls)

	sched.mu.Lock()
	sched.cycleCounter = 2
	sched.mu.Unlock()
	sched.runRotation(ctx, frame) // cycle 2 -> hand
	assert.Equal(t, 1, hand.calls)
}

func TestScheduler_RunComposite_EmitsAndAdvancesCycle(t *testing.T) {
	sched, _, _, _, _ := newTestScheduler(t)
	ctx := context.Background()

	sched.intake.OfferVideo(media.VideoFrame{Width: 1, Height: 1, Pixels: []byte{1, 2, 3}})
	now := time.Now()
	sched.runComposite(ctx, now)

	sched.mu.Lock()
	cycle := sched.cycleCounter
	lastComposite := sched.lastCompositeAt
	sched.mu.Unlock()

	assert.Equal(t, 1, cycle)
	assert.Equal(t, now, lastComposite)
}

func TestScheduler_RunComposite_RecordsLastSample(t *testing.T) {
	sched, _, _, _, _ := newTestScheduler(t)
	ctx := context.Background()

	_, _, hasSample := sched.LastSample()
	assert.False(t, hasSample)

	now := time.Now()
	sched.runComposite(ctx, now)

	sample, emitted, hasSample := sched.LastSample()
	require.True(t, hasSample)
	assert.Equal(t, 1, emitted)
	assert.Equal(t, now, sample.Timestamp)

	sched.runComposite(ctx, now.Add(compositeCadence))
	_, emitted, _ = sched.LastSample()
	assert.Equal(t, 2, emitted)
}

func TestScheduler_FinalFlush_SetsSessionStoppedAndEmits(t *testing.T) {
	sched, _, _, _, voice := newTestScheduler(t)
	sched.audioBuf.Append(media.AudioChunk{Samples: []float32{1, 2, 3}, SampleRate: 16000})

	sched.finalFlush(context.Background())

	assert.Equal(t, 1, voice.calls)
	sched.mu.Lock()
	state := sched.voiceState
	sched.mu.Unlock()
	assert.Equal(t, iface.VoiceSessionStopped, state.ConfidenceLevel)
	assert.True(t, sched.audioBuf.Empty())
}

func TestScheduler_MaybeRunVoice_NoAudioEverDeclaresNoAudio(t *testing.T) {
	sched, _, _, _, voice := newTestScheduler(t)
	sched.maybeRunVoice(context.Background(), time.Now())

	assert.Equal(t, 0, voice.calls)
	sched.mu.Lock()
	state := sched.voiceState
	sched.mu.Unlock()
	assert.Equal(t, iface.VoiceNoAudio, state.ConfidenceLevel)
}

func TestScheduler_MaybeRunVoice_CadenceDueRunsDetector(t *testing.T) {
	sched, _, _, _, voice := newTestScheduler(t)
	sched.audioBuf.Append(media.AudioChunk{Samples: []float32{1, 2}, SampleRate: 16000})

	due := time.Now().Add(voiceCadence + time.Second)
	sched.maybeRunVoice(context.Background(), due)

	assert.Equal(t, 1, voice.calls)
	sched.mu.Lock()
	analysesDone := sched.analysesDone
	sched.mu.Unlock()
	assert.Equal(t, 1, analysesDone)
}

func TestScheduler_RunAndStop_TransitionsThroughLifecycle(t *testing.T) {
	sched, _, _, _, _ := newTestScheduler(t)

	go sched.Run(context.Background())
	require.Eventually(t, func() bool { return sched.State() == sessioniface.StateRunning }, time.Second, 5*time.Millisecond)

	sched.Stop()
	assert.Equal(t, sessioniface.StateStopped, sched.State())

	select {
	case <-sched.Done():
	default:
		t.Fatal("expected done channel to be closed")
	}
}
