package detector

import (
	"context"
	"testing"
	"time"

	"github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/media"
	"github.com/stretchr/testify/assert"
)

func TestRunVisualChain_PanickingStrategyFallsThroughToNext(t *testing.T) {
	now := time.Now()
	confident := iface.FaceStressResult{RunAt: now, StressLevel: iface.FaceNonStress, DetectorUsed: "second"}

	strategies := []VisualStrategy{
		{Name: "first", Run: func(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
			panic("boom")
		}},
		{Name: "second", Run: func(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
			return confident
		}},
	}
	unknown := func(r iface.DetectorResult) bool {
		fs, ok := r.(iface.FaceStressResult)
		return !ok || fs.StressLevel == iface.FaceUnknown
	}

	var result iface.DetectorResult
	assert.NotPanics(t, func() {
		result = RunVisualChain(context.Background(), media.VideoFrame{}, strategies, unknown, iface.UnknownFaceResult(now))
	})
	assert.Equal(t, confident, result)
}

func TestRunVisualChain_AllStrategiesPanicReturnsFallback(t *testing.T) {
	now := time.Now()
	fallback := iface.UnknownFaceResult(now)

	strategies := []VisualStrategy{
		{Name: "first", Run: func(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
			panic("boom")
		}},
		{Name: "second", Run: func(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
			panic("boom again")
		}},
	}
	unknown := func(r iface.DetectorResult) bool {
		fs, ok := r.(iface.FaceStressResult)
		return !ok || fs.StressLevel == iface.FaceUnknown
	}

	var result iface.DetectorResult
	assert.NotPanics(t, func() {
		result = RunVisualChain(context.Background(), media.VideoFrame{}, strategies, unknown, fallback)
	})
	assert.Equal(t, fallback, result)
}

func TestRunVoiceChain_PanickingStrategyFallsThroughToNext(t *testing.T) {
	now := time.Now()
	confident := iface.VoiceConfidenceResult{RunAt: now, ConfidenceLevel: iface.VoiceConfident, DetectorUsed: "second"}

	strategies := []VoiceStrategy{
		{Name: "first", Run: func(ctx context.Context, window media.AudioWindow) iface.VoiceConfidenceResult {
			panic("boom")
		}},
		{Name: "second", Run: func(ctx context.Context, window media.AudioWindow) iface.VoiceConfidenceResult {
			return confident
		}},
	}
	unknown := func(r iface.VoiceConfidenceResult) bool {
		return r.ConfidenceLevel == iface.VoiceNoAudio || r.ConfidenceLevel == iface.VoiceError
	}

	var result iface.VoiceConfidenceResult
	assert.NotPanics(t, func() {
		result = RunVoiceChain(context.Background(), media.AudioWindow{}, strategies, unknown, iface.NoAudioResult(now))
	})
	assert.Equal(t, confident, result)
}
