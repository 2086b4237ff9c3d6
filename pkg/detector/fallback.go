package detector

import (
	"context"

	"github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/media"
)

// VisualStrategy is one candidate implementation for a visual modality: a
// model-based primary or a heuristic secondary. Strategies are internal to
// the detector package and invisible to the scheduler (§4.1).
type VisualStrategy struct {
	Name string
	Run  func(ctx context.Context, frame media.VideoFrame) iface.DetectorResult
}

// VoiceStrategy is one candidate implementation for the voice modality.
type VoiceStrategy struct {
	Name string
	Run  func(ctx context.Context, window media.AudioWindow) iface.VoiceConfidenceResult
}

// RunVisualChain tries each strategy in order and returns the first result
// for which unknown reports false. If every strategy is unknown (or the list
// is empty) the last attempted result is returned, defaulting to fallback
// when strategies is empty. A strategy that panics is treated the same as an
// unknown result — the detector fault never propagates past this chain
// (§4.1, §7 DetectorFault), so a misbehaving strategy degrades that one
// modality instead of tearing down the session.
func RunVisualChain(ctx context.Context, frame media.VideoFrame, strategies []VisualStrategy, unknown func(iface.DetectorResult) bool, fallback iface.DetectorResult) iface.DetectorResult {
	result := fallback
	for _, s := range strategies {
		result = runVisualStrategy(ctx, frame, s, fallback)
		if !unknown(result) {
			return result
		}
	}
	return result
}

func runVisualStrategy(ctx context.Context, frame media.VideoFrame, s VisualStrategy, fallback iface.DetectorResult) (result iface.DetectorResult) {
	result = fallback
	defer func() {
		_ = recover()
	}()
	return s.Run(ctx, frame)
}

// RunVoiceChain is the voice-modality analogue of RunVisualChain, with the
// same per-strategy panic containment.
func RunVoiceChain(ctx context.Context, window media.AudioWindow, strategies []VoiceStrategy, unknown func(iface.VoiceConfidenceResult) bool, fallback iface.VoiceConfidenceResult) iface.VoiceConfidenceResult {
	result := fallback
	for _, s := range strategies {
		result = runVoiceStrategy(ctx, window, s, fallback)
		if !unknown(result) {
			return result
		}
	}
	return result
}

func runVoiceStrategy(ctx context.Context, window media.AudioWindow, s VoiceStrategy, fallback iface.VoiceConfidenceResult) (result iface.VoiceConfidenceResult) {
	result = fallback
	defer func() {
		_ = recover()
	}()
	return s.Run(ctx, window)
}
