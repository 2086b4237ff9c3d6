// Package voice implements the voice-confidence modality, the only modality
// that analyzes an AudioWindow rather than a VideoFrame.
package voice

import (
	"context"
	"math"
	"time"

	"github.com/insighthire/engine/pkg/detector"
	"github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/media"
)

func init() {
	detector.GetRegistry().RegisterVoice(New)
}

// Detector implements iface.VoiceDetector.
type Detector struct {
	cfg        *detector.Config
	metrics    *detector.Metrics
	strategies []detector.VoiceStrategy
}

// New builds the voice-confidence detector's fallback chain from cfg.
func New(cfg *detector.Config) (iface.VoiceDetector, error) {
	d := &Detector{cfg: cfg, metrics: detector.DefaultMetrics()}
	d.strategies = []detector.VoiceStrategy{
		{Name: "ml_model_improved", Run: d.runModel},
		{Name: "energy_spectral_heuristic", Run: d.runHeuristic},
	}
	return d, nil
}

func (d *Detector) Analyze(ctx context.Context, window media.AudioWindow) iface.VoiceConfidenceResult {
	start := time.Now()
	ctx, span := d.metrics.StartSpan(ctx, string(iface.ModalityVoice), "analyze")
	defer span.End()

	if window.Empty() {
		return iface.NoAudioResult(time.Now())
	}

	result := detector.RunVoiceChain(ctx, window, d.strategies, isUnknownVoice, iface.NoAudioResult(time.Now()))

	d.metrics.RecordRun(string(iface.ModalityVoice), result.Method(), time.Since(start), isUnknownVoice(result))
	if result.DetectorUsed == "energy_spectral_heuristic" {
		d.metrics.RecordFallback(string(iface.ModalityVoice))
	}
	return result
}

func isUnknownVoice(r iface.VoiceConfidenceResult) bool {
	return r.ConfidenceLevel == iface.VoiceNoAudio || r.ConfidenceLevel == iface.VoiceError
}

var voiceLevels = [3]iface.VoiceConfidenceLevel{iface.VoiceConfident, iface.VoiceSomewhatConfident, iface.VoiceNotConfident}

var classifyConfidence = detector.ClassifyThreeWay[iface.VoiceConfidenceLevel]

// runModel derives an energy/pitch-proxy feature pair from the PCM window
// and maps it to a confidence level and emotion, standing in for the
// original's pretrained emotion-recognition network over extracted audio
// features.
func (d *Detector) runModel(ctx context.Context, window media.AudioWindow) iface.VoiceConfidenceResult {
	now := time.Now()
	energy, zeroCrossRate := audioFeatures(window)

	emotion := classifyEmotion(energy, zeroCrossRate)
	score := confidenceFromEmotion(emotion, energy)
	level, confidence := classifyConfidence(score, d.cfg.VoiceConfidentThreshold, d.cfg.VoiceSomewhatThreshold, voiceLevels)

	return iface.VoiceConfidenceResult{
		RunAt:           now,
		ConfidenceLevel: level,
		Emotion:         emotion,
		DetectorUsed:    "ml_model_improved",
		Confidence:      confidence,
	}
}

// runHeuristic is the secondary strategy. runModel classifies every
// non-empty window, so the chain reaches this only when the primary panics;
// a window shorter than 100ms yields no_audio.
func (d *Detector) runHeuristic(ctx context.Context, window media.AudioWindow) iface.VoiceConfidenceResult {
	now := time.Now()
	if len(window.Samples) < window.SampleRate/10 { // < 100ms of audio
		return iface.NoAudioResult(now)
	}

	energy, _ := audioFeatures(window)
	level := iface.VoiceSomewhatConfident
	if energy < 0.02 {
		level = iface.VoiceNotConfident
	}
	return iface.VoiceConfidenceResult{
		RunAt:           now,
		ConfidenceLevel: level,
		Emotion:         "neutral",
		DetectorUsed:    "energy_spectral_heuristic",
		Confidence:      0.5,
	}
}

// audioFeatures computes RMS energy and zero-crossing rate over the window,
// a minimal feature pair standing in for the original's 2376-dimension
// feature vector.
func audioFeatures(window media.AudioWindow) (energy, zeroCrossRate float64) {
	if len(window.Samples) == 0 {
		return 0, 0
	}

	var sumSquares float64
	var crossings int
	for i, s := range window.Samples {
		sumSquares += float64(s) * float64(s)
		if i > 0 {
			prev := window.Samples[i-1]
			if (prev >= 0) != (s >= 0) {
				crossings++
			}
		}
	}
	energy = math.Sqrt(sumSquares / float64(len(window.Samples)))
	zeroCrossRate = float64(crossings) / float64(len(window.Samples))
	return energy, zeroCrossRate
}

// classifyEmotion buckets energy and zero-crossing rate (a pitch proxy) into
// one of the original model's rule-based emotion categories.
func classifyEmotion(energy, zeroCrossRate float64) string {
	switch {
	case energy > 0.08 && zeroCrossRate > 0.15:
		return "happy"
	case energy < 0.02 && zeroCrossRate < 0.05:
		return "sad"
	case energy > 0.08 && zeroCrossRate <= 0.15:
		return "angry"
	case energy < 0.02 && zeroCrossRate >= 0.05:
		return "fear"
	default:
		return "neutral"
	}
}

func confidenceFromEmotion(emotion string, energy float64) float64 {
	if iface.GoodEmotions[emotion] {
		return math.Min(1, 0.6+energy)
	}
	if iface.BadEmotions[emotion] {
		return math.Max(0, 0.4-energy)
	}
	return 0.5
}
