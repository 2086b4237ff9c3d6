// Package face implements the face-stress modality: a primary model-based
// strategy and a secondary heuristic fallback, composed through the shared
// detector.RunVisualChain runner.
package face

import (
	"context"
	"time"

	"github.com/insighthire/engine/pkg/detector"
	"github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/media"
)

func init() {
	detector.GetRegistry().RegisterVisual(iface.ModalityFace, New)
}

// stressMapping mirrors the emotion-to-stress classification used by the
// original detector's rule-based emotion model.
var stressMapping = map[string]iface.FaceStressLevel{
	"angry":   iface.FaceStress,
	"disgust": iface.FaceStress,
	"fear":    iface.FaceStress,
	"sad":     iface.FaceStress,
	"happy":   iface.FaceNonStress,
	"neutral": iface.FaceNonStress,
	"calm":    iface.FaceNonStress,
}

var stressConfidence = map[iface.FaceStressLevel]float64{
	iface.FaceStress:    0.9,
	iface.FaceNonStress: 0.8,
}

// Detector implements iface.VisualDetector for the face-stress modality.
type Detector struct {
	cfg        *detector.Config
	metrics    *detector.Metrics
	strategies []detector.VisualStrategy
}

// New builds the face-stress detector's fallback chain from cfg.
func New(cfg *detector.Config) (iface.VisualDetector, error) {
	d := &Detector{cfg: cfg, metrics: detector.DefaultMetrics()}
	d.strategies = []detector.VisualStrategy{
		{Name: "emotion_mapping", Run: d.runModel},
		{Name: "haar_cascade_fallback", Run: d.runHeuristic},
	}
	return d, nil
}

func (d *Detector) Modality() iface.Modality { return iface.ModalityFace }

// Analyze runs the fallback chain per §4.1: model-based primary, heuristic
// secondary, Unknown if neither detects a face.
func (d *Detector) Analyze(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
	start := time.Now()
	ctx, span := d.metrics.StartSpan(ctx, string(iface.ModalityFace), "analyze")
	defer span.End()

	result := detector.RunVisualChain(ctx, frame, d.strategies, isUnknownFace, iface.UnknownFaceResult(time.Now()))

	d.metrics.RecordRun(string(iface.ModalityFace), result.Method(), time.Since(start), isUnknownFace(result))
	if r, ok := result.(iface.FaceStressResult); ok && r.DetectorUsed == "haar_cascade_fallback" {
		d.metrics.RecordFallback(string(iface.ModalityFace))
	}
	return result
}

func isUnknownFace(r iface.DetectorResult) bool {
	fs, ok := r.(iface.FaceStressResult)
	return !ok || fs.StressLevel == iface.FaceUnknown
}

// runModel simulates the emotion-mapping pipeline: it derives an emotion
// estimate from coarse luminance statistics over the frame and maps it to a
// stress level using the same emotion→stress table the original classifier
// used. A real deployment would swap this for an actual emotion model
// without changing the Detector's public shape.
func (d *Detector) runModel(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
	now := time.Now()
	if len(frame.Pixels) == 0 || frame.Width == 0 || frame.Height == 0 {
		return iface.UnknownFaceResult(now)
	}

	emotion, emotionConfidence := estimateEmotion(frame)
	stressLevel, ok := stressMapping[emotion]
	if !ok {
		stressLevel = iface.FaceStress
	}
	finalConfidence := (emotionConfidence + stressConfidence[stressLevel]) / 2
	if finalConfidence < d.cfg.StressConfidenceThreshold {
		return iface.UnknownFaceResult(now)
	}

	return iface.FaceStressResult{
		RunAt:         now,
		StressLevel:   stressLevel,
		Emotion:       emotion,
		DetectorUsed:  "emotion_mapping",
		FacesDetected: 1,
		Confidence:    finalConfidence,
	}
}

// runHeuristic is the secondary strategy: a coarse brightness threshold used
// when the primary model declines to classify (an empty or zero-size frame,
// or a classification whose confidence is below StressConfidenceThreshold).
func (d *Detector) runHeuristic(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
	now := time.Now()
	if len(frame.Pixels) == 0 {
		return iface.UnknownFaceResult(now)
	}

	brightness := meanBrightness(frame)
	if brightness < 20 {
		return iface.UnknownFaceResult(now)
	}

	level := iface.FaceNonStress
	if brightness < 90 {
		level = iface.FaceStress
	}
	return iface.FaceStressResult{
		RunAt:         now,
		StressLevel:   level,
		Emotion:       "neutral",
		DetectorUsed:  "haar_cascade_fallback",
		FacesDetected: 1,
		Confidence:    0.55,
	}
}

func meanBrightness(frame media.VideoFrame) float64 {
	if len(frame.Pixels) == 0 {
		return 0
	}
	var sum int64
	for _, p := range frame.Pixels {
		sum += int64(p)
	}
	return float64(sum) / float64(len(frame.Pixels))
}

// estimateEmotion buckets mean and variance of frame luminance into one of
// the stress-mapping table's emotion keys. This is a deliberately simple
// stand-in for the original's pretrained emotion-recognition network.
func estimateEmotion(frame media.VideoFrame) (string, float64) {
	mean := meanBrightness(frame)
	var variance float64
	for _, p := range frame.Pixels {
		d := float64(p) - mean
		variance += d * d
	}
	variance /= float64(len(frame.Pixels))

	switch {
	case mean > 150 && variance < 2000:
		return "happy", 0.8
	case mean < 60:
		return "fear", 0.6
	case variance > 4000:
		return "angry", 0.7
	default:
		return "neutral", 0.75
	}
}
