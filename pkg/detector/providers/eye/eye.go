// Package eye implements the eye-confidence modality.
package eye

import (
	"context"
	"time"

	"github.com/insighthire/engine/pkg/detector"
	"github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/media"
)

func init() {
	detector.GetRegistry().RegisterVisual(iface.ModalityEye, New)
}

// Detector implements iface.VisualDetector for the eye-confidence modality.
type Detector struct {
	cfg        *detector.Config
	metrics    *detector.Metrics
	strategies []detector.VisualStrategy
}

// New builds the eye-confidence detector's fallback chain from cfg.
func New(cfg *detector.Config) (iface.VisualDetector, error) {
	d := &Detector{cfg: cfg, metrics: detector.DefaultMetrics()}
	d.strategies = []detector.VisualStrategy{
		{Name: "eye_contact_model", Run: d.runModel},
		{Name: "eye_region_heuristic", Run: d.runHeuristic},
	}
	return d, nil
}

func (d *Detector) Modality() iface.Modality { return iface.ModalityEye }

func (d *Detector) Analyze(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
	start := time.Now()
	ctx, span := d.metrics.StartSpan(ctx, string(iface.ModalityEye), "analyze")
	defer span.End()

	result := detector.RunVisualChain(ctx, frame, d.strategies, isUnknownEye, iface.UnknownEyeResult(time.Now()))

	d.metrics.RecordRun(string(iface.ModalityEye), result.Method(), time.Since(start), isUnknownEye(result))
	if r, ok := result.(iface.EyeConfidenceResult); ok && r.DetectorUsed == "eye_region_heuristic" {
		d.metrics.RecordFallback(string(iface.ModalityEye))
	}
	return result
}

func isUnknownEye(r iface.DetectorResult) bool {
	eye, ok := r.(iface.EyeConfidenceResult)
	return !ok || eye.ConfidenceLevel == iface.EyeNoFace || eye.ConfidenceLevel == iface.EyeNoEyes
}

// runModel estimates eye-contact confidence from coarse symmetry of the
// upper third of the frame (the expected eye band), standing in for the
// original's face/eye cascade + pretrained-model combination.
func (d *Detector) runModel(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
	now := time.Now()
	if len(frame.Pixels) == 0 || frame.Width == 0 || frame.Height == 0 {
		return iface.EyeConfidenceResult{RunAt: now, ConfidenceLevel: iface.EyeNoFace, DetectorUsed: "eye_contact_model"}
	}

	score := eyeContactScore(frame)
	level, confidence := classifyConfidence(score, d.cfg.EyeConfidentThreshold, d.cfg.EyeSomewhatThreshold, eyeLevels)

	return iface.EyeConfidenceResult{
		RunAt:           now,
		ConfidenceLevel: level,
		DetectorUsed:    "eye_contact_model",
		EyesDetected:    2,
		FacesDetected:   1,
		Confidence:      confidence,
	}
}

// runHeuristic is the secondary strategy run when the primary reports no
// face, which it does only for a frame with no pixels or a zero width or
// height. A frame under 10 pixels on either side yields no_eyes.
func (d *Detector) runHeuristic(ctx context.Context, frame media.VideoFrame) iface.DetectorResult {
	now := time.Now()
	if len(frame.Pixels) == 0 {
		return iface.UnknownEyeResult(now)
	}
	if frame.Height < 10 || frame.Width < 10 {
		return iface.EyeConfidenceResult{RunAt: now, ConfidenceLevel: iface.EyeNoEyes, DetectorUsed: "eye_region_heuristic"}
	}

	return iface.EyeConfidenceResult{
		RunAt:           now,
		ConfidenceLevel: iface.EyeSomewhatConfident,
		DetectorUsed:    "eye_region_heuristic",
		EyesDetected:    2,
		FacesDetected:   1,
		Confidence:      0.5,
	}
}

var eyeLevels = [3]iface.EyeConfidenceLevel{iface.EyeConfident, iface.EyeSomewhatConfident, iface.EyeNotConfident}

var classifyConfidence = detector.ClassifyThreeWay[iface.EyeConfidenceLevel]

// eyeContactScore derives a synthetic [0,1] engagement score from the
// horizontal symmetry of the frame's upper third, where two eyes produce a
// roughly symmetric luminance profile around the vertical midline.
func eyeContactScore(frame media.VideoFrame) float64 {
	bandHeight := frame.Height / 3
	if bandHeight == 0 {
		return 0.5
	}

	var left, right int64
	half := frame.Width / 2
	for y := 0; y < bandHeight; y++ {
		rowOffset := y * frame.Width * media.Channels
		for x := 0; x < frame.Width; x++ {
			idx := rowOffset + x*media.Channels
			if idx+2 >= len(frame.Pixels) {
				continue
			}
			lum := int64(frame.Pixels[idx]) + int64(frame.Pixels[idx+1]) + int64(frame.Pixels[idx+2])
			if x < half {
				left += lum
			} else {
				right += lum
			}
		}
	}
	if left+right == 0 {
		return 0.5
	}
	diff := left - right
	if diff < 0 {
		diff = -diff
	}
	symmetry := 1 - float64(diff)/float64(left+right)
	if symmetry < 0 {
		symmetry = 0
	}
	if symmetry > 1 {
		symmetry = 1
	}
	return symmetry
}
