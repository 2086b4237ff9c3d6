// Package iface defines the Detector contract consumed by the scheduler: a
// stateless inference step over one video frame or one audio window that
// never propagates an error, returning instead a designated Unknown/NoFace/
// NoAudio-style result (§4.1).
package iface

import (
	"context"

	"github.com/insighthire/engine/pkg/media"
)

// VisualDetector analyzes a single decoded video frame. Implementations back
// the Face, Eye, and Hand modalities.
type VisualDetector interface {
	Modality() Modality
	Analyze(ctx context.Context, frame media.VideoFrame) DetectorResult
}

// VoiceDetector analyzes a 5s audio window. It backs the Voice modality.
type VoiceDetector interface {
	Analyze(ctx context.Context, window media.AudioWindow) VoiceConfidenceResult
}
