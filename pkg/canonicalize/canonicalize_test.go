package canonicalize

import (
	"testing"
	"time"

	"github.com/insighthire/engine/pkg/detector/iface"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalize_FaceStressBit(t *testing.T) {
	now := time.Now()

	stressed := iface.FaceStressResult{RunAt: now, StressLevel: iface.FaceStress, Confidence: 0.8, DetectorUsed: "model"}
	sample := Canonicalize(stressed, iface.UnknownEyeResult(now), iface.UnknownHandResult(now), iface.NoAudioResult(now), now)
	assert.Equal(t, 1, sample.FaceStress.Stress)
	assert.Equal(t, 0.8, sample.OverallStressScore)

	nonStressed := iface.FaceStressResult{RunAt: now, StressLevel: iface.FaceNonStress, Confidence: 0.8, DetectorUsed: "model"}
	sample = Canonicalize(nonStressed, iface.UnknownEyeResult(now), iface.UnknownHandResult(now), iface.NoAudioResult(now), now)
	assert.Equal(t, 0, sample.FaceStress.Stress)
	assert.InDelta(t, 0.2, sample.OverallStressScore, 1e-9)

	unknown := iface.UnknownFaceResult(now)
	sample = Canonicalize(unknown, iface.UnknownEyeResult(now), iface.UnknownHandResult(now), iface.NoAudioResult(now), now)
	assert.Equal(t, 0, sample.FaceStress.Stress)
	assert.Equal(t, 0.5, sample.OverallStressScore)
}

func TestCanonicalize_EyeAndHandConfidenceBit(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{string(iface.EyeConfident), 1},
		{string(iface.EyeSomewhatConfident), 1},
		{string(iface.EyeNotConfident), 0},
		{string(iface.EyeNoFace), 0},
		{string(iface.EyeNoEyes), 0},
	}
	for _, tt := range tests {
		got := confidenceBit(tt.level)
		assert.Equal(t, tt.want, got, "level=%s", tt.level)
	}
}

func TestCanonicalize_VoiceConfidenceBitFromEmotion(t *testing.T) {
	now := time.Now()

	// not_confident level but a good emotion still binarizes to 1.
	voice := iface.VoiceConfidenceResult{RunAt: now, ConfidenceLevel: iface.VoiceNotConfident, Emotion: "calm", DetectorUsed: "model"}
	sample := Canonicalize(iface.UnknownFaceResult(now), iface.UnknownEyeResult(now), iface.UnknownHandResult(now), voice, now)
	assert.Equal(t, 1, sample.Voice.ConfidenceBit)

	// not_confident with a bad emotion stays 0.
	voice = iface.VoiceConfidenceResult{RunAt: now, ConfidenceLevel: iface.VoiceNotConfident, Emotion: "angry", DetectorUsed: "model"}
	sample = Canonicalize(iface.UnknownFaceResult(now), iface.UnknownEyeResult(now), iface.UnknownHandResult(now), voice, now)
	assert.Equal(t, 0, sample.Voice.ConfidenceBit)
}

func TestCanonicalize_OverallConfidenceIsMeanOfThree(t *testing.T) {
	now := time.Now()

	eye := iface.EyeConfidenceResult{RunAt: now, ConfidenceLevel: iface.EyeConfident, DetectorUsed: "model"}
	hand := iface.HandConfidenceResult{RunAt: now, ConfidenceLevel: iface.HandNotConfident, DetectorUsed: "model"}
	voice := iface.VoiceConfidenceResult{RunAt: now, ConfidenceLevel: iface.VoiceConfident, DetectorUsed: "model"}

	sample := Canonicalize(iface.UnknownFaceResult(now), eye, hand, voice, now)
	assert.InDelta(t, 2.0/3.0, sample.OverallConfidenceScore, 1e-9)
}

func TestCanonicalize_StampsTimestampAndMethod(t *testing.T) {
	now := time.Now()
	runAt := now.Add(-2 * time.Second)

	face := iface.FaceStressResult{RunAt: runAt, StressLevel: iface.FaceStress, DetectorUsed: "haar_cascade_fallback", Confidence: 0.6}
	sample := Canonicalize(face, iface.UnknownEyeResult(now), iface.UnknownHandResult(now), iface.NoAudioResult(now), now)

	assert.Equal(t, runAt, sample.FaceStress.Timestamp)
	assert.Equal(t, "haar_cascade_fallback", sample.FaceStress.Method)
	assert.Equal(t, now, sample.Timestamp)
}
