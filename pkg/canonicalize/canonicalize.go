// Package canonicalize implements the pure projection from four detector
// states into one composite Sample: the binary envelope contract that
// insulates the rest of the system from detector internals.
package canonicalize

import (
	"regexp"
	"time"

	"github.com/insighthire/engine/pkg/detector/iface"
)

// Sample is the canonical emission unit: one composite observation of the
// four modalities at a point in time.
type Sample struct {
	Timestamp time.Time

	FaceStress FaceStressComponent
	Eye        EyeComponent
	Hand       HandComponent
	Voice      VoiceComponent

	OverallConfidenceScore float64
	OverallStressScore     float64
}

// FaceStressComponent is the face-stress slice of a Sample.
type FaceStressComponent struct {
	Timestamp   time.Time
	Method      string
	StressLevel iface.FaceStressLevel
	Emotion     string
	Confidence  float64
	Stress      int // binary envelope value
}

// EyeComponent is the eye-confidence slice of a Sample.
type EyeComponent struct {
	Timestamp       time.Time
	Method          string
	ConfidenceLevel iface.EyeConfidenceLevel
	Confidence      float64
	ConfidenceBit   int // binary envelope value
}

// HandComponent is the hand-confidence slice of a Sample.
type HandComponent struct {
	Timestamp        time.Time
	Method           string
	ConfidenceLevel  iface.HandConfidenceLevel
	GesturesDetected []string
	Confidence       float64
	ConfidenceBit    int // binary envelope value
}

// VoiceComponent is the voice-confidence slice of a Sample.
type VoiceComponent struct {
	Timestamp       time.Time
	Method          string
	ConfidenceLevel iface.VoiceConfidenceLevel
	Emotion         string
	Confidence      float64
	ConfidenceBit   int // binary envelope value
}

var (
	confidentPattern = regexp.MustCompile(`(?i)confident`)
	notPattern       = regexp.MustCompile(`(?i)not`)
)

// confidenceBit applies the shared eye/hand binarization rule: the level
// string must match /confident/i and must not match /not/i.
func confidenceBit(level string) int {
	if confidentPattern.MatchString(level) && !notPattern.MatchString(level) {
		return 1
	}
	return 0
}

// Canonicalize projects the four current detector results into one Sample,
// computing the binary envelope and the two continuous overall scores per
// the exact rules of the binarization table.
func Canonicalize(face iface.FaceStressResult, eye iface.EyeConfidenceResult, hand iface.HandConfidenceResult, voice iface.VoiceConfidenceResult, at time.Time) Sample {
	faceComp := FaceStressComponent{
		Timestamp:   face.RunAt,
		Method:      face.DetectorUsed,
		StressLevel: face.StressLevel,
		Emotion:     face.Emotion,
		Confidence:  face.Confidence,
	}
	if face.StressLevel == iface.FaceStress {
		faceComp.Stress = 1
	}

	eyeComp := EyeComponent{
		Timestamp:       eye.RunAt,
		Method:          eye.DetectorUsed,
		ConfidenceLevel: eye.ConfidenceLevel,
		Confidence:      eye.Confidence,
		ConfidenceBit:   confidenceBit(string(eye.ConfidenceLevel)),
	}

	handComp := HandComponent{
		Timestamp:        hand.RunAt,
		Method:           hand.DetectorUsed,
		ConfidenceLevel:  hand.ConfidenceLevel,
		GesturesDetected: hand.Gestures,
		Confidence:       hand.Confidence,
		ConfidenceBit:    confidenceBit(string(hand.ConfidenceLevel)),
	}

	voiceBit := confidenceBit(string(voice.ConfidenceLevel))
	if voiceBit == 0 && iface.GoodEmotions[voice.Emotion] {
		voiceBit = 1
	}
	voiceComp := VoiceComponent{
		Timestamp:       voice.RunAt,
		Method:          voice.DetectorUsed,
		ConfidenceLevel: voice.ConfidenceLevel,
		Emotion:         voice.Emotion,
		Confidence:      voice.Confidence,
		ConfidenceBit:   voiceBit,
	}

	sample := Sample{
		Timestamp:  at,
		FaceStress: faceComp,
		Eye:        eyeComp,
		Hand:       handComp,
		Voice:      voiceComp,
	}
	sample.OverallConfidenceScore = overallConfidence(eyeComp, handComp, voiceComp)
	sample.OverallStressScore = overallStress(faceComp)
	return sample
}

// overallConfidence averages the binary envelope of eye/hand/voice over
// whichever of those three modalities currently has an observation. There is
// no "missing observation" case in this implementation (every modality always
// carries its last-known state, starting from an Unknown/NoAudio result), so
// this always averages all three; the 0.5 default applies only when eye, hand
// and voice all carry a zero timestamp.
func overallConfidence(eye EyeComponent, hand HandComponent, voice VoiceComponent) float64 {
	if eye.Timestamp.IsZero() && hand.Timestamp.IsZero() && voice.Timestamp.IsZero() {
		return 0.5
	}
	sum := float64(eye.ConfidenceBit + hand.ConfidenceBit + voice.ConfidenceBit)
	return sum / 3.0
}

// ErrorSample builds the terminal sample broadcast when a scheduler loop
// recovers from a panic (§7 item 8, Fatal): every component's Method is
// tagged "error", every binary envelope value is 0, and the two overall
// scores sit at the neutral midpoint rather than claiming a real observation.
func ErrorSample(at time.Time) Sample {
	return Sample{
		Timestamp:              at,
		FaceStress:             FaceStressComponent{Timestamp: at, Method: "error", StressLevel: iface.FaceUnknown},
		Eye:                    EyeComponent{Timestamp: at, Method: "error", ConfidenceLevel: iface.EyeNoFace},
		Hand:                   HandComponent{Timestamp: at, Method: "error", ConfidenceLevel: iface.HandNoHands},
		Voice:                  VoiceComponent{Timestamp: at, Method: "error", ConfidenceLevel: iface.VoiceNoAudio},
		OverallConfidenceScore: 0.5,
		OverallStressScore:     0.5,
	}
}

// overallStress maps face-stress confidence onto a single continuous score:
// the model's own confidence when it believes Stress, the complement when it
// believes NonStress, and a neutral midpoint otherwise.
func overallStress(face FaceStressComponent) float64 {
	switch face.StressLevel {
	case iface.FaceStress:
		return face.Confidence
	case iface.FaceNonStress:
		return 1 - face.Confidence
	default:
		return 0.5
	}
}
