package iface

import "time"

// DetectorResult is the tagged union over the four inference modalities.
// Every variant carries the timestamp of the run that produced it and the
// strategy ("method") that yielded it, so the Canonicalizer can stamp each
// component of a Sample independently.
type DetectorResult interface {
	Modality() Modality
	Timestamp() time.Time
	Method() string
}

// FaceStressResult is the output of the face-stress modality.
type FaceStressResult struct {
	RunAt         time.Time
	StressLevel   FaceStressLevel
	Emotion       string
	DetectorUsed  string
	FacesDetected int
	Confidence    float64
}

func (r FaceStressResult) Modality() Modality  { return ModalityFace }
func (r FaceStressResult) Timestamp() time.Time { return r.RunAt }
func (r FaceStressResult) Method() string       { return r.DetectorUsed }

// EyeConfidenceResult is the output of the eye-gaze modality.
type EyeConfidenceResult struct {
	RunAt           time.Time
	ConfidenceLevel EyeConfidenceLevel
	DetectorUsed    string
	EyesDetected    int
	FacesDetected   int
	Confidence      float64
}

func (r EyeConfidenceResult) Modality() Modality  { return ModalityEye }
func (r EyeConfidenceResult) Timestamp() time.Time { return r.RunAt }
func (r EyeConfidenceResult) Method() string       { return r.DetectorUsed }

// HandConfidenceResult is the output of the hand-pose modality.
type HandConfidenceResult struct {
	RunAt           time.Time
	ConfidenceLevel HandConfidenceLevel
	DetectorUsed    string
	Gestures        []string
	HandsDetected   int
	Confidence      float64
}

func (r HandConfidenceResult) Modality() Modality  { return ModalityHand }
func (r HandConfidenceResult) Timestamp() time.Time { return r.RunAt }
func (r HandConfidenceResult) Method() string       { return r.DetectorUsed }

// VoiceConfidenceResult is the output of the vocal-emotion modality.
type VoiceConfidenceResult struct {
	RunAt           time.Time
	ConfidenceLevel VoiceConfidenceLevel
	Emotion         string
	DetectorUsed    string
	Confidence      float64
}

func (r VoiceConfidenceResult) Modality() Modality  { return ModalityVoice }
func (r VoiceConfidenceResult) Timestamp() time.Time { return r.RunAt }
func (r VoiceConfidenceResult) Method() string       { return r.DetectorUsed }

// UnknownFaceResult is the canonical failure result for the face modality.
func UnknownFaceResult(at time.Time) FaceStressResult {
	return FaceStressResult{RunAt: at, StressLevel: FaceUnknown, Emotion: "neutral", DetectorUsed: "error", Confidence: 0}
}

// UnknownEyeResult is the canonical failure result for the eye modality.
func UnknownEyeResult(at time.Time) EyeConfidenceResult {
	return EyeConfidenceResult{RunAt: at, ConfidenceLevel: EyeNoFace, DetectorUsed: "error", Confidence: 0}
}

// UnknownHandResult is the canonical failure result for the hand modality.
func UnknownHandResult(at time.Time) HandConfidenceResult {
	return HandConfidenceResult{RunAt: at, ConfidenceLevel: HandNoHands, DetectorUsed: "error", Confidence: 0}
}

// NoAudioResult is the canonical result when no audio has been received.
func NoAudioResult(at time.Time) VoiceConfidenceResult {
	return VoiceConfidenceResult{RunAt: at, ConfidenceLevel: VoiceNoAudio, Emotion: "no_audio", DetectorUsed: "no_audio_detected", Confidence: 0}
}

// SessionStoppedResult is the terminal voice result emitted during final flush.
func SessionStoppedResult(at time.Time) VoiceConfidenceResult {
	return VoiceConfidenceResult{RunAt: at, ConfidenceLevel: VoiceSessionStopped, Emotion: "session_stopped", DetectorUsed: "session_stopped", Confidence: 0}
}
