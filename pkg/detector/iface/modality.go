package iface

// Modality identifies which inference pipeline produced a DetectorResult.
type Modality string

const (
	ModalityFace  Modality = "face"
	ModalityEye   Modality = "eye"
	ModalityHand  Modality = "hand"
	ModalityVoice Modality = "voice"
)

// FaceStressLevel is the classification returned by the face-stress detector.
type FaceStressLevel string

const (
	FaceStress    FaceStressLevel = "stress"
	FaceNonStress FaceStressLevel = "non_stress"
	FaceUnknown   FaceStressLevel = "unknown"
)

// EyeConfidenceLevel is the classification returned by the eye-gaze detector.
type EyeConfidenceLevel string

const (
	EyeConfident         EyeConfidenceLevel = "confident"
	EyeSomewhatConfident EyeConfidenceLevel = "somewhat_confident"
	EyeNotConfident      EyeConfidenceLevel = "not_confident"
	EyeNoFace            EyeConfidenceLevel = "no_face"
	EyeNoEyes            EyeConfidenceLevel = "no_eyes"
)

// HandConfidenceLevel is the classification returned by the hand-pose detector.
type HandConfidenceLevel string

const (
	HandConfident         HandConfidenceLevel = "confident"
	HandSomewhatConfident HandConfidenceLevel = "somewhat_confident"
	HandNotConfident      HandConfidenceLevel = "not_confident"
	HandNoHands           HandConfidenceLevel = "no_hands"
)

// VoiceConfidenceLevel is the classification returned by the vocal-emotion detector.
type VoiceConfidenceLevel string

const (
	VoiceConfident         VoiceConfidenceLevel = "confident"
	VoiceSomewhatConfident VoiceConfidenceLevel = "somewhat_confident"
	VoiceNotConfident      VoiceConfidenceLevel = "not_confident"
	VoiceNoAudio           VoiceConfidenceLevel = "no_audio"
	VoiceSessionStopped    VoiceConfidenceLevel = "session_stopped"
	VoiceError             VoiceConfidenceLevel = "error"
)

// Voice "good"/"bad" emotion sets per the binarization rule in §4.5.
var (
	GoodEmotions = map[string]bool{"happy": true, "calm": true, "neutral": true}
	BadEmotions  = map[string]bool{"angry": true, "sad": true, "fearful": true, "stressed": true, "fear": true, "disgust": true}
)
