package detector

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config configures the detector providers built by the registry. Each
// modality reads the subset of fields relevant to it; unused fields are
// ignored by the other three.
type Config struct {
	FaceProvider  string `validate:"required"`
	EyeProvider   string `validate:"required"`
	HandProvider  string `validate:"required"`
	VoiceProvider string `validate:"required"`

	// StressConfidenceThreshold is the minimum model confidence for a face
	// emotion classification to be trusted; below it the heuristic fallback
	// runs instead.
	StressConfidenceThreshold float64 `validate:"gte=0,lte=1"`

	// EyeConfidentThreshold and EyeSomewhatThreshold bound the three-way eye
	// confidence classification (§4.5).
	EyeConfidentThreshold float64 `validate:"gte=0,lte=1"`
	EyeSomewhatThreshold  float64 `validate:"gte=0,lte=1"`

	// HandConfidentThreshold and HandSomewhatThreshold bound the three-way
	// hand confidence classification.
	HandConfidentThreshold float64 `validate:"gte=0,lte=1"`
	HandSomewhatThreshold  float64 `validate:"gte=0,lte=1"`

	// VoiceConfidentThreshold and VoiceSomewhatThreshold bound the three-way
	// voice confidence classification.
	VoiceConfidentThreshold float64 `validate:"gte=0,lte=1"`
	VoiceSomewhatThreshold  float64 `validate:"gte=0,lte=1"`
}

// ConfigOption is a functional option for Config.
type ConfigOption func(*Config)

// WithProviders sets the four provider names in one call.
func WithProviders(face, eye, hand, voice string) ConfigOption {
	return func(c *Config) {
		c.FaceProvider = face
		c.EyeProvider = eye
		c.HandProvider = hand
		c.VoiceProvider = voice
	}
}

// WithStressConfidenceThreshold overrides the face-stress model-trust threshold.
func WithStressConfidenceThreshold(t float64) ConfigOption {
	return func(c *Config) { c.StressConfidenceThreshold = t }
}

// DefaultConfig returns the thresholds the original classifier used:
// roughly a 60/35 split for eye and hand confidence, and 65/40 for voice,
// mirroring the original Python project's _convert_to_simple_format bands.
func DefaultConfig() *Config {
	return &Config{
		FaceProvider:              "model",
		EyeProvider:               "model",
		HandProvider:              "model",
		VoiceProvider:             "model",
		StressConfidenceThreshold: 0.5,
		EyeConfidentThreshold:     0.6,
		EyeSomewhatThreshold:      0.35,
		HandConfidentThreshold:    0.6,
		HandSomewhatThreshold:     0.35,
		VoiceConfidentThreshold:   0.65,
		VoiceSomewhatThreshold:    0.40,
	}
}

// ValidateConfig runs struct-tag validation and the cross-field ordering
// checks that tags alone can't express.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return NewDetectorError("ValidateConfig", ErrCodeInvalidConfig, fmt.Errorf("config cannot be nil"))
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return NewDetectorError("ValidateConfig", ErrCodeInvalidConfig, err)
	}

	if cfg.EyeSomewhatThreshold >= cfg.EyeConfidentThreshold {
		return NewDetectorError("ValidateConfig", ErrCodeInvalidConfig,
			fmt.Errorf("eye somewhat threshold (%f) must be below confident threshold (%f)", cfg.EyeSomewhatThreshold, cfg.EyeConfidentThreshold))
	}
	if cfg.HandSomewhatThreshold >= cfg.HandConfidentThreshold {
		return NewDetectorError("ValidateConfig", ErrCodeInvalidConfig,
			fmt.Errorf("hand somewhat threshold (%f) must be below confident threshold (%f)", cfg.HandSomewhatThreshold, cfg.HandConfidentThreshold))
	}
	if cfg.VoiceSomewhatThreshold >= cfg.VoiceConfidentThreshold {
		return NewDetectorError("ValidateConfig", ErrCodeInvalidConfig,
			fmt.Errorf("voice somewhat threshold (%f) must be below confident threshold (%f)", cfg.VoiceSomewhatThreshold, cfg.VoiceConfidentThreshold))
	}

	return nil
}
