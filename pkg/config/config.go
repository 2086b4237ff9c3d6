// Package config loads the engine's process-wide configuration using
// Viper, mirroring the teacher's ViperProvider: config file + environment
// variable overrides, unmarshaled into one struct and validated with
// struct tags.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/insighthire/engine/pkg/detector"
)

// StoreBackend selects which iface.Store implementation main wires up.
type StoreBackend string

const (
	StoreBackendInMemory StoreBackend = "inmemory"
	StoreBackendPostgres StoreBackend = "postgres"
)

// AppConfig is the root configuration struct, unmarshaled from YAML/env by
// Viper. mapstructure tags name the keys; validate tags enforce invariants
// that can't be expressed as file defaults alone.
type AppConfig struct {
	// HTTPAddr is where the REST surface (§6.4) listens.
	HTTPAddr string `mapstructure:"http_addr" yaml:"http_addr" validate:"required"`
	// WebSocketAddr is where the event-socket transport (§6.1/§6.2) listens.
	WebSocketAddr string `mapstructure:"websocket_addr" yaml:"websocket_addr" validate:"required"`

	StoreBackend      StoreBackend `mapstructure:"store_backend" yaml:"store_backend" validate:"required,oneof=inmemory postgres"`
	PostgresDSN       string       `mapstructure:"postgres_dsn" yaml:"postgres_dsn,omitempty"`
	PostgresSampleTbl string       `mapstructure:"postgres_sample_table" yaml:"postgres_sample_table"`
	PostgresFinalTbl  string       `mapstructure:"postgres_final_score_table" yaml:"postgres_final_score_table"`
	PostgresJobTbl    string       `mapstructure:"postgres_job_role_table" yaml:"postgres_job_role_table"`

	// IntakeQueueCapacity is loaded and validated here, but MediaIntake does
	// not read it: its drop-newest queues (§4.2) use a fixed capacity of 10.
	IntakeQueueCapacity int `mapstructure:"intake_queue_capacity" yaml:"intake_queue_capacity" validate:"gte=1"`

	// DefaultJobWeightVoice/Hand/Eye are loaded here but not read by the
	// aggregator, which falls back to its own built-in 33.33/33.33/33.34
	// split when a session has no job role (§4.8). Their sum is not checked.
	DefaultJobWeightVoice float64 `mapstructure:"default_job_weight_voice" yaml:"default_job_weight_voice"`
	DefaultJobWeightHand  float64 `mapstructure:"default_job_weight_hand" yaml:"default_job_weight_hand"`
	DefaultJobWeightEye   float64 `mapstructure:"default_job_weight_eye" yaml:"default_job_weight_eye"`

	Detector detectorSection `mapstructure:"detector" yaml:"detector"`
}

type detectorSection struct {
	FaceProvider              string  `mapstructure:"face_provider" yaml:"face_provider"`
	EyeProvider               string  `mapstructure:"eye_provider" yaml:"eye_provider"`
	HandProvider              string  `mapstructure:"hand_provider" yaml:"hand_provider"`
	VoiceProvider             string  `mapstructure:"voice_provider" yaml:"voice_provider"`
	StressConfidenceThreshold float64 `mapstructure:"stress_confidence_threshold" yaml:"stress_confidence_threshold" validate:"gte=0,lte=1"`
	EyeConfidentThreshold     float64 `mapstructure:"eye_confident_threshold" yaml:"eye_confident_threshold" validate:"gte=0,lte=1"`
	EyeSomewhatThreshold      float64 `mapstructure:"eye_somewhat_threshold" yaml:"eye_somewhat_threshold" validate:"gte=0,lte=1"`
	HandConfidentThreshold    float64 `mapstructure:"hand_confident_threshold" yaml:"hand_confident_threshold" validate:"gte=0,lte=1"`
	HandSomewhatThreshold     float64 `mapstructure:"hand_somewhat_threshold" yaml:"hand_somewhat_threshold" validate:"gte=0,lte=1"`
	VoiceConfidentThreshold   float64 `mapstructure:"voice_confident_threshold" yaml:"voice_confident_threshold" validate:"gte=0,lte=1"`
	VoiceSomewhatThreshold    float64 `mapstructure:"voice_somewhat_threshold" yaml:"voice_somewhat_threshold" validate:"gte=0,lte=1"`
}

// DetectorConfig converts the loaded detector section into a *detector.Config.
func (c *AppConfig) DetectorConfig() *detector.Config {
	d := c.Detector
	return &detector.Config{
		FaceProvider:              d.FaceProvider,
		EyeProvider:               d.EyeProvider,
		HandProvider:              d.HandProvider,
		VoiceProvider:             d.VoiceProvider,
		StressConfidenceThreshold: d.StressConfidenceThreshold,
		EyeConfidentThreshold:     d.EyeConfidentThreshold,
		EyeSomewhatThreshold:      d.EyeSomewhatThreshold,
		HandConfidentThreshold:    d.HandConfidentThreshold,
		HandSomewhatThreshold:     d.HandSomewhatThreshold,
		VoiceConfidentThreshold:   d.VoiceConfidentThreshold,
		VoiceSomewhatThreshold:    d.VoiceSomewhatThreshold,
	}
}

// Default returns the configuration the binary ships with when no config
// file or environment overrides are present: in-memory store, local-dev
// bind addresses, and the detector package's own defaults.
func Default() *AppConfig {
	def := detector.DefaultConfig()
	return &AppConfig{
		HTTPAddr:              ":8080",
		WebSocketAddr:         ":8081",
		StoreBackend:          StoreBackendInMemory,
		PostgresSampleTbl:     "interview_samples",
		PostgresFinalTbl:      "interview_final_scores",
		PostgresJobTbl:        "interview_job_roles",
		IntakeQueueCapacity:   10,
		DefaultJobWeightVoice: 33.33,
		DefaultJobWeightHand:  33.33,
		DefaultJobWeightEye:   33.34,
		Detector: detectorSection{
			FaceProvider:              def.FaceProvider,
			EyeProvider:               def.EyeProvider,
			HandProvider:              def.HandProvider,
			VoiceProvider:             def.VoiceProvider,
			StressConfidenceThreshold: def.StressConfidenceThreshold,
			EyeConfidentThreshold:     def.EyeConfidentThreshold,
			EyeSomewhatThreshold:      def.EyeSomewhatThreshold,
			HandConfidentThreshold:    def.HandConfidentThreshold,
			HandSomewhatThreshold:     def.HandSomewhatThreshold,
			VoiceConfidentThreshold:   def.VoiceConfidentThreshold,
			VoiceSomewhatThreshold:    def.VoiceSomewhatThreshold,
		},
	}
}

// DefaultYAML renders Default() as YAML, the same document shape a deployer
// would hand to Load via configPaths. It exists mainly so tests can fixture
// a config file straight from the struct instead of hand-maintaining one.
func DefaultYAML() ([]byte, error) {
	return yaml.Marshal(Default())
}

// ParseYAML unmarshals raw YAML directly into an AppConfig on top of
// Default(), bypassing Viper. main never calls this; it's the escape hatch
// for loading a fixture or an embedded config without standing up a Viper
// instance and its env-var/file-path machinery.
func ParseYAML(raw []byte) (*AppConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configName (without extension) from configPaths, overlays
// INTERVIEW_ENGINE_-prefixed environment variables, and unmarshals the
// result on top of Default(). A missing config file is not an error: the
// binary is expected to run from defaults and env vars alone in
// containerized deployments.
func Load(configName string, configPaths []string) (*AppConfig, error) {
	cfg := Default()

	v := viper.New()
	if configName != "" {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		for _, path := range configPaths {
			v.AddConfigPath(path)
		}
	}
	v.SetEnvPrefix("interview_engine")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configName != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("config: read config file: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct-tag validation over cfg plus the cross-field check
// that a postgres backend actually carries a DSN.
func Validate(cfg *AppConfig) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	if cfg.StoreBackend == StoreBackendPostgres && cfg.PostgresDSN == "" {
		return fmt.Errorf("config: invalid: postgres_dsn is required when store_backend is postgres")
	}
	return nil
}
