package detector

import (
	"fmt"
	"sync"

	"github.com/insighthire/engine/pkg/detector/iface"
)

// VisualFactory builds a VisualDetector for one of the Face/Eye/Hand
// modalities from a Config.
type VisualFactory func(cfg *Config) (iface.VisualDetector, error)

// VoiceFactory builds the VoiceDetector.
type VoiceFactory func(cfg *Config) (iface.VoiceDetector, error)

// Registry manages provider registration and lookup for the four detector
// modalities as a sync.Once-guarded global registry; it is the only
// provider registry in this module.
type Registry struct {
	mu     sync.RWMutex
	visual map[iface.Modality]VisualFactory
	voice  VoiceFactory
}

var (
	globalRegistry *Registry
	registryOnce   sync.Once
)

// GetRegistry returns the process-wide detector registry, initializing it on
// first use.
func GetRegistry() *Registry {
	registryOnce.Do(func() {
		globalRegistry = &Registry{
			visual: make(map[iface.Modality]VisualFactory),
		}
	})
	return globalRegistry
}

// RegisterVisual registers a factory for one of ModalityFace, ModalityEye,
// or ModalityHand. A later call for the same modality overwrites the prior
// registration, which lets tests swap in fakes without a reset hook.
func (r *Registry) RegisterVisual(modality iface.Modality, factory VisualFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visual[modality] = factory
}

// RegisterVoice registers the voice detector factory.
func (r *Registry) RegisterVoice(factory VoiceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voice = factory
}

// BuildVisual constructs the VisualDetector for modality using its
// registered factory.
func (r *Registry) BuildVisual(modality iface.Modality, cfg *Config) (iface.VisualDetector, error) {
	r.mu.RLock()
	factory, ok := r.visual[modality]
	r.mu.RUnlock()
	if !ok {
		return nil, NewDetectorError("BuildVisual", ErrCodeProviderNotFound,
			fmt.Errorf("no visual provider registered for modality %q", modality))
	}
	return factory(cfg)
}

// BuildVoice constructs the registered VoiceDetector.
func (r *Registry) BuildVoice(cfg *Config) (iface.VoiceDetector, error) {
	r.mu.RLock()
	factory := r.voice
	r.mu.RUnlock()
	if factory == nil {
		return nil, NewDetectorError("BuildVoice", ErrCodeProviderNotFound,
			fmt.Errorf("no voice provider registered"))
	}
	return factory(cfg)
}

// IsRegistered reports whether a visual factory exists for modality.
func (r *Registry) IsRegistered(modality iface.Modality) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.visual[modality]
	return ok
}
