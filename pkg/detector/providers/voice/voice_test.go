package voice

import (
	"context"
	"testing"

	"github.com/insighthire/engine/pkg/detector"
	"github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_Analyze_EmptyWindowIsNoAudio(t *testing.T) {
	d, err := New(detector.DefaultConfig())
	require.NoError(t, err)

	result := d.Analyze(context.Background(), media.AudioWindow{})
	assert.Equal(t, iface.VoiceNoAudio, result.ConfidenceLevel)
}

func TestDetector_Analyze_HighEnergyHighCrossingYieldsHappy(t *testing.T) {
	d, err := New(detector.DefaultConfig())
	require.NoError(t, err)

	samples := make([]float32, 2000)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.9
		} else {
			samples[i] = -0.9
		}
	}
	window := media.AudioWindow{Samples: samples, SampleRate: 16000}

	result := d.Analyze(context.Background(), window)
	assert.Equal(t, "happy", result.Emotion)
	assert.Equal(t, "ml_model_improved", result.DetectorUsed)
	assert.Equal(t, iface.VoiceConfident, result.ConfidenceLevel)
}

func TestDetector_Analyze_SilenceYieldsSadNotConfident(t *testing.T) {
	d, err := New(detector.DefaultConfig())
	require.NoError(t, err)

	samples := make([]float32, 2000)
	window := media.AudioWindow{Samples: samples, SampleRate: 16000}

	result := d.Analyze(context.Background(), window)
	assert.Equal(t, "sad", result.Emotion)
	assert.Equal(t, iface.VoiceNotConfident, result.ConfidenceLevel)
}
