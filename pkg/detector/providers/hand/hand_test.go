package hand

import (
	"context"
	"testing"

	"github.com/insighthire/engine/pkg/detector"
	"github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_Analyze_NoSkinToneYieldsNoHands(t *testing.T) {
	d, err := New(detector.DefaultConfig())
	require.NoError(t, err)

	pixels := make([]byte, 20*30*media.Channels)
	for i := range pixels {
		pixels[i] = 10 // near-black, no skin tone
	}
	frame := media.VideoFrame{Width: 20, Height: 30, Pixels: pixels}

	result := d.Analyze(context.Background(), frame)
	hr, ok := result.(iface.HandConfidenceResult)
	require.True(t, ok)
	assert.Equal(t, iface.HandNoHands, hr.ConfidenceLevel)
}

func TestDetector_Analyze_SkinToneFrameDetectsHand(t *testing.T) {
	d, err := New(detector.DefaultConfig())
	require.NoError(t, err)

	pixels := make([]byte, 20*30*media.Channels)
	for i := 0; i < len(pixels); i += media.Channels {
		pixels[i] = 200   // R
		pixels[i+1] = 140 // G
		pixels[i+2] = 100 // B
	}
	frame := media.VideoFrame{Width: 20, Height: 30, Pixels: pixels}

	result := d.Analyze(context.Background(), frame)
	hr, ok := result.(iface.HandConfidenceResult)
	require.True(t, ok)
	assert.NotEqual(t, iface.HandNoHands, hr.ConfidenceLevel)
	assert.Equal(t, "dynamic_gestures_onnx", hr.DetectorUsed)
	assert.Len(t, hr.Gestures, 1)
}
