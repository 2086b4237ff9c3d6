package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insighthire/engine/pkg/detector"
	detectoriface "github.com/insighthire/engine/pkg/detector/iface"
	"github.com/insighthire/engine/pkg/manager"
	"github.com/insighthire/engine/pkg/media"
	"github.com/insighthire/engine/pkg/store/providers/inmemory"
	transportiface "github.com/insighthire/engine/pkg/transport/iface"
)

type noopVisual struct{ modality detectoriface.Modality }

func (v noopVisual) Modality() detectoriface.Modality { return v.modality }
func (v noopVisual) Analyze(ctx context.Context, frame media.VideoFrame) detectoriface.DetectorResult {
	return detectoriface.UnknownFaceResult(time.Now())
}

type noopVoice struct{}

func (noopVoice) Analyze(ctx context.Context, window media.AudioWindow) detectoriface.VoiceConfidenceResult {
	return detectoriface.NoAudioResult(time.Now())
}

func newTestServer(t *testing.T) (*httptest.Server, *manager.SessionManager, *inmemory.EventBus) {
	t.Helper()
	reg := detector.GetRegistry()
	reg.RegisterVisual(detectoriface.ModalityFace, func(cfg *detector.Config) (detectoriface.VisualDetector, error) {
		return noopVisual{modality: detectoriface.ModalityFace}, nil
	})
	reg.RegisterVisual(detectoriface.ModalityEye, func(cfg *detector.Config) (detectoriface.VisualDetector, error) {
		return noopVisual{modality: detectoriface.ModalityEye}, nil
	})
	reg.RegisterVisual(detectoriface.ModalityHand, func(cfg *detector.Config) (detectoriface.VisualDetector, error) {
		return noopVisual{modality: detectoriface.ModalityHand}, nil
	})
	reg.RegisterVoice(func(cfg *detector.Config) (detectoriface.VoiceDetector, error) {
		return noopVoice{}, nil
	})

	store := inmemory.New()
	bus := inmemory.NewEventBus()
	mgr, err := manager.New(detector.DefaultConfig(), store, bus, nil)
	require.NoError(t, err)

	handler := NewHandler(mgr, bus, nil)
	srv := httptest.NewServer(handler)
	return srv, mgr, bus
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHandler_JoinSession_AcksAnalysisActive(t *testing.T) {
	srv, mgr, _ := newTestServer(t)
	defer srv.Close()
	_, err := mgr.Start(context.Background(), "sess-1", "")
	require.NoError(t, err)
	defer mgr.Stop("sess-1")

	conn := dial(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(transportiface.InboundEnvelope{
		Event:   transportiface.EventJoinSession,
		Payload: transportiface.JoinSessionPayload{SessionID: "sess-1"},
	}))

	var resp map[string]json.RawMessage
	require.NoError(t, conn.ReadJSON(&resp))

	var ack transportiface.JoinSessionAck
	require.NoError(t, json.Unmarshal(resp["payload"], &ack))
	assert.True(t, ack.AnalysisActive)
}

func TestHandler_VideoFrameNil_TriggersStop(t *testing.T) {
	srv, mgr, _ := newTestServer(t)
	defer srv.Close()
	_, err := mgr.Start(context.Background(), "sess-2", "")
	require.NoError(t, err)

	conn := dial(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(transportiface.InboundEnvelope{
		Event:   transportiface.EventVideoFrame,
		Payload: transportiface.VideoFramePayload{SessionID: "sess-2", Frame: nil},
	}))

	require.Eventually(t, func() bool {
		_, ok := mgr.Lookup("sess-2")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestHandler_AudioDataStopSignal_TriggersStop(t *testing.T) {
	srv, mgr, _ := newTestServer(t)
	defer srv.Close()
	_, err := mgr.Start(context.Background(), "sess-3", "")
	require.NoError(t, err)

	conn := dial(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(transportiface.InboundEnvelope{
		Event: transportiface.EventAudioData,
		Payload: transportiface.AudioDataPayload{
			SessionID:    "sess-3",
			IsStopSignal: true,
		},
	}))

	require.Eventually(t, func() bool {
		_, ok := mgr.Lookup("sess-3")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestHandler_AnalysisUpdate_ForwardedToSubscriber(t *testing.T) {
	srv, _, bus := newTestServer(t)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(transportiface.InboundEnvelope{
		Event:   transportiface.EventJoinSession,
		Payload: transportiface.JoinSessionPayload{SessionID: "sess-4"},
	}))
	var ackMsg map[string]json.RawMessage
	require.NoError(t, conn.ReadJSON(&ackMsg))

	require.NoError(t, bus.Broadcast(context.Background(), "sess-4", "analysis_update", map[string]any{"hello": "world"}))

	var update transportiface.AnalysisUpdateEvent
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, "analysis_update", update.Event)
	assert.Equal(t, "sess-4", update.SessionID)
}

func TestDecodeJPEGFrame_InvalidBase64ReturnsError(t *testing.T) {
	_, err := decodeJPEGFrame("not-valid-base64!!!", "sess-5")
	assert.Error(t, err)
}

func TestDecodeJPEGFrame_UndecodableBytesReturnsError(t *testing.T) {
	notAJPEG := base64.StdEncoding.EncodeToString([]byte("definitely not jpeg data"))
	_, err := decodeJPEGFrame(notAJPEG, "sess-6")
	assert.Error(t, err)
}
