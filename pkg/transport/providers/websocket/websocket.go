// Package websocket is the reference (non-authoritative) implementation of
// the event-socket transport described in §6.1/§6.2: it upgrades HTTP
// connections with gorilla/websocket, decodes the four inbound message
// types into SessionManager calls, and fans analysis_update broadcasts from
// the in-memory EventBus back out to subscribed connections.
package websocket

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/jpeg"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/insighthire/engine/pkg/manager"
	"github.com/insighthire/engine/pkg/media"
	"github.com/insighthire/engine/pkg/store/providers/inmemory"
	transportiface "github.com/insighthire/engine/pkg/transport/iface"
)

// Handler upgrades inbound HTTP connections to websockets and bridges them
// to a SessionManager and the EventBus it emits on.
type Handler struct {
	manager  *manager.SessionManager
	bus      *inmemory.EventBus
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler builds a Handler over mgr and bus. CORS origin checking is
// intentionally permissive, matching a local/dev-oriented reference
// transport; a production deployment should tighten CheckOrigin.
func NewHandler(mgr *manager.SessionManager, bus *inmemory.EventBus, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		manager: mgr,
		bus:     bus,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs the connection's read loop until
// the client disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &connHandler{
		conn:    conn,
		manager: h.manager,
		bus:     h.bus,
		logger:  h.logger,
		subs:    make(map[string]chan struct{}),
	}
	defer c.closeAllSubs()
	defer conn.Close()

	c.readLoop()
}

// connHandler owns one client connection: its subscriptions to the bus and
// the single-writer discipline gorilla/websocket requires.
type connHandler struct {
	conn    *websocket.Conn
	manager *manager.SessionManager
	bus     *inmemory.EventBus
	logger  *slog.Logger

	writeMu sync.Mutex
	mu      sync.Mutex
	subs    map[string]chan struct{} // session_id -> stop channel for its forwarder goroutine
}

func (c *connHandler) readLoop() {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return // client closed or network error; connection teardown
		}

		var env transportiface.InboundEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warn("malformed inbound message", slog.Any("error", err))
			continue
		}

		switch env.Event {
		case transportiface.EventJoinSession:
			c.handleJoinSession(raw)
		case transportiface.EventLeaveSession:
			c.handleLeaveSession(raw)
		case transportiface.EventVideoFrame:
			c.handleVideoFrame(raw)
		case transportiface.EventAudioData:
			c.handleAudioData(raw)
		default:
			c.logger.Warn("unknown inbound event", slog.String("event", env.Event))
		}
	}
}

func decodePayload[T any](raw []byte) (T, error) {
	var wrapper struct {
		Payload T `json:"payload"`
	}
	err := json.Unmarshal(raw, &wrapper)
	return wrapper.Payload, err
}

func (c *connHandler) handleJoinSession(raw []byte) {
	payload, err := decodePayload[transportiface.JoinSessionPayload](raw)
	if err != nil || payload.SessionID == "" {
		c.logger.Warn("malformed join_session payload", slog.Any("error", err))
		return
	}

	view, active := c.manager.Lookup(payload.SessionID)
	c.subscribe(payload.SessionID)
	c.writeJSON(map[string]any{
		"event":   "join_session_ack",
		"payload": transportiface.JoinSessionAck{AnalysisActive: active && view.State == "running"},
	})
}

func (c *connHandler) handleLeaveSession(raw []byte) {
	payload, err := decodePayload[transportiface.LeaveSessionPayload](raw)
	if err != nil || payload.SessionID == "" {
		c.logger.Warn("malformed leave_session payload", slog.Any("error", err))
		return
	}
	c.unsubscribe(payload.SessionID)
	_ = c.manager.Stop(payload.SessionID) // unknown/already-stopped session is a benign race
}

func (c *connHandler) handleVideoFrame(raw []byte) {
	payload, err := decodePayload[transportiface.VideoFramePayload](raw)
	if err != nil || payload.SessionID == "" {
		c.logger.Warn("malformed video_frame payload", slog.Any("error", err))
		return
	}
	if payload.Frame == nil {
		_ = c.manager.Stop(payload.SessionID)
		return
	}

	frame, err := decodeJPEGFrame(*payload.Frame, payload.SessionID)
	if err != nil {
		c.logger.Warn("undecodable video frame", slog.String("session_id", payload.SessionID), slog.Any("error", err))
		return
	}
	_ = c.manager.OfferVideo(payload.SessionID, frame)
}

func (c *connHandler) handleAudioData(raw []byte) {
	payload, err := decodePayload[transportiface.AudioDataPayload](raw)
	if err != nil || payload.SessionID == "" {
		c.logger.Warn("malformed audio_data payload", slog.Any("error", err))
		return
	}
	if payload.Audio == nil || payload.IsStopSignal {
		_ = c.manager.Stop(payload.SessionID)
		return
	}

	chunk := media.AudioChunk{
		SessionID:  payload.SessionID,
		Samples:    payload.Audio,
		SampleRate: payload.SampleRate,
	}
	_ = c.manager.OfferAudio(payload.SessionID, chunk)
}

// subscribe starts a forwarder goroutine relaying the bus's broadcasts for
// sessionID to this connection until unsubscribe or the connection closes.
func (c *connHandler) subscribe(sessionID string) {
	c.mu.Lock()
	if _, exists := c.subs[sessionID]; exists {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.subs[sessionID] = stop
	c.mu.Unlock()

	ch := c.bus.Subscribe(sessionID)
	go func() {
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				update := transportiface.AnalysisUpdateEvent{
					Event:     ev.Name,
					SessionID: ev.SessionID,
					Analysis:  ev.Payload,
				}
				if m, ok := ev.Payload.(map[string]any); ok {
					update.Timestamp = m["timestamp"]
					update.Analysis = m["analysis"]
				}
				c.writeJSON(update)
			}
		}
	}()
}

func (c *connHandler) unsubscribe(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stop, exists := c.subs[sessionID]; exists {
		close(stop)
		delete(c.subs, sessionID)
	}
}

func (c *connHandler) closeAllSubs() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, stop := range c.subs {
		close(stop)
		delete(c.subs, id)
	}
}

func (c *connHandler) writeJSON(v any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(v); err != nil {
		c.logger.Warn("write to websocket failed", slog.Any("error", err))
	}
}

// decodeJPEGFrame decodes a base64-encoded JPEG into a media.VideoFrame of
// row-major RGB bytes. Standard library image/jpeg is used here because no
// third-party JPEG decoder appears anywhere in the reference corpus.
func decodeJPEGFrame(b64 string, sessionID string) (media.VideoFrame, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return media.VideoFrame{}, err
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return media.VideoFrame{}, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, 0, width*height*media.Channels)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixels = appendRGB(pixels, img, x, y)
		}
	}

	return media.VideoFrame{
		SessionID: sessionID,
		Width:     width,
		Height:    height,
		Pixels:    pixels,
	}, nil
}

func appendRGB(pixels []byte, img image.Image, x, y int) []byte {
	r, g, b, _ := img.At(x, y).RGBA()
	return append(pixels, byte(r>>8), byte(g>>8), byte(b>>8))
}
