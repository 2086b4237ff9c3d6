// Package iface defines the wire contracts for the event-socket transport
// (§6.1, §6.2): the four inbound message shapes and the one outbound
// broadcast shape. These are JSON wire types, distinct from the internal
// media.VideoFrame/media.AudioChunk types a transport provider decodes them
// into.
package iface

// InboundEnvelope is the outer shape every inbound socket message is
// unmarshaled into first, so the Event field can select how Payload is
// interpreted.
type InboundEnvelope struct {
	Event   string `json:"event"`
	Payload interface{} `json:"payload"`
}

// JoinSessionPayload is the payload of a join_session event.
type JoinSessionPayload struct {
	SessionID string `json:"session_id"`
}

// JoinSessionAck is returned to the caller in response to join_session.
type JoinSessionAck struct {
	AnalysisActive bool `json:"analysis_active"`
}

// LeaveSessionPayload is the payload of a leave_session event.
type LeaveSessionPayload struct {
	SessionID string `json:"session_id"`
}

// VideoFramePayload is the payload of a video_frame event. Frame is a
// base64-encoded JPEG, or nil to signal end-of-stream.
type VideoFramePayload struct {
	SessionID string  `json:"session_id"`
	Frame     *string `json:"frame"`
}

// AudioDataPayload is the payload of an audio_data event. Audio is nil, or
// IsStopSignal is true, to signal end-of-stream.
type AudioDataPayload struct {
	SessionID    string    `json:"session_id"`
	Audio        []float32 `json:"audio"`
	SampleRate   int       `json:"sample_rate"`
	IsStopSignal bool      `json:"is_stop_signal"`
}

// AnalysisUpdateEvent is the outbound broadcast shape (§6.2), sent on every
// composite tick.
type AnalysisUpdateEvent struct {
	Event     string      `json:"event"`
	SessionID string      `json:"session_id"`
	Timestamp interface{} `json:"timestamp"`
	Analysis  interface{} `json:"analysis"`
}

const (
	EventJoinSession  = "join_session"
	EventLeaveSession = "leave_session"
	EventVideoFrame   = "video_frame"
	EventAudioData    = "audio_data"
	EventAnalysisUpdate = "analysis_update"
)
