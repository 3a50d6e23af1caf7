package session

// InboundFrame is a text-JSON message from the telephony provider's media
// WebSocket. "start" and "audio" frames share this envelope; unrecognized
// Type values are logged and ignored (§4.5.3).
type InboundFrame struct {
	Type      string       `json:"type"`
	AccountID string       `json:"account_id,omitempty"`
	CallAppID string       `json:"call_app_id,omitempty"`
	CallID    string       `json:"call_id,omitempty"`
	StreamID  string       `json:"stream_id,omitempty"`
	MessageID string       `json:"message_id,omitempty"`
	Data      *InboundData `json:"data,omitempty"`
}

// InboundData carries the per-type payload of an InboundFrame.
type InboundData struct {
	Encoding   string `json:"encoding,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	AudioB64   string `json:"audio_b64,omitempty"`
}

const (
	frameTypeStart = "start"
	frameTypeAudio = "audio"
)

// OutboundFrame is a text-JSON message pushed back to the telephony provider.
type OutboundFrame struct {
	Type     string `json:"type"`
	AudioB64 string `json:"audio_b64,omitempty"`
	ChunkID  int64  `json:"chunk_id,omitempty"`
}

func audioFrame(b64 string, chunkID int64) OutboundFrame {
	return OutboundFrame{Type: "audio", AudioB64: b64, ChunkID: chunkID}
}

func interruptFrame(chunkID int64) OutboundFrame {
	return OutboundFrame{Type: "interrupt", ChunkID: chunkID}
}

func clearFrame() OutboundFrame {
	return OutboundFrame{Type: "clear"}
}

// Sender delivers outbound frames to the media WebSocket and closes it on
// teardown. The Media Gateway implements this over a real connection; tests
// use an in-memory fake.
type Sender interface {
	Send(frame OutboundFrame) error
	Close(code int, reason string) error
}
