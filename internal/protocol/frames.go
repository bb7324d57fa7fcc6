package protocol

import (
	"github.com/npezzotti/go-hangout/internal/types"
)

// Frame kinds sent server-to-client. ACKHOWLEDGEMENT and OFFLINE_ACKN go to
// the command issuer's own browsers, HANGOUT to the counterpart's. The two
// batched kinds replay a browser's backlog on reconnect, one frame per queue.
const (
	FrameAcknowledgement = "ACKHOWLEDGEMENT"
	FrameOfflineAckn     = "OFFLINE_ACKN"
	FrameHangout         = "HANGOUT"
	FrameUndelivered     = "UNDELIVERED_HANGOUTS"
	FrameDelayed         = "DELAYED_ACKHOWLEDGEMENTS"
	FrameError           = "ERROR"
)

// ClientPayload is the inbound websocket frame: one command aimed at one
// counterpart. Offline marks a command replayed by a client mid-reconnect so
// the acknowledgement can be tagged OFFLINE_ACKN.
type ClientPayload struct {
	Command   Command        `json:"command"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Message   *types.Message `json:"message,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Offline   bool           `json:"offline,omitempty"`
}

// Validate checks the required payload fields. The command itself is
// validated later by MapState so that an unknown verb reports UnknownCommand
// rather than MalformedPayload.
func (p *ClientPayload) Validate() error {
	if p.Command == "" || p.Username == "" || p.Timestamp == 0 {
		return ErrMalformedPayload
	}

	return nil
}

// ServerFrame is the outbound websocket frame. Exactly one of Hangout or
// Hangouts is set for non-error kinds.
type ServerFrame struct {
	Type     string          `json:"type"`
	Hangout  *types.Hangout  `json:"hangout,omitempty"`
	Hangouts []types.Hangout `json:"hangouts,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func AcknowledgementFrame(record types.Hangout, offline bool) *ServerFrame {
	kind := FrameAcknowledgement
	if offline {
		kind = FrameOfflineAckn
	}

	return &ServerFrame{Type: kind, Hangout: &record}
}

func HangoutFrame(record types.Hangout) *ServerFrame {
	return &ServerFrame{Type: FrameHangout, Hangout: &record}
}

func UndeliveredFrame(records []types.Hangout) *ServerFrame {
	return &ServerFrame{Type: FrameUndelivered, Hangouts: records}
}

func DelayedFrame(records []types.Hangout) *ServerFrame {
	return &ServerFrame{Type: FrameDelayed, Hangouts: records}
}

func ErrorFrame(err error) *ServerFrame {
	return &ServerFrame{Type: FrameError, Error: ErrorCode(err)}
}
