package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/npezzotti/go-hangout/internal/types"
)

func TestClientPayload_Validate(t *testing.T) {
	valid := ClientPayload{
		Command:   CmdInvite,
		Username:  "bob",
		Email:     "bob@example.com",
		Timestamp: 1700000000000,
	}
	assert.NoError(t, valid.Validate(), "expected valid payload to pass")

	tt := []struct {
		name   string
		mutate func(p *ClientPayload)
	}{
		{"missing command", func(p *ClientPayload) { p.Command = "" }},
		{"missing username", func(p *ClientPayload) { p.Username = "" }},
		{"missing timestamp", func(p *ClientPayload) { p.Timestamp = 0 }},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrMalformedPayload)
		})
	}
}

func TestAcknowledgementFrame(t *testing.T) {
	record := types.Hangout{Username: "bob", State: StateInvited, Timestamp: 1}

	frame := AcknowledgementFrame(record, false)
	assert.Equal(t, FrameAcknowledgement, frame.Type)
	assert.Equal(t, record, *frame.Hangout)

	offline := AcknowledgementFrame(record, true)
	assert.Equal(t, FrameOfflineAckn, offline.Type, "expected OFFLINE_ACKN for a replayed command")
}

func TestBatchFrames(t *testing.T) {
	records := []types.Hangout{
		{Username: "bob", State: StateInviter, Timestamp: 1},
		{Username: "eve", State: StateMessanger, Timestamp: 2},
	}

	und := UndeliveredFrame(records)
	assert.Equal(t, FrameUndelivered, und.Type)
	assert.Equal(t, records, und.Hangouts)

	del := DelayedFrame(records)
	assert.Equal(t, FrameDelayed, del.Type)
	assert.Equal(t, records, del.Hangouts)
}

func TestErrorFrame_wireFormat(t *testing.T) {
	frame := ErrorFrame(ErrUnknownCommand)

	bytes, err := json.Marshal(frame)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"type":"ERROR","error":"UnknownCommand"}`, string(bytes))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "UnknownCommand", ErrorCode(ErrUnknownCommand))
	assert.Equal(t, "MalformedPayload", ErrorCode(ErrMalformedPayload))
	assert.Equal(t, "PersistenceError", ErrorCode(ErrPersistence))
	assert.Equal(t, "PersistenceError", ErrorCode(errors.New("disk on fire")),
		"expected unclassified errors to surface as persistence failures")
}
