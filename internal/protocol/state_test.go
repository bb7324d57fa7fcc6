package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapState(t *testing.T) {
	tt := []struct {
		cmd    Command
		sender string
		target string
	}{
		{CmdInvite, StateInvited, StateInviter},
		{CmdAccept, StateAccepted, StateAccepter},
		{CmdDecline, StateDeclined, StateDecliner},
		{CmdBlock, StateBlocked, StateBlocker},
		{CmdUnblock, StateUnblocked, StateUnblocker},
		{CmdMessage, StateMessaged, StateMessanger},
		{CmdRead, StateRead, StateReader},
	}

	for _, tc := range tt {
		t.Run(string(tc.cmd), func(t *testing.T) {
			pair, err := MapState(tc.cmd)
			assert.NoError(t, err, "expected no error for command %q", tc.cmd)
			assert.Equal(t, tc.sender, pair.Sender, "expected sender state for %q", tc.cmd)
			assert.Equal(t, tc.target, pair.Target, "expected target state for %q", tc.cmd)
		})
	}
}

func TestMapState_unknownCommand(t *testing.T) {
	for _, cmd := range []Command{"", "FOO", "invite", "UNDECLINE"} {
		pair, err := MapState(cmd)
		assert.ErrorIs(t, err, ErrUnknownCommand, "expected UnknownCommand for %q", cmd)
		assert.Equal(t, StatePair{}, pair, "expected zero pair for %q", cmd)
	}
}

func TestMapState_pure(t *testing.T) {
	first, err := MapState(CmdAccept)
	assert.NoError(t, err)
	second, err := MapState(CmdAccept)
	assert.NoError(t, err)
	assert.Equal(t, first, second, "expected identical results for repeated calls")
}

func TestCommands_coversTable(t *testing.T) {
	cmds := Commands()
	assert.Len(t, cmds, len(stateTable), "expected Commands to list the whole closed set")

	for _, cmd := range cmds {
		_, err := MapState(cmd)
		assert.NoError(t, err, "expected %q to be mapped", cmd)
	}
}
