package protocol

import "fmt"

// Command is a client-issued verb acting on the relationship between the
// sender and one counterpart.
type Command string

const (
	CmdInvite  Command = "INVITE"
	CmdAccept  Command = "ACCEPT"
	CmdDecline Command = "DECLINE"
	CmdBlock   Command = "BLOCK"
	CmdUnblock Command = "UNBLOCK"
	CmdMessage Command = "MESSAGE"
	CmdRead    Command = "READ"
)

// Actor states describe the command issuer's own record.
const (
	StateInvited   = "INVITED"
	StateAccepted  = "ACCEPTED"
	StateDeclined  = "DECLINED"
	StateBlocked   = "BLOCKED"
	StateUnblocked = "UNBLOCKED"
	StateMessaged  = "MESSAGED"
	StateRead      = "READ"
)

// Counterpart states describe the recipient's record about the sender.
const (
	StateInviter   = "INVITER"
	StateAccepter  = "ACCEPTER"
	StateDecliner  = "DECLINER"
	StateBlocker   = "BLOCKER"
	StateUnblocker = "UNBLOCKER"
	StateMessanger = "MESSANGER"
	StateReader    = "READER"
)

// StatePair is the mirrored outcome of one command: the state the sender's
// own record takes on, and the state the target's record about the sender
// takes on.
type StatePair struct {
	Sender string
	Target string
}

// stateTable is the single authoritative command-to-state mapping. Client
// mirrors must be generated from or verified against this table, never
// re-declared.
var stateTable = map[Command]StatePair{
	CmdInvite:  {Sender: StateInvited, Target: StateInviter},
	CmdAccept:  {Sender: StateAccepted, Target: StateAccepter},
	CmdDecline: {Sender: StateDeclined, Target: StateDecliner},
	CmdBlock:   {Sender: StateBlocked, Target: StateBlocker},
	CmdUnblock: {Sender: StateUnblocked, Target: StateUnblocker},
	CmdMessage: {Sender: StateMessaged, Target: StateMessanger},
	CmdRead:    {Sender: StateRead, Target: StateReader},
}

// Commands returns the closed command set in declaration order.
func Commands() []Command {
	return []Command{
		CmdInvite, CmdAccept, CmdDecline, CmdBlock, CmdUnblock, CmdMessage, CmdRead,
	}
}

// MapState translates a command into the mirrored state pair for the two
// parties' records. It is a pure lookup: any value outside the closed command
// set fails with ErrUnknownCommand and must be treated as fatal to the single
// request, never to the connection.
func MapState(cmd Command) (StatePair, error) {
	pair, ok := stateTable[cmd]
	if !ok {
		return StatePair{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	return pair, nil
}
