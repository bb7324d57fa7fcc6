package hangout

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/npezzotti/go-hangout/internal/protocol"
	"github.com/npezzotti/go-hangout/internal/stats"
	"github.com/npezzotti/go-hangout/internal/store"
	"github.com/npezzotti/go-hangout/internal/types"
)

// Orchestrator is the single entry point for one inbound command frame. It
// composes the state model, the store, the registry and the dispatcher into
// one request cycle: map the command, persist the mirrored records for sender
// then target, append message history, then fan out delivery.
type Orchestrator struct {
	log        *log.Logger
	store      store.HangoutStore
	dispatcher *Dispatcher
	stats      stats.StatsProvider
}

func NewOrchestrator(logger *log.Logger, st store.HangoutStore, d *Dispatcher, su stats.StatsProvider) *Orchestrator {
	return &Orchestrator{
		log:        logger,
		store:      st,
		dispatcher: d,
		stats:      su,
	}
}

// HandleCommand processes one raw text frame from an authenticated
// connection. Errors are returned for the caller to report as an ERROR frame
// on the originating connection only; they never close the socket and never
// reach the counterpart.
func (o *Orchestrator) HandleCommand(connUser types.User, browserId string, raw []byte) error {
	var payload protocol.ClientPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrMalformedPayload, err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	pair, err := protocol.MapState(payload.Command)
	if err != nil {
		// No persistence has happened: the command simply does not exist.
		return err
	}

	senderRecord := types.Hangout{
		Username:  payload.Username,
		Email:     payload.Email,
		State:     pair.Sender,
		Message:   payload.Message,
		Timestamp: payload.Timestamp,
	}
	targetRecord := types.Hangout{
		Username:  connUser.Username,
		Email:     connUser.Email,
		State:     pair.Target,
		Message:   payload.Message,
		Timestamp: payload.Timestamp,
	}

	sender, err := o.store.GetAccount(connUser.Username)
	if err != nil {
		return fmt.Errorf("%w: sender lookup: %v", protocol.ErrPersistence, err)
	}

	target, err := o.store.EnsureAccount(payload.Username, payload.Email)
	if err != nil {
		return fmt.Errorf("%w: target lookup: %v", protocol.ErrPersistence, err)
	}

	// Sender first: if the second write fails the sender's record is already
	// durable and the two sides diverge until the command is retried. That
	// window is accepted; the target write never proceeds on a failed sender
	// write, so divergence is bounded to one write boundary.
	if err := o.store.UpsertHangout(sender.Username, senderRecord); err != nil {
		return fmt.Errorf("%w: sender record: %v", protocol.ErrPersistence, err)
	}
	if err := o.store.UpsertHangout(target.Username, targetRecord); err != nil {
		return fmt.Errorf("%w: target record: %v", protocol.ErrPersistence, err)
	}

	if payload.Message != nil {
		if err := o.store.AppendMessageHistory(sender.Username, target.Username, *payload.Message); err != nil {
			return fmt.Errorf("%w: sender history: %v", protocol.ErrPersistence, err)
		}
		if err := o.store.AppendMessageHistory(target.Username, sender.Username, *payload.Message); err != nil {
			return fmt.Errorf("%w: target history: %v", protocol.ErrPersistence, err)
		}
	}

	switch payload.Command {
	case protocol.CmdInvite:
		// The fresh invite also counts toward the target's unread badge.
		if err := o.store.AppendUnread(target.Username, targetRecord); err != nil {
			return fmt.Errorf("%w: unread: %v", protocol.ErrPersistence, err)
		}
	case protocol.CmdRead:
		if err := o.store.ClearUnread(sender.Username, target.Username); err != nil {
			return fmt.Errorf("%w: clear unread: %v", protocol.ErrPersistence, err)
		}
	}

	// Sender's acknowledgement is attempted before the target's push so a
	// single-browser user sees their own action first.
	if err := o.dispatcher.DispatchSender(sender, senderRecord, payload.Offline); err != nil {
		return fmt.Errorf("%w: sender delivery: %v", protocol.ErrPersistence, err)
	}
	if err := o.dispatcher.DispatchTarget(target, targetRecord); err != nil {
		return fmt.Errorf("%w: target delivery: %v", protocol.ErrPersistence, err)
	}

	o.stats.Incr(stats.CommandsProcessed)

	return nil
}
