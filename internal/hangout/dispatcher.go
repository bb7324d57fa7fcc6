package hangout

import (
	"log"

	"github.com/npezzotti/go-hangout/internal/protocol"
	"github.com/npezzotti/go-hangout/internal/stats"
	"github.com/npezzotti/go-hangout/internal/store"
	"github.com/npezzotti/go-hangout/internal/types"
)

// Dispatcher fans a just-persisted state update out to every browser of one
// user: a live push for connected browsers, a queue write for the rest. The
// sender's own browsers receive acknowledgements and fall back to the delayed
// queue; the counterpart's browsers receive hangout pushes and fall back to
// the undelivered queue. The two queues are not interchangeable.
type Dispatcher struct {
	log      *log.Logger
	registry *Registry
	store    store.HangoutStore
	stats    stats.StatsProvider
}

func NewDispatcher(logger *log.Logger, registry *Registry, st store.HangoutStore, su stats.StatsProvider) *Dispatcher {
	return &Dispatcher{
		log:      logger,
		registry: registry,
		store:    st,
		stats:    su,
	}
}

// DispatchSender delivers the acknowledgement of a command to all of the
// sender's browsers. Offline commands are acknowledged with OFFLINE_ACKN so
// a client can tell a replay from a live update.
func (d *Dispatcher) DispatchSender(sender types.User, record types.Hangout, offline bool) error {
	return d.fanOut(sender, record, store.QueueDelayed, func() *protocol.ServerFrame {
		return protocol.AcknowledgementFrame(record, offline)
	})
}

// DispatchTarget delivers the fresh hangout record to all of the target's
// browsers.
func (d *Dispatcher) DispatchTarget(target types.User, record types.Hangout) error {
	return d.fanOut(target, record, store.QueueUndelivered, func() *protocol.ServerFrame {
		return protocol.HangoutFrame(record)
	})
}

// fanOut runs the per-browser decision once for each browser the user owns.
// A failed enqueue is remembered but does not stop delivery to the remaining
// browsers; the first such error is returned so the command can be reported
// as not fully applied.
func (d *Dispatcher) fanOut(user types.User, record types.Hangout, queue store.Queue, frame func() *protocol.ServerFrame) error {
	var firstErr error
	for _, browser := range user.Browsers {
		sink, ok := d.registry.Lookup(user.Username, browser.BrowserId)
		if ok && d.registry.Send(sink, frame()) {
			d.stats.Incr(stats.DeliveredFrames)
			continue
		}

		if err := d.store.EnqueueForBrowser(user.Username, browser.BrowserId, queue, record); err != nil {
			d.log.Printf("enqueue %s for %s-%s: %v", queue, user.Username, browser.BrowserId, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		d.stats.Incr(stats.QueuedDeliveries)
	}

	return firstErr
}
