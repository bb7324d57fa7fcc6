package hangout

import (
	"github.com/npezzotti/go-hangout/internal/protocol"
	"github.com/npezzotti/go-hangout/internal/store"
)

// connectBrowser is the presence handler: it runs exactly once per accepted
// connection, registering the browser and replaying its backlog before the
// read loop starts. Each non-empty queue is flushed as one batched frame to
// bound the frame count; empty queues produce nothing.
func (s *HangoutServer) connectBrowser(c *Client) {
	s.registry.Register(c.user.Username, c.browserId, c)

	s.flushQueue(c, store.QueueUndelivered)
	s.flushQueue(c, store.QueueDelayed)
}

func (s *HangoutServer) flushQueue(c *Client, queue store.Queue) {
	records, err := s.store.DrainBrowserQueue(c.user.Username, c.browserId, queue)
	if err != nil {
		// The backlog stays durable and replays on the next reconnect.
		s.log.Printf("drain %s for %s-%s: %v", queue, c.user.Username, c.browserId, err)
		return
	}

	if len(records) == 0 {
		return
	}

	var frame *protocol.ServerFrame
	if queue == store.QueueUndelivered {
		frame = protocol.UndeliveredFrame(records)
	} else {
		frame = protocol.DelayedFrame(records)
	}

	if !c.QueueFrame(frame) {
		// The queue is already cleared; requeue so the batch is not lost.
		for _, record := range records {
			if err := s.store.EnqueueForBrowser(c.user.Username, c.browserId, queue, record); err != nil {
				s.log.Printf("requeue %s for %s-%s: %v", queue, c.user.Username, c.browserId, err)
			}
		}
	}
}
