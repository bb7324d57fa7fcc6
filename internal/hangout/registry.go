package hangout

import (
	"log"
	"sync"

	"github.com/npezzotti/go-hangout/internal/protocol"
)

// Sink is one connected browser's outbound side. QueueFrame is non-blocking
// and returns false when the frame could not be queued, which callers must
// treat the same as the browser being offline.
type Sink interface {
	QueueFrame(frame *protocol.ServerFrame) bool
}

// Registry tracks which browsers are connected right now. It is ephemeral by
// design: entries exist only for live sockets and the map is rebuilt empty on
// restart, leaving the persisted queues as the only durable record of what is
// owed to a browser.
//
// The registry is an injected dependency of the server and orchestrator, not
// package state, so it can be faked in tests.
type Registry struct {
	log   *log.Logger
	mu    sync.RWMutex
	conns map[string]Sink
}

func NewRegistry(logger *log.Logger) *Registry {
	return &Registry{
		log:   logger,
		conns: make(map[string]Sink),
	}
}

func connKey(username, browserId string) string {
	return username + "-" + browserId
}

// Register stores the sink for a browser, superseding any prior entry for
// the same key: a reconnect always wins over a stale socket.
func (r *Registry) Register(username, browserId string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connKey(username, browserId)] = sink
}

// Unregister removes a browser's entry, but only if it still points at the
// given sink. A reconnect that superseded the entry is left untouched when
// the old connection's deferred cleanup finally runs.
func (r *Registry) Unregister(username, browserId string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := connKey(username, browserId)
	if cur, ok := r.conns[key]; ok && cur == sink {
		delete(r.conns, key)
	}
}

func (r *Registry) Lookup(username, browserId string) (Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.conns[connKey(username, browserId)]
	return sink, ok
}

// Send queues a frame on a sink, holding no registry lock, so a slow socket
// never stalls other connections. A false return means the browser must be
// treated as offline for this frame and the record re-queued by the caller.
func (r *Registry) Send(sink Sink, frame *protocol.ServerFrame) bool {
	if !sink.QueueFrame(frame) {
		r.log.Printf("send failed, treating browser as offline for %s frame", frame.Type)
		return false
	}

	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
