package hangout

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/npezzotti/go-hangout/internal/stats"
	"github.com/npezzotti/go-hangout/internal/store"
	"github.com/npezzotti/go-hangout/internal/types"
)

// HangoutServer owns the live side of the protocol engine: it accepts
// authenticated connections, runs the presence handler for each, and tracks
// clients for shutdown. The registry and store arrive as constructor
// dependencies so the engine can run against fakes in tests.
type HangoutServer struct {
	log          *log.Logger
	store        store.HangoutStore
	registry     *Registry
	dispatcher   *Dispatcher
	orchestrator *Orchestrator
	stats        stats.StatsProvider
	clients      map[*Client]struct{}
	clientsLock  sync.Mutex
	clientsDone  sync.WaitGroup
}

func NewHangoutServer(logger *log.Logger, st store.HangoutStore, registry *Registry, su stats.StatsProvider) (*HangoutServer, error) {
	dispatcher := NewDispatcher(logger, registry, st, su)

	s := &HangoutServer{
		log:          logger,
		store:        st,
		registry:     registry,
		dispatcher:   dispatcher,
		orchestrator: NewOrchestrator(logger, st, dispatcher, su),
		stats:        su,
		clients:      make(map[*Client]struct{}),
	}

	su.RegisterMetric(stats.ActiveConnections)
	su.RegisterMetric(stats.CommandsProcessed)
	su.RegisterMetric(stats.QueuedDeliveries)
	su.RegisterMetric(stats.DeliveredFrames)

	return s, nil
}

// ServeConn adopts an upgraded, authenticated websocket connection for one
// browser. The backlog flush completes before the read loop starts, so a
// reconnecting browser never sees a live push from its own connection ordered
// ahead of its queued records.
func (s *HangoutServer) ServeConn(user types.User, browserId string, conn *websocket.Conn) error {
	if _, err := s.store.EnsureAccount(user.Username, user.Email); err != nil {
		return err
	}
	if err := s.store.EnsureBrowser(user.Username, browserId); err != nil {
		return err
	}

	c := NewClient(user, browserId, conn, s, s.log)
	s.addClient(c)
	s.stats.Incr(stats.ActiveConnections)

	go c.Write()

	s.connectBrowser(c)

	s.clientsDone.Add(1)
	go func() {
		defer s.clientsDone.Done()
		c.Read()
	}()

	return nil
}

func (s *HangoutServer) addClient(c *Client) {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()
	s.clients[c] = struct{}{}
}

func (s *HangoutServer) removeClient(c *Client) {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()

	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		s.stats.Decr(stats.ActiveConnections)
	}
}

// Shutdown stops all connected clients and waits for their read loops to
// exit, or gives up when the context expires.
func (s *HangoutServer) Shutdown(ctx context.Context) error {
	s.clientsLock.Lock()
	for c := range s.clients {
		c.stopClient()
		if c.conn != nil {
			c.conn.Close()
		}
	}
	s.clientsLock.Unlock()

	done := make(chan struct{})
	go func() {
		s.clientsDone.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
