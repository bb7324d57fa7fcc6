package hangout

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/npezzotti/go-hangout/internal/protocol"
	"github.com/npezzotti/go-hangout/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one authenticated websocket connection: one browser of one user.
// Frames are queued on the send channel and written by a single write pump,
// so the registry's online/offline decision never blocks on socket I/O.
type Client struct {
	conn      *websocket.Conn
	server    *HangoutServer
	log       *log.Logger
	user      types.User
	browserId string
	send      chan *protocol.ServerFrame
	stop      chan struct{}
}

func NewClient(user types.User, browserId string, conn *websocket.Conn, s *HangoutServer, l *log.Logger) *Client {
	return &Client{
		conn:      conn,
		server:    s,
		log:       l,
		user:      user,
		browserId: browserId,
		send:      make(chan *protocol.ServerFrame, 256),
		stop:      make(chan struct{}),
	}
}

// QueueFrame makes Client a registry Sink. A full send channel means the
// socket is dead or hopelessly slow; the frame is dropped here and the caller
// re-queues the record durably instead.
func (c *Client) QueueFrame(frame *protocol.ServerFrame) bool {
	select {
	case c.send <- frame:
	default:
		c.log.Printf("send channel full for %s-%s", c.user.Username, c.browserId)
		return false
	}

	return true
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Println("write exiting")
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(frame)
			if err != nil {
				c.log.Println("failed to serialize frame:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// Read drives the per-connection command loop. Commands are processed in
// frame arrival order; a protocol error is answered with an ERROR frame on
// this connection only and never closes the socket.
func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Println("read exiting")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		if err := c.server.orchestrator.HandleCommand(c.user, c.browserId, raw); err != nil {
			c.log.Printf("command from %s-%s: %v", c.user.Username, c.browserId, err)
			c.QueueFrame(protocol.ErrorFrame(err))
		}
	}
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}

func (c *Client) cleanup() {
	c.server.registry.Unregister(c.user.Username, c.browserId, c)
	c.server.removeClient(c)
	c.stopClient()
}
