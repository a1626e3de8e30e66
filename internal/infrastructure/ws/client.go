package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/korlin/auditorium/internal/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size. SDP payloads fit comfortably.
	maxMessageSize = 64 * 1024
)

// Client binds one websocket connection to its Peer record. The read
// pump is the only reader, the write pump the only sustained writer.
type Client struct {
	conn   *connWrapper
	peer   *domain.Peer
	room   *domain.Room
	logger *zap.SugaredLogger
}

func NewClient(conn *websocket.Conn, peer *domain.Peer, room *domain.Room, logger *zap.SugaredLogger) *Client {
	return &Client{
		conn:   newConnWrapper(conn),
		peer:   peer,
		room:   room,
		logger: logger,
	}
}

// ReadPump reads frames off the socket and hands the raw payload to
// dispatch. It exits on any read error; onClose runs exactly once on the
// way out and is where room cleanup happens.
func (c *Client) ReadPump(dispatch func(raw []byte), onClose func()) {
	defer func() {
		onClose()
		_ = c.conn.Close()
	}()

	c.conn.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.conn.SetPongHandler(func(string) error {
		return c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warnw("read error", "peer", c.peer.ID, "room", c.room.ID, "error", err)
			}
			return
		}

		dispatch(raw)
	}
}

// WritePump drains the peer's outbox onto the socket and keeps the
// connection alive with pings. It exits when the outbox is closed or a
// write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.peer.Outbox():
			_ = c.conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Peer was closed; say goodbye properly.
				_ = c.conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warnw("write error", "peer", c.peer.ID, "room", c.room.ID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// CloseWithReason is exposed for the connection handler, which rejects
// some sockets before the pumps ever start.
func (c *Client) CloseWithReason(code int, reason string) error {
	return c.conn.CloseWithReason(code, reason)
}
