package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod is how often pings are sent; must be less than pongWait.
	pingPeriod = 54 * time.Second

	// sendBufferSize is the per-connection outbound queue. When it fills,
	// further events for this connection are dropped (best-effort delivery).
	sendBufferSize = 256
)

// Client is one live WebSocket connection. It satisfies chat.Conn: the room
// manager queues events onto the send channel and the write pump drains it.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger zerolog.Logger
}

func newClient(id string, conn *websocket.Conn, maxMessageSize int64, logger zerolog.Logger) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// ID returns the transport-assigned connection id.
func (c *Client) ID() string {
	return c.id
}

// Send queues an event for delivery. It never blocks: if the connection's
// buffer is full or the connection is closing, the event is dropped and Send
// reports false.
func (c *Client) Send(event string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("failed to marshal event payload")
		return false
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return false
	}

	select {
	case <-c.done:
		return false
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// readPump reads frames from the socket and hands each decoded envelope to
// handle. It returns when the connection closes or errors; handler
// invocations for a single connection are serialized here.
func (c *Client) readPump(handle func(Envelope)) {
	defer close(c.done)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Str("conn_id", c.id).Msg("websocket read error")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Debug().Err(err).Str("conn_id", c.id).Msg("discarding malformed frame")
			c.Send(errorEvent, errorPayload("Malformed message."))
			continue
		}

		handle(env)
	}
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug().Err(err).Str("conn_id", c.id).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
