package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024

	sendBufferSize = 64
)

// FeedClient is one WebSocket connection watching book events.
type FeedClient struct {
	hub        *FeedHub
	conn       *websocket.Conn
	send       chan []byte
	watching   map[string]bool
	keysMu     sync.RWMutex
	userID     string
	remoteAddr string
}

// NewFeedClient creates a new feed client
func NewFeedClient(hub *FeedHub, conn *websocket.Conn, userID, remoteAddr string) *FeedClient {
	return &FeedClient{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		watching:   make(map[string]bool),
		userID:     userID,
		remoteAddr: remoteAddr,
	}
}

func (c *FeedClient) keys() []string {
	c.keysMu.RLock()
	defer c.keysMu.RUnlock()
	keys := make([]string, 0, len(c.watching))
	for k := range c.watching {
		keys = append(keys, k)
	}
	return keys
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *FeedClient) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn().Err(err).Str("remote", c.remoteAddr).Msg("websocket error")
			}
			break
		}

		var msg FeedMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.reply(FeedMessage{Type: "error", Error: "invalid message"})
			continue
		}

		switch msg.Type {
		case "subscribe":
			if err := c.hub.Subscribe(c, msg.Book); err != nil {
				c.reply(FeedMessage{Type: "error", Book: msg.Book, Error: err.Error()})
				continue
			}
			c.reply(FeedMessage{Type: "subscribed", Book: msg.Book})

		case "unsubscribe":
			c.hub.Unsubscribe(c, msg.Book)
			c.reply(FeedMessage{Type: "unsubscribed", Book: msg.Book})

		case "ping":
			c.reply(FeedMessage{Type: "pong"})

		default:
			c.reply(FeedMessage{Type: "error", Error: "unknown message type " + msg.Type})
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *FeedClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *FeedClient) reply(msg FeedMessage) {
	msgBytes, _ := json.Marshal(msg)
	c.hub.deliver(c, msgBytes)
}
