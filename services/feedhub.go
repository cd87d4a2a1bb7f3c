package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// AllBooks is the feed key that follows every book.
const AllBooks = "*"

// FeedHub fans catalog events out from NATS to WebSocket clients. A NATS
// subscription exists per watched key only while at least one client views it.
type FeedHub struct {
	natsConn *nats.Conn
	log      zerolog.Logger

	clients   map[*FeedClient]bool
	clientsMu sync.RWMutex

	// key ("*" or a book id) -> subscription
	subscriptions   map[string]*bookSubscription
	subscriptionsMu sync.RWMutex

	unregister chan *FeedClient
	done       chan struct{}
}

type bookSubscription struct {
	key       string
	natsSub   *nats.Subscription
	viewers   map[*FeedClient]bool
	viewersMu sync.RWMutex
}

// FeedMessage is a message sent to/from clients
type FeedMessage struct {
	Type  string          `json:"type"` // subscribe, unsubscribe, ping, pong, event, error
	Book  string          `json:"book,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// NewFeedHub creates a new feed hub
func NewFeedHub(natsConn *nats.Conn, log zerolog.Logger) *FeedHub {
	return &FeedHub{
		natsConn:      natsConn,
		log:           log.With().Str("component", "feedhub").Logger(),
		clients:       make(map[*FeedClient]bool),
		subscriptions: make(map[string]*bookSubscription),
		unregister:    make(chan *FeedClient),
		done:          make(chan struct{}),
	}
}

// Register adds a client to the hub. It fails once the hub has stopped.
func (h *FeedHub) Register(client *FeedClient) error {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	select {
	case <-h.done:
		return fmt.Errorf("feed hub stopped")
	default:
	}
	h.clients[client] = true
	h.log.Debug().Str("remote", client.remoteAddr).Str("user", client.userID).Msg("client connected")
	return nil
}

func (h *FeedHub) leave(client *FeedClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// deliver queues msg for client unless the client is gone or its buffer is full.
// Holding clientsMu keeps send from being closed underneath us.
func (h *FeedHub) deliver(client *FeedClient, msg []byte) bool {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- msg:
		return true
	default:
		return false
	}
}

// Run is the hub's main loop. It returns when ctx is done, after closing
// every client and NATS subscription.
func (h *FeedHub) Run(ctx context.Context) {
	h.log.Info().Msg("feed hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.unregister:
			for _, key := range client.keys() {
				h.unsubscribeClient(client, key)
			}

			h.clientsMu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMu.Unlock()

			h.log.Debug().Str("remote", client.remoteAddr).Msg("client disconnected")
		}
	}
}

func (h *FeedHub) shutdown() {
	h.clientsMu.Lock()
	close(h.done)
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
	h.clientsMu.Unlock()

	h.subscriptionsMu.Lock()
	for key, sub := range h.subscriptions {
		if sub.natsSub != nil {
			sub.natsSub.Unsubscribe()
		}
		delete(h.subscriptions, key)
	}
	h.subscriptionsMu.Unlock()
	h.log.Info().Msg("feed hub stopped")
}

// Subscribe starts forwarding events for key to client.
func (h *FeedHub) Subscribe(client *FeedClient, key string) error {
	if err := validateBookKey(key); err != nil {
		return err
	}
	select {
	case <-h.done:
		return fmt.Errorf("feed hub stopped")
	default:
	}

	h.subscriptionsMu.Lock()
	defer h.subscriptionsMu.Unlock()

	sub, exists := h.subscriptions[key]
	if !exists {
		sub = &bookSubscription{
			key:     key,
			viewers: make(map[*FeedClient]bool),
		}

		var err error
		sub.natsSub, err = h.natsConn.Subscribe(BookSubject(key), func(msg *nats.Msg) {
			h.broadcastEvent(key, msg.Data)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to book events: %w", err)
		}

		h.subscriptions[key] = sub
		h.log.Debug().Str("key", key).Msg("created subscription")
	}

	sub.viewersMu.Lock()
	sub.viewers[client] = true
	sub.viewersMu.Unlock()

	client.keysMu.Lock()
	client.watching[key] = true
	client.keysMu.Unlock()

	return nil
}

// Unsubscribe removes a client from a feed key
func (h *FeedHub) Unsubscribe(client *FeedClient, key string) {
	h.unsubscribeClient(client, key)
}

func (h *FeedHub) unsubscribeClient(client *FeedClient, key string) {
	h.subscriptionsMu.Lock()
	defer h.subscriptionsMu.Unlock()

	client.keysMu.Lock()
	delete(client.watching, key)
	client.keysMu.Unlock()

	sub, exists := h.subscriptions[key]
	if !exists {
		return
	}

	sub.viewersMu.Lock()
	delete(sub.viewers, client)
	viewerCount := len(sub.viewers)
	sub.viewersMu.Unlock()

	if viewerCount == 0 {
		if sub.natsSub != nil {
			sub.natsSub.Unsubscribe()
		}
		delete(h.subscriptions, key)
		h.log.Debug().Str("key", key).Msg("removed subscription (no viewers)")
	}
}

// broadcastEvent sends an encoded BookEvent to all viewers of key
func (h *FeedHub) broadcastEvent(key string, data []byte) {
	h.subscriptionsMu.RLock()
	sub, exists := h.subscriptions[key]
	h.subscriptionsMu.RUnlock()

	if !exists {
		return
	}

	msgBytes, err := json.Marshal(FeedMessage{
		Type: "event",
		Book: key,
		Data: data,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("encode feed message")
		return
	}

	sub.viewersMu.RLock()
	for client := range sub.viewers {
		// A full buffer drops the event for that client only.
		h.deliver(client, msgBytes)
	}
	sub.viewersMu.RUnlock()
}

// validateBookKey accepts "*" or a positive book id.
func validateBookKey(key string) error {
	if key == AllBooks {
		return nil
	}
	if id, err := strconv.ParseUint(key, 10, 64); err != nil || id == 0 {
		return fmt.Errorf("invalid book key %q (expected a book id or %q)", key, AllBooks)
	}
	return nil
}

// HubStats reports connected clients and watched keys.
type HubStats struct {
	Clients       int      `json:"clients"`
	Subscriptions int      `json:"subscriptions"`
	Keys          []string `json:"keys"`
}

func (h *FeedHub) Stats() HubStats {
	h.clientsMu.RLock()
	clientCount := len(h.clients)
	h.clientsMu.RUnlock()

	h.subscriptionsMu.RLock()
	keys := make([]string, 0, len(h.subscriptions))
	for key := range h.subscriptions {
		keys = append(keys, key)
	}
	h.subscriptionsMu.RUnlock()
	sort.Strings(keys)

	return HubStats{
		Clients:       clientCount,
		Subscriptions: len(keys),
		Keys:          keys,
	}
}
