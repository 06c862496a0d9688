package notifications

import (
	"context"
	"errors"
	"sync"

	"paddock/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const maxFeedConns = 5000

// ErrTooManyConnections is returned by Register when the hub is full.
var ErrTooManyConnections = errors.New("feed connection limit reached")

// FeedHub broadcasts feed events to every connected socket.
type FeedHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

func NewFeedHub() *FeedHub {
	return &FeedHub{clients: make(map[*Client]struct{})}
}

// Register adds a socket to the hub.
func (h *FeedHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || len(h.clients) >= maxFeedConns {
		return nil, ErrTooManyConnections
	}
	client := newClient(h, conn, userID)
	h.clients[client] = struct{}{}
	observability.FeedSocketConnections.Inc()
	return client, nil
}

// UnregisterClient removes the client and closes its send channel. Safe to
// call more than once.
func (h *FeedHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	observability.FeedSocketConnections.Dec()
}

// Broadcast queues message on every client.
func (h *FeedHub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.TrySend(message)
	}
}

// Count returns the number of connected sockets.
func (h *FeedHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartWiring relays every Redis feed event to the connected sockets.
func (h *FeedHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartFeedSubscriber(ctx, func(payload string) {
		h.Broadcast([]byte(payload))
	})
}

// Shutdown disconnects every client and refuses new ones.
func (h *FeedHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for client := range h.clients {
		delete(h.clients, client)
		close(client.Send)
		observability.FeedSocketConnections.Dec()
	}
	return nil
}
