// Package relay fans messages out to every other client of a meeting.
package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/ItsNotGoodName/x-immersive/internal/message"
	"github.com/google/uuid"
)

var ErrClosed = errors.New("relay closed")

// Envelope is a message and the client that posted it.
type Envelope struct {
	ID      string
	From    string
	Message message.Message
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[*subscriber]struct{}),
	}
}

type subscriber struct {
	clientID string
	c        chan Envelope
	done     chan struct{}
}

type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

// Post delivers env to every subscriber except the sender. It blocks until
// each subscriber took the envelope, unsubscribed or ctx is done.
func (h *Hub) Post(ctx context.Context, env Envelope) error {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		if sub.clientID != env.From {
			subs = append(subs, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.done:
		case sub.c <- env:
		}
	}

	return nil
}

// Subscribe returns the envelopes posted by other clients. The channel is
// never closed, stop reading after calling unsubscribe.
func (h *Hub) Subscribe(clientID string) (<-chan Envelope, func()) {
	sub := &subscriber{
		clientID: clientID,
		c:        make(chan Envelope, 16),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.done)
		return sub.c, func() {}
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub.c, func() {
		h.mu.Lock()
		if _, ok := h.subs[sub]; ok {
			delete(h.subs, sub)
			close(sub.done)
		}
		h.mu.Unlock()
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close drops every subscription and rejects later posts.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.done)
	}
}
