package bridge

import (
	"slices"
	"sync"

	"github.com/verte-zerg/tabprompt/internal/model"
)

// Hub fans gestures out to subscribers. Delivery uses the subscriber list as
// it was when Publish started, so a handler may subscribe or release during
// delivery.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   []hubSub
}

type hubSub struct {
	id int
	fn func(model.Gesture)
}

// Subscribe registers fn.
func (h *Hub) Subscribe(fn func(model.Gesture)) model.Disposer {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, hubSub{id: id, fn: fn})
	h.mu.Unlock()
	return model.NewDisposer(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.subs = slices.DeleteFunc(h.subs, func(s hubSub) bool { return s.id == id })
	})
}

// Publish delivers g to every current subscriber in subscription order.
func (h *Hub) Publish(g model.Gesture) {
	h.mu.Lock()
	subs := slices.Clone(h.subs)
	h.mu.Unlock()
	for _, s := range subs {
		s.fn(g)
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
