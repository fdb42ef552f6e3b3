package storage

import (
	"context"
	"sync"
)

// LocalNotifier is an in-process event bus. Publish calls every handler
// synchronously on the publishing goroutine, in subscription order.
type LocalNotifier struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	order    []int
	nextID   int
}

// NewLocalNotifier creates an empty bus.
func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{handlers: make(map[int]Handler)}
}

// Publish delivers ev to all current subscribers.
func (n *LocalNotifier) Publish(ctx context.Context, ev ChangeEvent) error {
	n.mu.RLock()
	handlers := make([]Handler, 0, len(n.order))
	for _, id := range n.order {
		handlers = append(handlers, n.handlers[id])
	}
	n.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}

// Subscribe registers h. The returned cancel func is idempotent.
func (n *LocalNotifier) Subscribe(h Handler) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.handlers[id] = h
	n.order = append(n.order, id)
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.handlers, id)
			for i, v := range n.order {
				if v == id {
					n.order = append(n.order[:i], n.order[i+1:]...)
					break
				}
			}
		})
	}
}
