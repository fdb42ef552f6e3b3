package catalog

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is an immutable view of the catalog. Available is false until the
// first complete fetch and after any failed one; Items is empty then.
// Callers must not modify Items.
type Snapshot struct {
	Items     []Item    `json:"items"`
	Available bool      `json:"available"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Count returns the number of items and whether the catalog is available.
func (s Snapshot) Count() (int, bool) {
	if !s.Available {
		return 0, false
	}
	return len(s.Items), true
}

// Find returns the item with subscription id.
func (s Snapshot) Find(id string) (Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// FindChannel returns the item subscribed to channelID.
func (s Snapshot) FindChannel(channelID string) (Item, bool) {
	for _, it := range s.Items {
		if it.ChannelID() == channelID {
			return it, true
		}
	}
	return Item{}, false
}

// JSON renders the items as an indented JSON array, the same format the
// export action writes.
func (s Snapshot) JSON() ([]byte, error) {
	items := s.Items
	if items == nil {
		items = []Item{}
	}
	return json.MarshalIndent(items, "", "  ")
}

// Cache is a broadcast cell holding the latest catalog snapshot. There is
// one writer (the fetcher) and any number of readers; every write replaces
// the whole snapshot in a single atomic swap, so a reader never sees a
// partially built catalog.
type Cache struct {
	cur atomic.Pointer[Snapshot]

	mu   sync.Mutex
	subs map[chan Snapshot]struct{}
}

// NewCache returns a cache in the Unavailable state.
func NewCache() *Cache {
	c := &Cache{subs: make(map[chan Snapshot]struct{})}
	c.cur.Store(&Snapshot{})
	return c
}

// Load returns the current snapshot.
func (c *Cache) Load() Snapshot {
	return *c.cur.Load()
}

// Count returns the number of cached items and whether the catalog is available.
func (c *Cache) Count() (int, bool) {
	return c.Load().Count()
}

// Publish replaces the catalog with items and marks it available.
func (c *Cache) Publish(items []Item) {
	c.Replace(Snapshot{Items: items, Available: true, UpdatedAt: time.Now()})
}

// Replace installs s as the current snapshot. Its items are copied.
func (c *Cache) Replace(s Snapshot) {
	if s.Available {
		cp := make([]Item, len(s.Items))
		copy(cp, s.Items)
		s.Items = cp
	} else {
		s.Items = nil
	}
	c.store(&s)
}

// MarkUnavailable replaces the catalog with the Unavailable state.
func (c *Cache) MarkUnavailable() {
	c.store(&Snapshot{UpdatedAt: time.Now()})
}

// store swaps the pointer and notifies under one lock so subscribers see
// writes in the order Load does.
func (c *Cache) store(s *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur.Store(s)
	for ch := range c.subs {
		// Keep only the newest snapshot for a lagging reader.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- *s:
		default:
		}
	}
}

// Subscribe returns a channel that receives the snapshot after every write.
// A reader that falls behind only sees the latest value. cancel closes the
// channel.
func (c *Cache) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
			close(ch)
		})
	}
}
