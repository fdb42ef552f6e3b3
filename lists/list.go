package lists

import (
	"container/list"
	"encoding/json"
	"sort"

	"ytlists/catalog"
)

// Channel is a catalog item copied into a list. Later fetches never update it.
type Channel = catalog.Item

// List is an ordered set of channels keyed by id. Iteration follows insertion
// order; membership checks and toggles are O(1).
type List struct {
	order *list.List
	index map[string]*list.Element
}

// NewList returns a list holding channels, skipping repeated ids.
func NewList(channels ...Channel) *List {
	l := &List{order: list.New(), index: make(map[string]*list.Element)}
	for _, ch := range channels {
		if _, ok := l.index[ch.ID]; !ok {
			l.index[ch.ID] = l.order.PushBack(ch.Clone())
		}
	}
	return l
}

// Len returns the number of channels.
func (l *List) Len() int { return len(l.index) }

// Contains reports whether a channel with id is in the list.
func (l *List) Contains(id string) bool {
	_, ok := l.index[id]
	return ok
}

// Toggle removes ch if a channel with its id is present and appends it
// otherwise. It reports whether ch was added.
func (l *List) Toggle(ch Channel) bool {
	if el, ok := l.index[ch.ID]; ok {
		l.order.Remove(el)
		delete(l.index, ch.ID)
		return false
	}
	l.index[ch.ID] = l.order.PushBack(ch.Clone())
	return true
}

// Channels returns copies of the channels in display order.
func (l *List) Channels() []Channel {
	out := make([]Channel, 0, l.Len())
	for el := l.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(Channel).Clone())
	}
	return out
}

// IDs returns the channel ids in display order.
func (l *List) IDs() []string {
	out := make([]string, 0, l.Len())
	for el := l.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(Channel).ID)
	}
	return out
}

// Clone returns an independent copy of the list.
func (l *List) Clone() *List {
	c := &List{order: list.New(), index: make(map[string]*list.Element, l.Len())}
	for el := l.order.Front(); el != nil; el = el.Next() {
		ch := el.Value.(Channel)
		c.index[ch.ID] = c.order.PushBack(ch)
	}
	return c
}

// MarshalJSON encodes the list as an array of channels.
func (l *List) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Channels())
}

// UnmarshalJSON decodes an array of channels, keeping the first of any
// repeated id.
func (l *List) UnmarshalJSON(data []byte) error {
	var channels []Channel
	if err := json.Unmarshal(data, &channels); err != nil {
		return err
	}
	*l = *NewList(channels...)
	return nil
}

// Collection maps list names to lists.
type Collection map[string]*List

// Names returns the list names in lexical order.
func (c Collection) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy whose lists can be changed without affecting c.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for name, l := range c {
		out[name] = l.Clone()
	}
	return out
}

// Channels returns a plain copy of every list.
func (c Collection) Channels() map[string][]Channel {
	out := make(map[string][]Channel, len(c))
	for name, l := range c {
		out[name] = l.Channels()
	}
	return out
}
