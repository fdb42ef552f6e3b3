// Package lists keeps the user's named channel lists, persists them as one
// record and follows changes made by other contexts sharing the storage.
package lists

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"ytlists/internal/logging"
	"ytlists/storage"
)

// Store owns the list collection.
//
// Mutations are serialized within one Store. Each one writes the whole
// collection and updates memory once the write has succeeded; a write from
// another context that lands later replaces this one wholesale.
type Store struct {
	records *storage.Records
	log     zerolog.Logger

	// writeMu orders copy-persist-swap sequences; mu guards lists only,
	// so change notifications never wait on a write in progress.
	writeMu sync.Mutex
	mu      sync.RWMutex
	lists   Collection

	cancel func()
}

// Open loads the persisted collection, or an empty one if none is stored,
// and starts following changes to it.
func Open(ctx context.Context, records *storage.Records) (*Store, error) {
	s := &Store{
		records: records,
		log:     logging.For("lists"),
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	s.cancel = records.Subscribe(storage.KeyLists, s.onChange)
	return s, nil
}

// Close stops following changes.
func (s *Store) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Refresh replaces the in-memory collection with the persisted one.
func (s *Store) Refresh(ctx context.Context) error {
	raw, ok, err := s.records.Get(ctx, storage.KeyLists)
	if err != nil {
		return err
	}
	c, err := decode(raw, ok)
	if err != nil {
		return &storage.StorageError{Op: "read", Entity: "record", ID: storage.KeyLists, Err: fmt.Errorf("%w: %v", storage.ErrStorageCorrupt, err)}
	}
	s.replace(c)
	return nil
}

func (s *Store) onChange(ev storage.ChangeEvent) {
	c, err := decode(ev.Value, ev.Present)
	if err != nil {
		s.log.Warn().Err(err).Str("origin", ev.Origin).Msg("ignoring unreadable lists change")
		return
	}
	s.replace(c)
	s.log.Debug().Str("origin", ev.Origin).Int("lists", len(c)).Msg("lists reconciled from another context")
}

func (s *Store) replace(c Collection) {
	s.mu.Lock()
	s.lists = c
	s.mu.Unlock()
}

func decode(raw string, present bool) (Collection, error) {
	c := Collection{}
	if !present {
		return c, nil
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, err
	}
	if c == nil {
		// A stored "null" means no lists.
		c = Collection{}
	}
	for name, l := range c {
		if l == nil {
			c[name] = NewList()
		}
	}
	return c, nil
}

// CreateList adds an empty list. The name is normalized first; names
// shorter than MinNameLength and names already in use are rejected.
func (s *Store) CreateList(ctx context.Context, name string) error {
	name = NormalizeName(name)
	err := s.mutate(ctx, func(c Collection) error {
		if len([]rune(name)) < MinNameLength {
			return &ListError{Op: "create", Name: name, Err: ErrNameTooShort}
		}
		if _, ok := c[name]; ok {
			return &ListError{Op: "create", Name: name, Err: ErrListExists}
		}
		c[name] = NewList()
		return nil
	})
	if err == nil {
		s.log.Info().Str("list", name).Msg("list created")
	}
	return err
}

// DeleteList removes a list. Deleting a missing list succeeds.
func (s *Store) DeleteList(ctx context.Context, name string) error {
	return s.mutate(ctx, func(c Collection) error {
		delete(c, name)
		return nil
	})
}

// ToggleChannel adds ch to the named list, or removes it if a channel with
// the same id is already there. A missing list is created holding only ch.
// It reports whether ch was added.
func (s *Store) ToggleChannel(ctx context.Context, name string, ch Channel) (bool, error) {
	if ch.ID == "" {
		return false, &ListError{Op: "toggle", Name: name, Err: ErrInvalidChannel}
	}
	var added bool
	err := s.mutate(ctx, func(c Collection) error {
		l, ok := c[name]
		if !ok {
			l = NewList()
			c[name] = l
		}
		added = l.Toggle(ch)
		return nil
	})
	return added, err
}

// mutate applies fn to a copy of the collection, persists the copy and only
// then makes it current. If fn or the write fails, nothing changes.
func (s *Store) mutate(ctx context.Context, fn func(c Collection) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := s.lists.Clone()
	s.mu.RUnlock()

	if err := fn(next); err != nil {
		s.log.Warn().Err(err).Msg("list operation rejected")
		return err
	}

	if err := s.persist(ctx, next); err != nil {
		s.log.Error().Err(err).Msg("persisting lists failed")
		return err
	}
	s.replace(next)
	return nil
}

// persist writes c, removing the record when c is empty.
func (s *Store) persist(ctx context.Context, c Collection) error {
	if len(c) == 0 {
		return s.records.Remove(ctx, storage.KeyLists)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return &storage.StorageError{Op: "write", Entity: "record", ID: storage.KeyLists, Err: err}
	}
	return s.records.Set(ctx, storage.KeyLists, string(data))
}

// ListCount returns the number of lists.
func (s *Store) ListCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists)
}

// ChannelCount returns the number of channels in the named list, or 0 if
// there is no such list.
func (s *Store) ChannelCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.lists[name]; ok {
		return l.Len()
	}
	return 0
}

// Names returns the list names in lexical order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lists.Names()
}

// Lists returns a copy of the whole collection.
func (s *Store) Lists() map[string][]Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lists.Channels()
}

// Channels returns a copy of the named list's channels.
func (s *Store) Channels(name string) ([]Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lists[name]
	if !ok {
		return nil, false
	}
	return l.Channels(), true
}

// Contains reports whether the named list holds a channel with id.
func (s *Store) Contains(name, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lists[name]
	return ok && l.Contains(id)
}
