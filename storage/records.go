package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ytlists/internal/logging"
)

// Records is the persistence surface used by components. It pairs a Backend
// with a Notifier and stamps every write with this context's origin, so a
// subscriber only hears about writes made elsewhere, the way a browser only
// fires storage events in the other tabs.
type Records struct {
	backend  Backend
	notifier Notifier
	origin   string
	log      zerolog.Logger
}

// NewRecords creates a Records context with a fresh origin id.
// A nil notifier gets a private LocalNotifier.
func NewRecords(backend Backend, notifier Notifier) *Records {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	return &Records{
		backend:  backend,
		notifier: notifier,
		origin:   uuid.NewString(),
		log:      logging.For("storage"),
	}
}

// Origin returns the id stamped on this context's writes.
func (r *Records) Origin() string { return r.origin }

// Get returns the value under key. ok is false when the key is absent.
func (r *Records) Get(ctx context.Context, key string) (string, bool, error) {
	return r.backend.Get(ctx, key)
}

// Set writes value under key and announces the change.
func (r *Records) Set(ctx context.Context, key, value string) error {
	if err := r.backend.Set(ctx, key, value); err != nil {
		return err
	}
	r.publish(ctx, ChangeEvent{Key: key, Value: value, Present: true})
	return nil
}

// Remove deletes key and announces the change.
func (r *Records) Remove(ctx context.Context, key string) error {
	if err := r.backend.Remove(ctx, key); err != nil {
		return err
	}
	r.publish(ctx, ChangeEvent{Key: key, Present: false})
	return nil
}

// Subscribe calls h for every change to key made by another origin.
func (r *Records) Subscribe(key string, h Handler) func() {
	return r.notifier.Subscribe(func(ev ChangeEvent) {
		if ev.Key != key || ev.Origin == r.origin {
			return
		}
		h(ev)
	})
}

// publish failures are logged: the write itself already succeeded.
func (r *Records) publish(ctx context.Context, ev ChangeEvent) {
	ev.Origin = r.origin
	ev.At = time.Now()
	if err := r.notifier.Publish(ctx, ev); err != nil {
		r.log.Warn().Err(err).Str("key", ev.Key).Msg("change notification failed")
	}
}
