package storage

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"ytlists/internal/logging"
)

// WatchOrigin is the origin stamped on events produced by Watch.
const WatchOrigin = "file-watch"

// Watch observes the backend's document for writes made by other processes
// and publishes one ChangeEvent per key whose value changed. It blocks until
// ctx is done or the watcher fails.
//
// The parent directory is watched rather than the file because AtomicWriter
// replaces the file by rename on every commit.
func Watch(ctx context.Context, b *FileBackend, notifier Notifier) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return &StorageError{Op: "watch", Entity: "file", ID: b.path, Err: err}
	}
	defer w.Close()

	dir := filepath.Dir(b.path)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "watch", Entity: "file", ID: dir, Err: err}
	}
	if err := w.Add(dir); err != nil {
		return &StorageError{Op: "watch", Entity: "file", ID: dir, Err: err}
	}

	prev, err := b.Snapshot()
	if err != nil {
		return err
	}

	log := logging.For("storage.watch")
	target := filepath.Clean(b.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return &StorageError{Op: "watch", Entity: "file", ID: b.path, Err: err}
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			next, err := b.Snapshot()
			if err != nil {
				// A half-visible document is retried on the next event.
				continue
			}
			for _, change := range diffRecords(prev, next) {
				if err := notifier.Publish(ctx, change); err != nil {
					log.Warn().Err(err).Str("key", change.Key).Str("path", b.path).Msg("change notification failed")
				}
			}
			prev = next
		}
	}
}

// diffRecords returns an event for every key added, changed or removed
// between prev and next.
func diffRecords(prev, next map[string]string) []ChangeEvent {
	now := time.Now()
	var out []ChangeEvent
	for k, v := range next {
		if old, ok := prev[k]; !ok || old != v {
			out = append(out, ChangeEvent{Key: k, Value: v, Present: true, Origin: WatchOrigin, At: now})
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			out = append(out, ChangeEvent{Key: k, Present: false, Origin: WatchOrigin, At: now})
		}
	}
	return out
}
