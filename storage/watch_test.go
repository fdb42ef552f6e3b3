package storage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytlists/internal/logging"
)

func TestWatch_PublishesExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	watched := NewFileBackend(path)
	other := NewFileBackend(path)

	bus := NewLocalNotifier()
	var seen eventLog
	bus.Subscribe(seen.handle)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, watched, bus) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, other.Set(context.Background(), KeyLists, `{"a":[]}`))

	assert.Eventually(t, func() bool {
		for _, ev := range seen.snapshot() {
			if ev.Key == KeyLists && ev.Present && ev.Value == `{"a":[]}` {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestDiffRecords(t *testing.T) {
	prev := map[string]string{"a": "1", "b": "2", "c": "3"}
	next := map[string]string{"a": "1", "b": "22", "d": "4"}

	byKey := map[string]ChangeEvent{}
	for _, ev := range diffRecords(prev, next) {
		byKey[ev.Key] = ev
		assert.Equal(t, WatchOrigin, ev.Origin)
	}
	require.Len(t, byKey, 3)
	assert.Equal(t, "22", byKey["b"].Value)
	assert.True(t, byKey["d"].Present)
	assert.False(t, byKey["c"].Present)
}

// refusingNotifier fails every publish.
type refusingNotifier struct{ calls atomic.Int32 }

func (n *refusingNotifier) Publish(ctx context.Context, ev ChangeEvent) error {
	n.calls.Add(1)
	return errors.New("broker down")
}

func (n *refusingNotifier) Subscribe(h Handler) func() { return func() {} }

func TestWatch_LogsFailedPublish(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logging.Setup("warn", &buf, false))
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	path := filepath.Join(t.TempDir(), "store.json")
	notifier := &refusingNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, NewFileBackend(path), notifier) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, NewFileBackend(path).Set(context.Background(), KeyLists, `{}`))
	assert.Eventually(t, func() bool { return notifier.calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err, "a failed publish does not stop the watcher")
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}

	out := buf.String()
	assert.Contains(t, out, "change notification failed")
	assert.Contains(t, out, "broker down")
	assert.Contains(t, out, `"key":"lists"`)
}
