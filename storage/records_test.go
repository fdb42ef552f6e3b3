package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (l *eventLog) handle(ev ChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) snapshot() []ChangeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ChangeEvent(nil), l.events...)
}

func TestRecords_OtherOriginOnly(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	bus := NewLocalNotifier()

	tabA := NewRecords(backend, bus)
	tabB := NewRecords(backend, bus)
	require.NotEqual(t, tabA.Origin(), tabB.Origin())

	var seenA, seenB eventLog
	defer tabA.Subscribe(KeyLists, seenA.handle)()
	defer tabB.Subscribe(KeyLists, seenB.handle)()

	require.NoError(t, tabA.Set(ctx, KeyLists, `{"x":[]}`))
	require.NoError(t, tabA.Set(ctx, KeyAccessToken, "tok"))
	require.NoError(t, tabA.Remove(ctx, KeyLists))

	assert.Empty(t, seenA.snapshot(), "writer must not hear its own writes")

	got := seenB.snapshot()
	require.Len(t, got, 2, "only the lists key is subscribed")
	assert.True(t, got[0].Present)
	assert.Equal(t, `{"x":[]}`, got[0].Value)
	assert.Equal(t, tabA.Origin(), got[0].Origin)
	assert.False(t, got[1].Present)
	assert.False(t, got[1].At.IsZero())
}

func TestRecords_CancelSubscription(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	bus := NewLocalNotifier()
	a, b := NewRecords(backend, bus), NewRecords(backend, bus)

	var seen eventLog
	cancel := b.Subscribe(KeyLists, seen.handle)
	require.NoError(t, a.Set(ctx, KeyLists, "1"))
	cancel()
	cancel()
	require.NoError(t, a.Set(ctx, KeyLists, "2"))

	assert.Len(t, seen.snapshot(), 1)
}

func TestRecords_FailedWriteDoesNotPublish(t *testing.T) {
	bus := NewLocalNotifier()
	backend := NewMemoryBackend()
	a, b := NewRecords(backend, bus), NewRecords(backend, bus)

	var seen eventLog
	defer b.Subscribe("", seen.handle)()

	require.Error(t, a.Set(context.Background(), "", "v"))
	assert.Empty(t, seen.snapshot())
}

func TestLocalNotifier_Order(t *testing.T) {
	n := NewLocalNotifier()
	var order []int
	n.Subscribe(func(ChangeEvent) { order = append(order, 1) })
	cancel := n.Subscribe(func(ChangeEvent) { order = append(order, 2) })
	n.Subscribe(func(ChangeEvent) { order = append(order, 3) })

	require.NoError(t, n.Publish(context.Background(), ChangeEvent{Key: "k"}))
	cancel()
	require.NoError(t, n.Publish(context.Background(), ChangeEvent{Key: "k"}))

	assert.Equal(t, []int{1, 2, 3, 1, 3}, order)
}
