package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisNotifier(t *testing.T, mr *miniredis.Miniredis) *RedisNotifier {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	n := NewRedisNotifier(rdb, "")
	require.NoError(t, n.Start(context.Background()))
	t.Cleanup(func() { n.Close() })
	return n
}

func TestRedisNotifier_CrossProcess(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	// Two processes sharing one backend and one Redis channel.
	backend := NewMemoryBackend()
	procA := NewRecords(backend, newRedisNotifier(t, mr))
	procB := NewRecords(backend, newRedisNotifier(t, mr))

	var seenA, seenB eventLog
	defer procA.Subscribe(KeyLists, seenA.handle)()
	defer procB.Subscribe(KeyLists, seenB.handle)()

	require.NoError(t, procA.Set(ctx, KeyLists, `{"news":[]}`))

	assert.Eventually(t, func() bool { return len(seenB.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	ev := seenB.snapshot()[0]
	assert.Equal(t, KeyLists, ev.Key)
	assert.Equal(t, `{"news":[]}`, ev.Value)
	assert.Equal(t, procA.Origin(), ev.Origin)

	// The echo of A's own write is delivered to A's bus but filtered by origin.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, seenA.snapshot())
}

func TestRedisNotifier_MalformedPayloadIgnored(t *testing.T) {
	mr := miniredis.RunT(t)
	n := newRedisNotifier(t, mr)

	var seen eventLog
	n.Subscribe(seen.handle)

	mr.Publish(DefaultRedisChannel, "not json")
	require.NoError(t, n.Publish(context.Background(), ChangeEvent{Key: KeyLists, Present: true, Origin: "x"}))

	assert.Eventually(t, func() bool { return len(seen.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, KeyLists, seen.snapshot()[0].Key)
}

func TestRedisNotifier_StartAfterClose(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	n := NewRedisNotifier(rdb, "custom")
	require.NoError(t, n.Close())
	assert.ErrorIs(t, n.Start(context.Background()), ErrClosed)
}
