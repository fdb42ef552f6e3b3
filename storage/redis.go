package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ytlists/internal/logging"
)

// DefaultRedisChannel is the pub/sub channel used when none is configured.
const DefaultRedisChannel = "ytlists:storage"

// RedisNotifier carries change events between processes over Redis pub/sub.
// Every event received on the channel, including ones this process
// published, is dispatched to the local subscribers; Records drops the ones
// carrying its own origin.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	local   *LocalNotifier
	log     zerolog.Logger

	mu     sync.Mutex
	sub    *redis.PubSub
	done   chan struct{}
	closed bool
}

// NewRedisNotifier creates a notifier on channel. Call Start before use.
func NewRedisNotifier(rdb *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisNotifier{
		rdb:     rdb,
		channel: channel,
		local:   NewLocalNotifier(),
		log:     logging.For("storage.redis"),
	}
}

// Start subscribes to the channel and begins dispatching. It returns once
// Redis has confirmed the subscription, so events published afterwards are
// not missed.
func (n *RedisNotifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrClosed
	}
	if n.sub != nil {
		return nil
	}

	sub := n.rdb.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return &StorageError{Op: "subscribe", Entity: "event", ID: n.channel, Err: err}
	}
	n.sub = sub
	n.done = make(chan struct{})

	go n.run(sub.Channel(), n.done)
	return nil
}

func (n *RedisNotifier) run(msgs <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	for msg := range msgs {
		var ev ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			n.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed change event")
			continue
		}
		n.local.Publish(context.Background(), ev)
	}
}

// Publish sends ev to every process subscribed to the channel.
func (n *RedisNotifier) Publish(ctx context.Context, ev ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return &StorageError{Op: "publish", Entity: "event", ID: ev.Key, Err: err}
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return &StorageError{Op: "publish", Entity: "event", ID: ev.Key, Err: err}
	}
	return nil
}

// Subscribe registers h for events arriving on the channel.
func (n *RedisNotifier) Subscribe(h Handler) func() {
	return n.local.Subscribe(h)
}

// Close stops dispatching and releases the subscription.
func (n *RedisNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	sub, done := n.sub, n.done
	n.mu.Unlock()

	if sub == nil {
		return nil
	}
	err := sub.Close()
	<-done
	return err
}
