package bus

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/muzaffarq/paygent/internal/logging"
)

// RedisBus is a Bus backed by Redis pub/sub, so confirmation replies reach
// a waiter regardless of which process instance handled the HTTP request.
type RedisBus struct {
	rdb *redis.Client
	log *logging.Logger
}

// NewRedisBus wraps an existing Redis client. The client is typically
// shared with the credential store; its lifecycle belongs to the caller.
func NewRedisBus(rdb *redis.Client, log *logging.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, log: log.Sub("bus")}
}

// Publish sends the payload on a Redis channel.
func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe opens a Redis subscription. redis.PubSub confirms the
// subscription before Subscribe returns, so messages published afterward
// are observed.
func (b *RedisBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channel)
	// Wait for the subscription to be confirmed by the server.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &redisSub{ps: ps, out: make(chan []byte, memorySubBuffer)}
	go sub.pump()
	return sub, nil
}

// Close is a no-op: the Redis client is shared and closed by its owner.
func (b *RedisBus) Close() error { return nil }

type redisSub struct {
	ps  *redis.PubSub
	out chan []byte
}

func (s *redisSub) pump() {
	defer close(s.out)
	for msg := range s.ps.Channel() {
		select {
		case s.out <- []byte(msg.Payload):
		default: // drop if slow, same policy as the in-process bus
		}
	}
}

func (s *redisSub) Messages() <-chan []byte { return s.out }

func (s *redisSub) Close() error { return s.ps.Close() }
