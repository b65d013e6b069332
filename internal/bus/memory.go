package bus

import (
	"context"
	"errors"
	"sync"
)

// subscriber buffer size. A stalled consumer drops messages rather than
// blocking publishers; waiters drain continuously so live waits never stall.
const memorySubBuffer = 32

var errBusClosed = errors.New("bus: closed")

// MemoryBus is an in-process Bus. It backs tests and single-process
// deployments; multi-process deployments use the Redis bus.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySub
	closed bool
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]*memorySub)}
}

// Publish fans the payload out to every subscriber currently attached to
// the channel. Slow subscribers drop.
func (b *MemoryBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errBusClosed
	}
	for _, sub := range b.subs[channel] {
		msg := make([]byte, len(payload))
		copy(msg, payload)
		select {
		case sub.ch <- msg:
		default: // drop if slow
		}
	}
	return nil
}

// Subscribe attaches a new subscriber to the channel.
func (b *MemoryBus) Subscribe(_ context.Context, channel string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errBusClosed
	}
	sub := &memorySub{
		bus:     b,
		channel: channel,
		ch:      make(chan []byte, memorySubBuffer),
	}
	b.subs[channel] = append(b.subs[channel], sub)
	return sub, nil
}

// Close shuts the bus down and closes every subscription.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, sub := range subs {
			sub.closeOnce.Do(func() { close(sub.ch) })
		}
	}
	b.subs = make(map[string][]*memorySub)
	return nil
}

// SubscriberCount reports how many subscribers a channel has. Used by
// tests to verify that waits release their subscriptions.
func (b *MemoryBus) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}

type memorySub struct {
	bus       *MemoryBus
	channel   string
	ch        chan []byte
	closeOnce sync.Once
}

func (s *memorySub) Messages() <-chan []byte { return s.ch }

func (s *memorySub) Close() error {
	s.bus.mu.Lock()
	subs := s.bus.subs[s.channel]
	for i, sub := range subs {
		if sub == s {
			s.bus.subs[s.channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(s.bus.subs[s.channel]) == 0 {
		delete(s.bus.subs, s.channel)
	}
	s.bus.mu.Unlock()

	s.closeOnce.Do(func() { close(s.ch) })
	return nil
}
