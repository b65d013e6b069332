// Package bus defines the publish/subscribe transport the confirmation
// workflow runs over. Delivery is fire-and-forget: a message reaches the
// subscribers that were attached before it was published, nothing more.
package bus

import "context"

// Bus is the pub/sub transport. Implementations must be safe for
// concurrent use.
type Bus interface {
	// Publish sends a message on a channel. It does not wait for delivery.
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe attaches to a channel. The subscription must be attached
	// before Publish for the message to be observed.
	Subscribe(ctx context.Context, channel string) (Subscription, error)

	// Close releases transport resources.
	Close() error
}

// Subscription is a cancelable stream of messages from one channel.
type Subscription interface {
	// Messages returns the receive channel. It is closed when the
	// subscription is closed or the bus shuts down.
	Messages() <-chan []byte

	// Close detaches from the channel and releases resources. Safe to
	// call more than once.
	Close() error
}
