// Package confirm turns the event bus's fire-and-forget delivery into a
// bounded synchronous wait: publish a request for human input, block until
// a matching reply arrives or the deadline passes.
package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muzaffarq/paygent/internal/bus"
	"github.com/muzaffarq/paygent/internal/domain"
	"github.com/muzaffarq/paygent/internal/logging"
)

// DefaultTimeout bounds every human-input wait.
const DefaultTimeout = 180 * time.Second

// ErrTimeout is returned when no valid reply arrives before the deadline.
// It is terminal for the step; the waiter never retries.
var ErrTimeout = errors.New("confirm: timed out waiting for reply")

// ErrClosed is returned when the reply subscription closes mid-wait,
// usually because the bus shut down. Unlike a timeout, the human never had
// the full window to respond.
var ErrClosed = errors.New("confirm: reply channel closed")

// Waiter publishes confirmation requests and blocks for their replies.
type Waiter struct {
	bus bus.Bus
	log *logging.Logger
}

// NewWaiter creates a waiter on the given bus.
func NewWaiter(b bus.Bus, log *logging.Logger) *Waiter {
	return &Waiter{bus: b, log: log.Sub("confirm")}
}

// NewCorrelationID returns a fresh one-time id tying a published request to
// exactly one expected response. Never reused across steps.
func NewCorrelationID() string {
	return uuid.NewString()
}

// AwaitSelection publishes a choice event on the broadcast channel and
// blocks until the UI replies with a non-empty recipient or card id on the
// per-correlation channel, or the timeout elapses.
func (w *Waiter) AwaitSelection(ctx context.Context, event domain.ChoiceEvent, timeout time.Duration) (string, error) {
	return w.await(ctx, bus.SelectChannel(event.CorrelationID), event, timeout, decodeSelection)
}

// AwaitCode publishes a code-required event on the broadcast channel and
// blocks until the UI replies with a non-empty code on the per-payment
// channel, or the timeout elapses.
func (w *Waiter) AwaitCode(ctx context.Context, event domain.CodeRequiredEvent, timeout time.Duration) (string, error) {
	return w.await(ctx, bus.OTPChannel(event.PaymentID), event, timeout, decodeCode)
}

// await is the shared subscribe-publish-wait sequence. The subscription is
// attached before the broadcast goes out so a fast responder cannot race
// it, and it is released on every exit path.
func (w *Waiter) await(ctx context.Context, replyChannel string, event any, timeout time.Duration, decode func([]byte) string) (string, error) {
	sub, err := w.bus.Subscribe(ctx, replyChannel)
	if err != nil {
		return "", err
	}
	defer sub.Close()

	raw, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	if err := w.bus.Publish(ctx, bus.BroadcastChannel(), raw); err != nil {
		return "", err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case msg, ok := <-sub.Messages():
			if !ok {
				return "", ErrClosed
			}
			if value := decode(msg); value != "" {
				return value, nil
			}
			// Malformed or empty replies are noise; keep waiting.
			w.log.Debug().Str("channel", replyChannel).Msg("ignoring invalid reply")
		case <-timer.C:
			return "", ErrTimeout
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// decodeSelection extracts the chosen recipient or card id.
func decodeSelection(raw []byte) string {
	var reply domain.SelectionReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return ""
	}
	if v := strings.TrimSpace(reply.RecipientID); v != "" {
		return v
	}
	return strings.TrimSpace(reply.CardID)
}

// decodeCode extracts the one-time code. Whitespace-only codes count as
// absent.
func decodeCode(raw []byte) string {
	var reply domain.OTPReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return ""
	}
	return strings.TrimSpace(reply.Code)
}
