package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvTimeout(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestMemoryBusPublishSubscribe(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	sub, err := b.Subscribe(context.Background(), "ch1")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(context.Background(), "ch1", []byte("hello")))
	assert.Equal(t, []byte("hello"), recvTimeout(t, sub.Messages()))
}

func TestMemoryBusChannelIsolation(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	subA, err := b.Subscribe(context.Background(), SelectChannel("a"))
	require.NoError(t, err)
	defer subA.Close()
	subB, err := b.Subscribe(context.Background(), SelectChannel("b"))
	require.NoError(t, err)
	defer subB.Close()

	require.NoError(t, b.Publish(context.Background(), SelectChannel("a"), []byte("for-a")))

	assert.Equal(t, []byte("for-a"), recvTimeout(t, subA.Messages()))
	select {
	case msg := <-subB.Messages():
		t.Fatalf("subscriber B received a message for A: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusPublishBeforeSubscribeIsLost(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	require.NoError(t, b.Publish(context.Background(), "ch", []byte("early")))

	sub, err := b.Subscribe(context.Background(), "ch")
	require.NoError(t, err)
	defer sub.Close()

	select {
	case msg := <-sub.Messages():
		t.Fatalf("received message published before subscribe: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusFanOut(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	sub1, err := b.Subscribe(context.Background(), "ch")
	require.NoError(t, err)
	sub2, err := b.Subscribe(context.Background(), "ch")
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), "ch", []byte("both")))
	assert.Equal(t, []byte("both"), recvTimeout(t, sub1.Messages()))
	assert.Equal(t, []byte("both"), recvTimeout(t, sub2.Messages()))
}

func TestMemoryBusOrdering(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	sub, err := b.Subscribe(context.Background(), "ch")
	require.NoError(t, err)

	for _, m := range []string{"one", "two", "three"} {
		require.NoError(t, b.Publish(context.Background(), "ch", []byte(m)))
	}
	assert.Equal(t, []byte("one"), recvTimeout(t, sub.Messages()))
	assert.Equal(t, []byte("two"), recvTimeout(t, sub.Messages()))
	assert.Equal(t, []byte("three"), recvTimeout(t, sub.Messages()))
}

func TestMemorySubClose(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	sub, err := b.Subscribe(context.Background(), "ch")
	require.NoError(t, err)
	assert.Equal(t, 1, b.SubscriberCount("ch"))

	require.NoError(t, sub.Close())
	assert.Equal(t, 0, b.SubscriberCount("ch"))

	// Double close is safe.
	require.NoError(t, sub.Close())

	// Publishing after unsubscribe reaches nobody.
	require.NoError(t, b.Publish(context.Background(), "ch", []byte("gone")))
	_, open := <-sub.Messages()
	assert.False(t, open)
}

func TestMemoryBusClose(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "ch")
	require.NoError(t, err)

	require.NoError(t, b.Close())
	_, open := <-sub.Messages()
	assert.False(t, open)

	assert.Error(t, b.Publish(context.Background(), "ch", []byte("x")))
	_, err = b.Subscribe(context.Background(), "ch")
	assert.Error(t, err)
	// Close is idempotent.
	require.NoError(t, b.Close())
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "events:stream", BroadcastChannel())
	assert.Equal(t, "select:abc", SelectChannel("abc"))
	assert.Equal(t, "otp:p-1", OTPChannel("p-1"))
}
