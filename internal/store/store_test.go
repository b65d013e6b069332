package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muzaffarq/paygent/internal/domain"
	"github.com/muzaffarq/paygent/internal/logging"
)

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	creds := domain.Credentials{Token: "tok-1", UserID: "u-1"}
	require.NoError(t, s.Put(ctx, "s1", creds, DefaultTTL))

	got, ok, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, creds, got)
}

func TestMemoryStoreAbsent(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, ok, err := s.Get(context.Background(), "never-created")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "s1", domain.Credentials{Token: "t", UserID: "u"}, 300*time.Second))

	now = now.Add(299 * time.Second)
	_, ok, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok, "still valid one second before expiry")

	now = now.Add(2 * time.Second)
	_, ok, err = s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok, "expired credentials read as absent")
}

func TestMemoryStoreOverwrite(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "s1", domain.Credentials{Token: "old", UserID: "u"}, DefaultTTL))
	require.NoError(t, s.Put(ctx, "s1", domain.Credentials{Token: "new", UserID: "u"}, DefaultTTL))

	got, ok, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.Token)
}

func TestSQLiteStorePutGet(t *testing.T) {
	log := logging.New(nil, "silent", "json")
	s, err := OpenSQLite(":memory:", log)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	creds := domain.Credentials{Token: "tok-2", UserID: "u-2"}
	require.NoError(t, s.Put(ctx, "s2", creds, DefaultTTL))

	got, ok, err := s.Get(ctx, "s2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, creds, got)

	_, ok, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreExpiry(t *testing.T) {
	log := logging.New(nil, "silent", "json")
	s, err := OpenSQLite(":memory:", log)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "s3", domain.Credentials{Token: "t", UserID: "u"}, 300*time.Second))

	now = now.Add(301 * time.Second)
	_, ok, err := s.Get(ctx, "s3")
	require.NoError(t, err)
	assert.False(t, ok)

	// The expired row is gone even after the clock rolls back.
	now = now.Add(-301 * time.Second)
	_, ok, err = s.Get(ctx, "s3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	log := logging.New(nil, "silent", "json")
	s, err := OpenSQLite(":memory:", log)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "s4", domain.Credentials{Token: "old", UserID: "u"}, DefaultTTL))
	require.NoError(t, s.Put(ctx, "s4", domain.Credentials{Token: "new", UserID: "u"}, DefaultTTL))

	got, ok, err := s.Get(ctx, "s4")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.Token)
}
