// Package store holds the shared session-credential store. Credentials are
// written by the HTTP front door when a chat turn starts and read by the
// transfer tools; they expire on a fixed TTL so stale credentials cannot be
// resurrected.
package store

import (
	"context"
	"time"

	"github.com/muzaffarq/paygent/internal/domain"
)

// DefaultTTL is how long a session's credentials stay readable.
const DefaultTTL = 300 * time.Second

// CredentialStore maps a session id to credentials with expiry. Get reports
// absent both for keys that never existed and for keys that expired; the
// two cases are indistinguishable on purpose.
type CredentialStore interface {
	Put(ctx context.Context, sessionID string, creds domain.Credentials, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (domain.Credentials, bool, error)
	Close() error
}

// sessionKey namespaces credential keys in shared backends.
func sessionKey(sessionID string) string { return "session:" + sessionID }
