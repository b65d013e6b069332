package domain

// Credentials are the per-session secrets the front door writes and the
// transfer tools read. A session that has expired simply reads as absent;
// stale credentials are never resurrectable.
type Credentials struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Valid reports whether both fields are present.
func (c Credentials) Valid() bool {
	return c.Token != "" && c.UserID != ""
}
