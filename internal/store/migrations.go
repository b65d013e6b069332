package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create session credentials",
		SQL: `
			CREATE TABLE session_credentials (
				session_id  TEXT PRIMARY KEY,
				token       TEXT NOT NULL,
				user_id     TEXT NOT NULL,
				expires_at  INTEGER NOT NULL
			);

			CREATE INDEX idx_session_credentials_expiry ON session_credentials (expires_at);
		`,
	},
}
