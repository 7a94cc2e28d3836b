package store

import "fmt"

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per style activation.
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			style TEXT NOT NULL,
			params TEXT NOT NULL DEFAULT '{}',
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Phase and alignment transitions within a session.
		`CREATE TABLE IF NOT EXISTS guidance_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			kind TEXT NOT NULL CHECK(kind IN ('acquired', 'lost', 'aligned', 'unaligned', 'reset')),
			shot_x REAL,
			shot_y REAL,
			region_x REAL,
			region_y REAL,
			region_w REAL,
			region_h REAL,
			reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_guidance_events_session_id ON guidance_events(session_id)`,
	}

	for i, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
