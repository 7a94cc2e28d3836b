package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ayusman/framer/internal/geometry"
)

// EventKind names a guidance transition.
type EventKind string

const (
	EventAcquired  EventKind = "acquired"
	EventLost      EventKind = "lost"
	EventAligned   EventKind = "aligned"
	EventUnaligned EventKind = "unaligned"
	EventReset     EventKind = "reset"
)

// Event is one journaled guidance transition.
type Event struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Kind      EventKind       `json:"kind"`
	Shot      *geometry.Point `json:"shot_point,omitempty"`
	Region    *geometry.Rect  `json:"tracked_region,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventRepository stores guidance events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts e and sets its ID.
func (r *EventRepository) Create(e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var shotX, shotY, rx, ry, rw, rh sql.NullFloat64
	if e.Shot != nil {
		shotX = sql.NullFloat64{Float64: e.Shot.X, Valid: true}
		shotY = sql.NullFloat64{Float64: e.Shot.Y, Valid: true}
	}
	if e.Region != nil {
		rx = sql.NullFloat64{Float64: e.Region.X, Valid: true}
		ry = sql.NullFloat64{Float64: e.Region.Y, Valid: true}
		rw = sql.NullFloat64{Float64: e.Region.Width, Valid: true}
		rh = sql.NullFloat64{Float64: e.Region.Height, Valid: true}
	}

	result, err := r.db.Exec(
		`INSERT INTO guidance_events
		 (session_id, kind, shot_x, shot_y, region_x, region_y, region_w, region_h, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, string(e.Kind), shotX, shotY, rx, ry, rw, rh, e.Reason, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	e.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns the events of a session in order. A non-positive
// limit returns all of them.
func (r *EventRepository) ListBySession(sessionID string, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, session_id, kind, shot_x, shot_y, region_x, region_y, region_w, region_h, reason, created_at
		 FROM guidance_events WHERE session_id = ? ORDER BY id LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var kind string
		var shotX, shotY, rx, ry, rw, rh sql.NullFloat64

		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &shotX, &shotY, &rx, &ry, &rw, &rh, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}

		e.Kind = EventKind(kind)
		if shotX.Valid && shotY.Valid {
			e.Shot = &geometry.Point{X: shotX.Float64, Y: shotY.Float64}
		}
		if rx.Valid && ry.Valid && rw.Valid && rh.Valid {
			e.Region = &geometry.Rect{X: rx.Float64, Y: ry.Float64, Width: rw.Float64, Height: rh.Float64}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByKind returns how many events of each kind a session has.
func (r *EventRepository) CountByKind(sessionID string) (map[EventKind]int, error) {
	rows, err := r.db.Query(
		`SELECT kind, COUNT(*) FROM guidance_events WHERE session_id = ? GROUP BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[EventKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[EventKind(kind)] = n
	}
	return counts, rows.Err()
}
