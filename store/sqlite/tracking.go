/*
tracking.go - Usage-event persistence

PURPOSE:
  Records who ran what, when. Sessions group a user's activity; events record
  individual actions (query runs, filter changes, exports). This is
  replaceable glue around the core - the engine never touches it - but the
  dashboard around the engine wants the counters.

  Tracking failures must never break an analysis: callers are expected to
  log-and-continue on error.
*/
package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TYPES
// =============================================================================

// Session is one tracked usage session.
type Session struct {
	ID         string
	UserRole   string
	ClientIP   string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// EventType classifies tracked events.
type EventType string

const (
	EventLogin        EventType = "login"
	EventQuery        EventType = "query"
	EventFilterChange EventType = "filter_change"
	EventExport       EventType = "export"
)

// Event is one tracked action within a session.
type Event struct {
	ID         string
	SessionID  string
	Type       EventType
	Payload    map[string]any
	DurationMS *int64
	CreatedAt  time.Time
}

// =============================================================================
// SESSIONS
// =============================================================================

// CreateSession registers a new tracking session and returns its ID.
func (s *Store) CreateSession(ctx context.Context, userRole, clientIP string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_role, client_ip, created_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?)`, id, userRole, clientIP, now, now)
	if err != nil {
		return "", err
	}
	return id, nil
}

// TouchSession updates a session's last-seen timestamp.
func (s *Store) TouchSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at = ? WHERE id = ?`, now, id)
	return err
}

// =============================================================================
// EVENTS
// =============================================================================

// LogEvent records one action. The payload is stored as JSON.
func (s *Store) LogEvent(ctx context.Context, sessionID string, eventType EventType, payload map[string]any, durationMS *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payloadJSON []byte
	if payload != nil {
		var err error
		if payloadJSON, err = json.Marshal(payload); err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, session_id, event_type, payload, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), sessionID, string(eventType), string(payloadJSON), durationMS, now)
	return err
}

// EventCounts returns the number of events per type.
func (s *Store) EventCounts(ctx context.Context) (map[EventType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT event_type, COUNT(*) FROM events GROUP BY event_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[EventType]int)
	for rows.Next() {
		var et string
		var n int
		if err := rows.Scan(&et, &n); err != nil {
			return nil, err
		}
		out[EventType(et)] = n
	}
	return out, rows.Err()
}

// SessionCount returns the number of tracked sessions.
func (s *Store) SessionCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, err
}
