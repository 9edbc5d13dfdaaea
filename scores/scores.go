// Package scores keeps the ranking of finished sessions.
//
// A Store is selected from a DSN by Open: memory, a JSON file, a SQLite file
// or a Postgres database. Every backend orders entries the same way: higher
// score first, then the earlier entry.
package scores

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Best when nothing has been recorded
	ErrNotFound     = errors.New("not found")
	ErrInvalidEntry = errors.New("invalid entry")
)

// Entry is one recorded score
type Entry struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session"`
	Score      int       `json:"score"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Store persists the ranking. Adding a session that is already present is a
// no-op, so a score cannot be counted twice.
type Store interface {
	Add(ctx context.Context, e Entry) error
	// List returns the ranking, at most limit entries when limit > 0.
	List(ctx context.Context, limit int) ([]Entry, error)
	Best(ctx context.Context) (Entry, error)
	Reset(ctx context.Context) error
	Close() error
}

// Rank sorts entries into ranking order in place
func Rank(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.RecordedAt.Equal(b.RecordedAt) {
			return a.RecordedAt.Before(b.RecordedAt)
		}
		return a.ID < b.ID
	})
}

func top(entries []Entry, limit int) []Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

// Open picks a backend from the DSN:
//
//	""  or "memory"          in-process map
//	*.json                   JSON file
//	postgres:// postgresql:// Postgres via gorm
//	anything else            SQLite file path
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemoryStore(), nil
	case strings.HasSuffix(strings.ToLower(dsn), ".json"):
		return OpenJSONFile(dsn)
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	default:
		return OpenSQLite(ctx, dsn)
	}
}

func validate(e Entry) error {
	if e.SessionID == "" {
		return fmt.Errorf("%w: missing session id", ErrInvalidEntry)
	}
	if e.Score <= 0 {
		return fmt.Errorf("%w: score %d is not positive", ErrInvalidEntry, e.Score)
	}
	return nil
}

// Recorder adapts a Store to the scheduler's score sink
type Recorder struct {
	Store Store
}

func (r Recorder) RecordScore(ctx context.Context, sessionID string, score int, at time.Time) error {
	err := r.Store.Add(ctx, Entry{
		SessionID:  sessionID,
		Score:      score,
		RecordedAt: at.UTC(),
	})
	if err != nil {
		return fmt.Errorf("record score for %s: %w", sessionID, err)
	}
	return nil
}
