package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/config"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Match lifecycle states.
const (
	MatchStatusUpcoming = "upcoming"
	MatchStatusLive     = "live"
	MatchStatusFinished = "finished"
)

// Match is one bout on the competition schedule.
type Match struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Athlete1 string    `json:"athlete1"`
	Athlete2 string    `json:"athlete2"`
	Date     time.Time `json:"date"`
	Status   string    `json:"status"`
}

// Recording is a video file captured during a match. EndTime is nil while
// the recording is still open.
type Recording struct {
	ID          int64      `json:"id"`
	MatchID     int64      `json:"match_id"`
	FilePath    string     `json:"file_path"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	SizeBytes   int64      `json:"size_bytes"`
	IsHighlight bool       `json:"is_highlight"`
}

// MatchEvent is one scoring event tied to a match. Details carries the full
// event payload as JSON; Athlete is empty for unattributed events.
type MatchEvent struct {
	ID        int64     `json:"id"`
	MatchID   int64     `json:"match_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Athlete   string    `json:"athlete,omitempty"`
	Details   string    `json:"details"`
}

// MatchStore provides CRUD operations for Match records.
type MatchStore interface {
	Create(ctx context.Context, m *Match) (int64, error)
	Get(ctx context.Context, id int64) (*Match, error)
	List(ctx context.Context) ([]Match, error)
	Update(ctx context.Context, m *Match) error
	Delete(ctx context.Context, id int64) error
}

// RecordingStore provides CRUD operations for Recording records.
type RecordingStore interface {
	Create(ctx context.Context, r *Recording) (int64, error)
	Get(ctx context.Context, id int64) (*Recording, error)
	ListForMatch(ctx context.Context, matchID int64) ([]Recording, error)
	Update(ctx context.Context, r *Recording) error
	Delete(ctx context.Context, id int64) error
}

// EventStore provides append and query operations for match events.
type EventStore interface {
	Append(ctx context.Context, e *MatchEvent) (int64, error)
	Get(ctx context.Context, id int64) (*MatchEvent, error)
	ListForMatch(ctx context.Context, matchID int64) ([]MatchEvent, error)
	Delete(ctx context.Context, id int64) error
}

// Store aggregates all sub-stores into a single handle.
type Store interface {
	Matches() MatchStore
	Recordings() RecordingStore
	Events() EventStore
	Close() error
}

// Open builds the store selected by the storage configuration.
func Open(cfg *config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPostgresStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
