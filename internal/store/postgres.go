package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore is a Store backed by a PostgreSQL connection pool.
type PostgresStore struct {
	db         *sql.DB
	matches    *postgresMatchStore
	recordings *postgresRecordingStore
	events     *postgresEventStore
}

// NewPostgresStore opens a connection pool, verifies connectivity, and
// creates the schema when it does not exist yet.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresStore{
		db:         db,
		matches:    &postgresMatchStore{db: db},
		recordings: &postgresRecordingStore{db: db},
		events:     &postgresEventStore{db: db},
	}, nil
}

func (p *PostgresStore) Matches() MatchStore        { return p.matches }
func (p *PostgresStore) Recordings() RecordingStore { return p.recordings }
func (p *PostgresStore) Events() EventStore         { return p.events }

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func createTables(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			athlete1 TEXT NOT NULL,
			athlete2 TEXT NOT NULL,
			date TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS recordings (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches (id),
			file_path TEXT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ,
			size_bytes BIGINT NOT NULL,
			is_highlight BOOLEAN NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches (id),
			event_type TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			athlete TEXT,
			details TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Match store
// ---------------------------------------------------------------------------

type postgresMatchStore struct {
	db *sql.DB
}

func (s *postgresMatchStore) Create(ctx context.Context, m *Match) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO matches (name, athlete1, athlete2, date, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		m.Name, m.Athlete1, m.Athlete2, m.Date, m.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create match: %w", err)
	}
	return id, nil
}

func (s *postgresMatchStore) Get(ctx context.Context, id int64) (*Match, error) {
	var m Match
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, athlete1, athlete2, date, status FROM matches WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.Name, &m.Athlete1, &m.Athlete2, &m.Date, &m.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &m, nil
}

func (s *postgresMatchStore) List(ctx context.Context) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, athlete1, athlete2, date, status FROM matches ORDER BY date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Name, &m.Athlete1, &m.Athlete2, &m.Date, &m.Status); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *postgresMatchStore) Update(ctx context.Context, m *Match) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE matches SET name = $1, athlete1 = $2, athlete2 = $3, date = $4, status = $5
		 WHERE id = $6`,
		m.Name, m.Athlete1, m.Athlete2, m.Date, m.Status, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	return requireRow(result, "match", m.ID)
}

func (s *postgresMatchStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return requireRow(result, "match", id)
}

// ---------------------------------------------------------------------------
// Recording store
// ---------------------------------------------------------------------------

type postgresRecordingStore struct {
	db *sql.DB
}

func (s *postgresRecordingStore) Create(ctx context.Context, r *Recording) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO recordings (match_id, file_path, start_time, end_time, size_bytes, is_highlight)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		r.MatchID, r.FilePath, r.StartTime, r.EndTime, r.SizeBytes, r.IsHighlight,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create recording: %w", err)
	}
	return id, nil
}

func (s *postgresRecordingStore) Get(ctx context.Context, id int64) (*Recording, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, match_id, file_path, start_time, end_time, size_bytes, is_highlight
		 FROM recordings WHERE id = $1`,
		id,
	)
	rec, err := scanRecording(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recording %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recording: %w", err)
	}
	return rec, nil
}

func (s *postgresRecordingStore) ListForMatch(ctx context.Context, matchID int64) ([]Recording, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, match_id, file_path, start_time, end_time, size_bytes, is_highlight
		 FROM recordings WHERE match_id = $1 ORDER BY start_time DESC`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer rows.Close()

	var recordings []Recording
	for rows.Next() {
		rec, err := scanRecording(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recording: %w", err)
		}
		recordings = append(recordings, *rec)
	}
	return recordings, rows.Err()
}

func (s *postgresRecordingStore) Update(ctx context.Context, r *Recording) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE recordings SET match_id = $1, file_path = $2, start_time = $3, end_time = $4,
		 size_bytes = $5, is_highlight = $6 WHERE id = $7`,
		r.MatchID, r.FilePath, r.StartTime, r.EndTime, r.SizeBytes, r.IsHighlight, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recording: %w", err)
	}
	return requireRow(result, "recording", r.ID)
}

func (s *postgresRecordingStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	return requireRow(result, "recording", id)
}

func scanRecording(scan func(dest ...any) error) (*Recording, error) {
	var (
		rec Recording
		end sql.NullTime
	)
	if err := scan(&rec.ID, &rec.MatchID, &rec.FilePath, &rec.StartTime, &end,
		&rec.SizeBytes, &rec.IsHighlight); err != nil {
		return nil, err
	}
	if end.Valid {
		t := end.Time
		rec.EndTime = &t
	}
	return &rec, nil
}

// ---------------------------------------------------------------------------
// Event store
// ---------------------------------------------------------------------------

type postgresEventStore struct {
	db *sql.DB
}

func (s *postgresEventStore) Append(ctx context.Context, e *MatchEvent) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO events (match_id, event_type, timestamp, athlete, details)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		e.MatchID, e.Type, e.Timestamp, nullString(e.Athlete), e.Details,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append event: %w", err)
	}
	return id, nil
}

func (s *postgresEventStore) Get(ctx context.Context, id int64) (*MatchEvent, error) {
	var (
		e       MatchEvent
		athlete sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, match_id, event_type, timestamp, athlete, details FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.MatchID, &e.Type, &e.Timestamp, &athlete, &e.Details)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	e.Athlete = athlete.String
	return &e, nil
}

func (s *postgresEventStore) ListForMatch(ctx context.Context, matchID int64) ([]MatchEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, match_id, event_type, timestamp, athlete, details
		 FROM events WHERE match_id = $1 ORDER BY timestamp ASC, id ASC`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []MatchEvent
	for rows.Next() {
		var (
			e       MatchEvent
			athlete sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.MatchID, &e.Type, &e.Timestamp, &athlete, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Athlete = athlete.String
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *postgresEventStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return requireRow(result, "event", id)
}

// requireRow converts a zero-row update or delete into ErrNotFound.
func requireRow(result sql.Result, entity string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
