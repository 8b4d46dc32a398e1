package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/CourtHive/tods-competition-factory-sub007/internal/platform/storage/sqlitemigrate"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/storage"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const defaultListLimit = 50

// Store persists matches in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite match store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// PutMatch inserts or replaces the snapshot of one match. CreatedAt of an
// existing row is preserved.
func (s *Store) PutMatch(ctx context.Context, record storage.MatchRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return upsertMatch(ctx, s.sqlDB, record)
}

// SaveMatch drops ledger events above keepSeq, stores the snapshot and
// appends events in one transaction. Any failure leaves the match as it was.
func (s *Store) SaveMatch(ctx context.Context, record storage.MatchRecord, keepSeq uint64, events []event.Event) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save match: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteEventsAfter(ctx, tx, record.MatchID, keepSeq); err != nil {
		return err
	}
	if err := upsertMatch(ctx, tx, record); err != nil {
		return err
	}
	if err := insertEvents(ctx, tx, record.MatchID, events); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save match: %w", err)
	}
	return nil
}

// GetMatch returns one match by id.
func (s *Store) GetMatch(ctx context.Context, matchID string) (storage.MatchRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.MatchRecord{}, err
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return storage.MatchRecord{}, fmt.Errorf("match id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT match_id, format, status, scoreboard, snapshot_json, created_at, updated_at
		 FROM matches
		 WHERE match_id = ?`,
		matchID,
	)
	record, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MatchRecord{}, storage.ErrNotFound
		}
		return storage.MatchRecord{}, fmt.Errorf("get match: %w", err)
	}
	return record, nil
}

// ListMatches returns the most recently updated matches first.
func (s *Store) ListMatches(ctx context.Context, limit int) ([]storage.MatchRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT match_id, format, status, scoreboard, snapshot_json, created_at, updated_at
		 FROM matches
		 ORDER BY updated_at DESC, match_id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	records := make([]storage.MatchRecord, 0)
	for rows.Next() {
		record, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return records, nil
}

// AppendEvents appends events that continue the stored ledger of a match.
func (s *Store) AppendEvents(ctx context.Context, matchID string, events []event.Event) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if len(events) == 0 {
		return requireMatchID(matchID)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append events: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertEvents(ctx, tx, matchID, events); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append events: %w", err)
	}
	return nil
}

// ListEvents returns up to limit events after afterSeq in sequence order. A
// non-positive limit returns every remaining event.
func (s *Store) ListEvents(ctx context.Context, matchID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, fmt.Errorf("match id is required")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT seq, event_type, timestamp, payload_json
		 FROM match_events
		 WHERE match_id = ? AND seq > ?
		 ORDER BY seq
		 LIMIT ?`,
		matchID,
		afterSeq,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0)
	for rows.Next() {
		var (
			evt       event.Event
			eventType string
			timestamp int64
			payload   []byte
		)
		if err := rows.Scan(&evt.Seq, &eventType, &timestamp, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.MatchID = matchID
		evt.Type = event.Type(eventType)
		evt.Timestamp = time.Unix(0, timestamp).UTC()
		if len(payload) > 0 {
			evt.PayloadJSON = payload
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// TruncateEvents removes every event of a match with a sequence above
// afterSeq.
func (s *Store) TruncateEvents(ctx context.Context, matchID string, afterSeq uint64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return deleteEventsAfter(ctx, s.sqlDB, matchID, afterSeq)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func requireMatchID(matchID string) error {
	if strings.TrimSpace(matchID) == "" {
		return fmt.Errorf("match id is required")
	}
	return nil
}

func upsertMatch(ctx context.Context, db execer, record storage.MatchRecord) error {
	matchID := strings.TrimSpace(record.MatchID)
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}
	if strings.TrimSpace(record.Format) == "" {
		return fmt.Errorf("format is required")
	}
	if len(record.SnapshotJSON) == 0 {
		return fmt.Errorf("snapshot is required")
	}
	updatedAt := record.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = updatedAt
	}

	_, err := db.ExecContext(
		ctx,
		`INSERT INTO matches (
		   match_id,
		   format,
		   status,
		   scoreboard,
		   snapshot_json,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(match_id) DO UPDATE SET
		   format = excluded.format,
		   status = excluded.status,
		   scoreboard = excluded.scoreboard,
		   snapshot_json = excluded.snapshot_json,
		   updated_at = excluded.updated_at`,
		matchID,
		strings.TrimSpace(record.Format),
		record.Status,
		record.Scoreboard,
		record.SnapshotJSON,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put match: %w", err)
	}
	return nil
}

func insertEvents(ctx context.Context, db execer, matchID string, events []event.Event) error {
	matchID = strings.TrimSpace(matchID)
	if err := requireMatchID(matchID); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	var last uint64
	if err := db.QueryRowContext(
		ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM match_events WHERE match_id = ?`,
		matchID,
	).Scan(&last); err != nil {
		return fmt.Errorf("read last sequence: %w", err)
	}
	if err := event.ValidateSequence(events, last+1); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrSequenceConflict, err)
	}

	for _, evt := range events {
		if _, err := db.ExecContext(
			ctx,
			`INSERT INTO match_events (match_id, seq, event_type, timestamp, payload_json)
			 VALUES (?, ?, ?, ?, ?)`,
			matchID,
			evt.Seq,
			string(evt.Type),
			evt.Timestamp.UTC().UnixNano(),
			[]byte(evt.PayloadJSON),
		); err != nil {
			return fmt.Errorf("insert event %d: %w", evt.Seq, err)
		}
	}
	return nil
}

func deleteEventsAfter(ctx context.Context, db execer, matchID string, afterSeq uint64) error {
	matchID = strings.TrimSpace(matchID)
	if err := requireMatchID(matchID); err != nil {
		return err
	}
	if _, err := db.ExecContext(
		ctx,
		`DELETE FROM match_events WHERE match_id = ? AND seq > ?`,
		matchID,
		afterSeq,
	); err != nil {
		return fmt.Errorf("truncate events: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (storage.MatchRecord, error) {
	var (
		record    storage.MatchRecord
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&record.MatchID,
		&record.Format,
		&record.Status,
		&record.Scoreboard,
		&record.SnapshotJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.MatchRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

var _ storage.MatchStore = (*Store)(nil)
