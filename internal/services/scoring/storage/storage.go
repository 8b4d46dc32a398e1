package storage

import (
	"context"
	"errors"
	"time"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
)

var (
	// ErrNotFound indicates a requested match record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrSequenceConflict indicates appended events do not continue the
	// stored ledger.
	ErrSequenceConflict = errors.New("event sequence conflict")
)

// MatchRecord stores the latest snapshot of one match.
type MatchRecord struct {
	MatchID string
	Format  string
	Status  string
	// Scoreboard is the side 1 perspective rendering at the last write.
	Scoreboard string
	// SnapshotJSON is the serialized engine snapshot.
	SnapshotJSON []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MatchStore persists match snapshots and their event ledgers.
type MatchStore interface {
	PutMatch(ctx context.Context, record MatchRecord) error
	GetMatch(ctx context.Context, matchID string) (MatchRecord, error)
	ListMatches(ctx context.Context, limit int) ([]MatchRecord, error)
	// SaveMatch drops ledger events above keepSeq, stores the snapshot and
	// appends events in one transaction.
	SaveMatch(ctx context.Context, record MatchRecord, keepSeq uint64, events []event.Event) error
	EventStore
}

// EventStore persists the ordered ledger of one match. ListEvents satisfies
// the replay event source contract.
type EventStore interface {
	AppendEvents(ctx context.Context, matchID string, events []event.Event) error
	ListEvents(ctx context.Context, matchID string, afterSeq uint64, limit int) ([]event.Event, error)
	// TruncateEvents removes every event with a sequence above afterSeq.
	TruncateEvents(ctx context.Context, matchID string, afterSeq uint64) error
}
