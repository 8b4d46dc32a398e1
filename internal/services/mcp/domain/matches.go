package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/CourtHive/tods-competition-factory-sub007/internal/platform/errors"
	platformotel "github.com/CourtHive/tods-competition-factory-sub007/internal/platform/otel"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/engine"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/pointvalue"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/score"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/storage"
)

// ErrStoreRequired indicates the service was built without a match store.
var ErrStoreRequired = errors.New("match store is required")

// MatchService owns live engines and keeps them in sync with a store.
type MatchService struct {
	store  storage.MatchStore
	tracer trace.Tracer
	logger *log.Logger
	now    func() time.Time
	newID  func() string

	mu      sync.Mutex
	matches map[string]*matchEntry
}

type matchEntry struct {
	mu     sync.Mutex
	engine *engine.Engine
	// persisted mirrors the ledger rows in the store.
	persisted []event.Event
	createdAt time.Time
}

// ServiceOption configures a MatchService.
type ServiceOption func(*MatchService)

// WithClock sets the clock used for ledger and record timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *MatchService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the generator used for new match ids.
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *MatchService) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *MatchService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer used for match operation spans.
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *MatchService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewMatchService builds a service on top of a match store.
func NewMatchService(store storage.MatchStore, opts ...ServiceOption) (*MatchService, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	s := &MatchService{
		store:   store,
		tracer:  platformotel.Tracer(),
		logger:  log.New(os.Stderr, "", log.LstdFlags),
		now:     time.Now,
		newID:   uuid.NewString,
		matches: map[string]*matchEntry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateParams describes a new match.
type CreateParams struct {
	MatchID     string
	Format      string
	Multipliers []pointvalue.Rule
}

// MatchView is the read model returned by every match operation.
type MatchView struct {
	MatchID     string
	Format      string
	Status      string
	WinningSide int
	Scoreboard  string
	Score       score.Score
	Points      int
	Doubles     bool
	CanUndo     bool
	CanRedo     bool
}

// MatchSummary is one stored match as listed by List.
type MatchSummary struct {
	MatchID    string
	Format     string
	Status     string
	Scoreboard string
	UpdatedAt  time.Time
}

// Create starts and persists a new match.
func (s *MatchService) Create(ctx context.Context, params CreateParams) (view MatchView, err error) {
	matchID := strings.TrimSpace(params.MatchID)
	if matchID == "" {
		matchID = s.newID()
	}
	ctx, span := s.startSpan(ctx, "match.create", matchID)
	defer func() { endSpan(span, err) }()

	match, err := engine.New(params.Format,
		engine.WithMatchID(matchID),
		engine.WithClock(s.now),
		engine.WithMultipliers(params.Multipliers...),
	)
	if err != nil {
		return MatchView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[matchID]; ok {
		return MatchView{}, fmt.Errorf("match %s already exists", matchID)
	}
	if _, err := s.store.GetMatch(ctx, matchID); err == nil {
		return MatchView{}, fmt.Errorf("match %s already exists", matchID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return MatchView{}, fmt.Errorf("check match: %w", err)
	}

	entry := &matchEntry{engine: match, createdAt: s.now().UTC()}
	if err := s.persist(ctx, matchID, entry); err != nil {
		return MatchView{}, err
	}
	s.matches[matchID] = entry
	s.logger.Printf("match %s created: %s", matchID, match.Format())
	return viewOf(match, 1), nil
}

// Update applies one operation to a match and persists the result. Engine
// errors leave the match unchanged.
func (s *MatchService) Update(ctx context.Context, matchID, operation string, apply func(*engine.Engine) error) (view MatchView, err error) {
	ctx, span := s.startSpan(ctx, "match."+operation, matchID)
	defer func() { endSpan(span, err) }()

	entry, err := s.load(ctx, matchID)
	if err != nil {
		return MatchView{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := apply(entry.engine); err != nil {
		return MatchView{}, err
	}
	if err := s.persist(ctx, matchID, entry); err != nil {
		s.evict(matchID)
		return MatchView{}, err
	}
	return viewOf(entry.engine, 1), nil
}

// View returns the current read model of a match from a side's perspective.
func (s *MatchService) View(ctx context.Context, matchID string, perspective int) (view MatchView, err error) {
	ctx, span := s.startSpan(ctx, "match.view", matchID)
	defer func() { endSpan(span, err) }()

	entry, err := s.load(ctx, matchID)
	if err != nil {
		return MatchView{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return viewOf(entry.engine, perspective), nil
}

// List returns stored matches, most recently updated first. A non-positive
// limit uses the store default.
func (s *MatchService) List(ctx context.Context, limit int) (summaries []MatchSummary, err error) {
	ctx, span := s.startSpan(ctx, "match.list", "")
	defer func() { endSpan(span, err) }()

	records, err := s.store.ListMatches(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	summaries = make([]MatchSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, MatchSummary{
			MatchID:    record.MatchID,
			Format:     record.Format,
			Status:     record.Status,
			Scoreboard: record.Scoreboard,
			UpdatedAt:  record.UpdatedAt,
		})
	}
	return summaries, nil
}

// Snapshot returns the serializable engine state of a match.
func (s *MatchService) Snapshot(ctx context.Context, matchID string) (engine.Snapshot, error) {
	entry, err := s.load(ctx, matchID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.engine.State(), nil
}

// load returns the cached match or rebuilds it from the stored ledger.
func (s *MatchService) load(ctx context.Context, matchID string) (*matchEntry, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, apperrors.New(apperrors.CodeNotFound, "match id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.matches[matchID]; ok {
		return entry, nil
	}

	record, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.WithMetadata(apperrors.CodeNotFound, "match not found", map[string]string{"MatchID": matchID})
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(record.SnapshotJSON, &snap); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStateDeserialization, "decode match snapshot", err)
	}
	events, err := s.store.ListEvents(ctx, matchID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list match events: %w", err)
	}
	snap.Ledger = events
	snap.Options.MatchID = matchID

	match, err := engine.Restore(snap, engine.WithClock(s.now))
	if err != nil {
		return nil, err
	}
	entry := &matchEntry{engine: match, persisted: events, createdAt: record.CreatedAt}
	s.matches[matchID] = entry
	s.logger.Printf("match %s restored from %d events", matchID, len(events))
	return entry, nil
}

// persist writes the latest snapshot and the ledger difference in one store
// transaction.
func (s *MatchService) persist(ctx context.Context, matchID string, entry *matchEntry) error {
	ledger := entry.engine.Ledger()
	keep := commonPrefix(entry.persisted, ledger)

	snap := entry.engine.State()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode match snapshot: %w", err)
	}
	record := storage.MatchRecord{
		MatchID:      matchID,
		Format:       snap.Format,
		Status:       string(snap.Status),
		Scoreboard:   entry.engine.Scoreboard(engine.ScoreboardOptions{}),
		SnapshotJSON: data,
		CreatedAt:    entry.createdAt,
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.store.SaveMatch(ctx, record, uint64(keep), ledger[keep:]); err != nil {
		return fmt.Errorf("save match: %w", err)
	}
	entry.persisted = ledger
	return nil
}

func (s *MatchService) evict(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, matchID)
}

func (s *MatchService) startSpan(ctx context.Context, name, matchID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("match.id", matchID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, string(apperrors.CodeOf(err)))
	}
	span.End()
}

func commonPrefix(stored, current []event.Event) int {
	n := min(len(stored), len(current))
	for i := 0; i < n; i++ {
		a, b := stored[i], current[i]
		if a.Seq != b.Seq || a.Type != b.Type || !a.Timestamp.Equal(b.Timestamp) || !bytes.Equal(a.PayloadJSON, b.PayloadJSON) {
			return i
		}
	}
	return n
}

func viewOf(match *engine.Engine, perspective int) MatchView {
	return MatchView{
		MatchID:     match.MatchID(),
		Format:      match.Format(),
		Status:      string(match.Status()),
		WinningSide: match.WinningSide(),
		Scoreboard:  match.Scoreboard(engine.ScoreboardOptions{Perspective: perspective}),
		Score:       match.Score(),
		Points:      len(match.History()),
		Doubles:     match.Doubles(),
		CanUndo:     match.CanUndo(),
		CanRedo:     match.CanRedo(),
	}
}
