// Package replay re-derives match state by folding a ledger in Seq order.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
)

const defaultPageSize = 200

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrApplierRequired indicates a missing applier.
	ErrApplierRequired = errors.New("applier is required")
)

// EventStore lists ledger events with Seq greater than afterSeq.
type EventStore interface {
	ListEvents(ctx context.Context, matchID string, afterSeq uint64, limit int) ([]event.Event, error)
}

// Applier folds one event into state.
type Applier[S any] interface {
	Apply(state S, evt event.Event) (S, error)
}

// ApplierFunc adapts a fold function to Applier.
type ApplierFunc[S any] func(state S, evt event.Event) (S, error)

// Apply calls f.
func (f ApplierFunc[S]) Apply(state S, evt event.Event) (S, error) {
	return f(state, evt)
}

// Options configures replay behavior.
type Options struct {
	AfterSeq uint64
	// UntilSeq stops the replay after this Seq when non-zero.
	UntilSeq uint64
	PageSize int
}

// Result captures replay outcomes.
type Result[S any] struct {
	State   S
	LastSeq uint64
	Applied int
}

// Replay folds events from store into state in Seq order. A gap in the
// sequence is an error: a ledger with holes cannot reproduce its score.
func Replay[S any](ctx context.Context, store EventStore, applier Applier[S], matchID string, state S, options Options) (Result[S], error) {
	if store == nil {
		return Result[S]{}, ErrEventStoreRequired
	}
	if applier == nil {
		return Result[S]{}, ErrApplierRequired
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := Result[S]{State: state, LastSeq: options.AfterSeq}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		events, err := store.ListEvents(ctx, matchID, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(events) == 0 {
			return result, nil
		}
		for _, evt := range events {
			if options.UntilSeq > 0 && evt.Seq > options.UntilSeq {
				return result, nil
			}
			expectedSeq := result.LastSeq + 1
			if evt.Seq != expectedSeq {
				return result, fmt.Errorf("event sequence gap: expected %d got %d", expectedSeq, evt.Seq)
			}
			nextState, err := applier.Apply(result.State, evt)
			if err != nil {
				return result, fmt.Errorf("apply event %d: %w", evt.Seq, err)
			}
			result.State = nextState
			result.LastSeq = evt.Seq
			result.Applied++
		}
	}
}

// SliceStore serves an in-memory ledger ordered by Seq. The match id is
// ignored.
type SliceStore []event.Event

// ListEvents returns up to limit events with Seq greater than afterSeq.
func (s SliceStore) ListEvents(_ context.Context, _ string, afterSeq uint64, limit int) ([]event.Event, error) {
	start := 0
	for start < len(s) && s[start].Seq <= afterSeq {
		start++
	}
	end := len(s)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return s[start:end], nil
}
