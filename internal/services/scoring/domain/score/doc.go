// Package score is the match state machine.
//
// Decide validates a command against the current state and emits ledger
// events; Fold applies one event to a state and returns the next. Both are
// pure, so the state of a match is always the fold of its ledger over
// NewState, and undo is a replay of a shorter ledger.
//
// Points advance games (standard, no-ad or consecutive-count), games advance
// sets, and sets advance the match. A standard set can drop into a tiebreak
// sub-state whose points are counted raw and won by two. Timed and aggregate
// segments never close on their own; they close when the segment is ended.
package score
