// Package engine is the public match scoring API.
//
// An Engine owns one match: its format, its ledger of accepted events and a
// redo stack. Every mutating call goes through score.Decide and score.Fold and
// is appended to the ledger only when the whole call succeeds. Undo and Redo
// move entries between the ledger and the redo stack and then rebuild the
// state by replaying the ledger from the initial format, so the score after
// any navigation always equals a from-scratch replay.
//
// An Engine is not safe for concurrent use; callers sharing one must
// serialize access.
package engine
