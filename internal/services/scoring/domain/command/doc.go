// Package command defines the command envelope and decision contract for the
// scoring write path.
//
// Engine calls are normalized into commands before they reach the score
// decider, so validation happens against the current derived state and only
// accepted decisions ever reach the ledger.
package command
