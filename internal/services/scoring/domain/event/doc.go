// Package event defines the ledger entry envelope for match scoring.
//
// Every mutating engine call is recorded as one event. The ledger of events,
// ordered by Seq, is the only source of truth for a match: score, status and
// point history are always derived by folding the ledger from the initial
// format descriptor.
package event
