// Package domain translates MCP tool calls into scoring engine operations.
//
// Every mutating call loads the match, applies one engine operation under the
// match lock, and persists the resulting ledger and snapshot before replying.
package domain
