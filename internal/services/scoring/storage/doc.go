// Package storage defines persistence contracts for scored matches.
package storage
