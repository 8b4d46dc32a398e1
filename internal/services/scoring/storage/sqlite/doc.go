// Package sqlite provides a SQLite-backed match storage implementation.
package sqlite
