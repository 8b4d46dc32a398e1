// Package scenario loads Lua match scripts and plays them against the scoring
// engine. Point and game winners are 0 or 1; lineup sides, perspectives and
// winning sides are 1 or 2.
package scenario
