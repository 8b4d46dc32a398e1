package scenario

import (
	"fmt"
	"log"
)

// AssertionMode controls how failed expectations are reported.
type AssertionMode int

const (
	// AssertionStrict fails the scenario on the first failed expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs failed expectations and keeps running.
	AssertionLogOnly
)

// Assertions reports failed expectations according to Mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
	// Failures counts expectations that failed in log-only mode.
	Failures int
}

// Assertf returns an error in strict mode; in log-only mode it logs and
// returns nil.
func (a *Assertions) Assertf(format string, args ...any) error {
	message := fmt.Sprintf(format, args...)
	if a.Mode == AssertionStrict {
		return fmt.Errorf("assertion failed: %s", message)
	}
	a.Failures++
	if a.Logger != nil {
		a.Logger.Printf("assertion failed: %s", message)
	}
	return nil
}
