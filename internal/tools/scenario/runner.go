package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/engine"
)

// Config controls scenario execution.
type Config struct {
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
	// Clock stamps ledger entries; nil uses the wall clock.
	Clock func() time.Time
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Assertions: AssertionStrict,
		Verbose:    false,
	}
}

// Runner plays scenarios against a fresh scoring engine each.
type Runner struct {
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	clock      func() time.Time
}

// NewRunner prepares a scenario runner.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Runner{
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		clock:      clock,
	}
}

// Failures returns the number of expectations that failed in log-only mode.
func (r *Runner) Failures() int {
	return r.assertions.Failures
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	return NewRunner(cfg).RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps against a new engine.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	match, err := engine.New(scenario.Format, engine.WithClock(r.clock), engine.WithMatchID(scenario.Name))
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	r.logf("scenario start: %s %s (%d steps)", scenario.Name, match.Format(), len(scenario.Steps))

	for index, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		if err := r.runStep(match, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s -> %s", stepNumber, len(scenario.Steps), step.Kind, match.Scoreboard(engine.ScoreboardOptions{}))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
