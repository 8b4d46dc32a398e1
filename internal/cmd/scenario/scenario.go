// Package scenario runs Lua match scenario scripts from the command line.
package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/platform/config"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	Scenario   string `env:"SCORING_SCENARIO_FILE"`
	Assertions bool   `env:"SCORING_SCENARIO_ASSERT"  envDefault:"true"`
	Verbose    bool   `env:"SCORING_SCENARIO_VERBOSE"`
}

// ParseConfig parses env and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}

	parsed, err := scenario.LoadScenarioFromFile(cfg.Scenario)
	if err != nil {
		return err
	}
	runner := scenario.NewRunner(scenario.Config{
		Assertions: mode,
		Verbose:    cfg.Verbose,
		Logger:     log.New(errOut, "", 0),
	})
	if err := runner.RunScenario(ctx, parsed); err != nil {
		return err
	}
	if failures := runner.Failures(); failures > 0 {
		_, err := fmt.Fprintf(out, "%s: %d expectation(s) failed\n", parsed.Name, failures)
		return err
	}
	_, err = fmt.Fprintf(out, "%s: ok\n", parsed.Name)
	return err
}
