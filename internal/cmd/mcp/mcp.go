// Package mcp parses MCP command configuration and runs the stdio server.
package mcp

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/platform/config"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/platform/otel"
	mcpservice "github.com/CourtHive/tods-competition-factory-sub007/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	DBPath string `env:"SCORING_DB_PATH"    envDefault:"data/scoring.db"`
	Locale string `env:"SCORING_LOCALE"     envDefault:"en-US"`
}

// ParseConfig parses the given environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string, environ []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environ); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite match store")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for tool error messages")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP scoring server on stdio.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	return mcpservice.Run(ctx, mcpservice.Config{
		DBPath: cfg.DBPath,
		Locale: cfg.Locale,
		Logger: log.Default(),
	})
}
