package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/config"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/database"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/telemetry"
)

type schemaMigrator interface {
	Up(steps int) error
	Down(steps int) error
	Version() (version uint, dirty bool, err error)
}

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, status")
		steps  = flag.Int("steps", 0, "Number of migrations to apply or roll back (0 = all)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	migrator, err := database.NewMigrator(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to prepare migrations", zap.Error(err))
		os.Exit(1)
	}
	defer func() { _ = migrator.Close() }()

	if err := runAction(migrator, *action, *steps, logger); err != nil {
		logger.Error("migration failed", zap.String("action", *action), zap.Error(err))
		os.Exit(1)
	}
}

func runAction(m schemaMigrator, action string, steps int, logger *zap.Logger) error {
	if steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", steps)
	}

	switch action {
	case "up":
		if err := m.Up(steps); err != nil {
			return err
		}
	case "down":
		if err := m.Down(steps); err != nil {
			return err
		}
	case "status":
	default:
		return fmt.Errorf("unknown action %q", action)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("schema version",
		zap.String("action", action),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	if dirty {
		return fmt.Errorf("schema version %d is dirty and needs manual repair", version)
	}
	return nil
}
