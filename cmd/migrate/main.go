// Command migrate manages the goose schema for the storefront database.
//
//	migrate [-dir path] up|down|status
//	migrate [-dir path] to <version>
//	migrate [-dir path] create <name>
//	migrate [-dir path] validate
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/gosbiromania/storefront-backend/pkg/config"
	"github.com/gosbiromania/storefront-backend/pkg/db"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
	"github.com/gosbiromania/storefront-backend/pkg/migrate"
)

var errUsage = errors.New("usage: migrate [-dir path] up|down|status|to <version>|create <name>|validate")

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	flag.Parse()

	if err := run(context.Background(), *dir, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dir string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	command, rest := args[0], args[1:]

	switch command {
	case "create":
		if len(rest) != 1 {
			return errUsage
		}
		path, err := migrate.CreateSQLMigration(dir, rest[0])
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		fmt.Println("created migration:", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(dir); err != nil {
			return fmt.Errorf("validate migrations: %w", err)
		}
		fmt.Println("migrations ok")
		return nil
	case "up", "down", "status":
		if len(rest) != 0 {
			return errUsage
		}
	case "to":
		if len(rest) != 1 {
			return errUsage
		}
	default:
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"command": command,
		"dir":     dir,
		"driver":  cfg.DB.Driver,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		return err
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql db: %w", err)
	}

	if command == "to" {
		err = migrate.MigrateToVersion(ctx, sqlDB, client.Driver(), dir, rest[0])
	} else {
		err = migrate.Run(ctx, sqlDB, client.Driver(), dir, command)
	}
	if err != nil {
		logg.Error(ctx, "migrate.failed", err)
		return fmt.Errorf("goose %s: %w", command, err)
	}
	logg.Info(ctx, "migrate.done")
	return nil
}
