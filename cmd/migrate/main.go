// Command migrate applies and authors the goose migrations embedded in
// pkg/migrate.
//
//	migrate up | down | status
//	migrate to -version 20260301090000
//	migrate create -name add_refund_index [-dir pkg/migrate/migrations]
//	migrate validate [-dir pkg/migrate/migrations]
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/gwon477/dmarket/pkg/config"
	"github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/logger"
	"github.com/gwon477/dmarket/pkg/migrate"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

const usage = "usage: migrate <up|down|status|to|create|validate> [flags]"

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return exitUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "create":
		return runCreate(rest, stdout, stderr)
	case "validate":
		return runValidate(rest, stdout, stderr)
	case "up", "down", "status":
		return withDatabase(cmd, stderr, func(ctx context.Context, sqlDB *sql.DB) error {
			return migrate.Run(ctx, sqlDB, cmd)
		})
	case "to":
		fs := flag.NewFlagSet("to", flag.ContinueOnError)
		fs.SetOutput(stderr)
		version := fs.String("version", "", "target version (YYYYMMDDHHMMSS)")
		if err := fs.Parse(rest); err != nil {
			return exitUsage
		}
		if *version == "" {
			fmt.Fprintln(stderr, "migrate to: -version is required")
			return exitUsage
		}
		return withDatabase(cmd, stderr, func(ctx context.Context, sqlDB *sql.DB) error {
			return migrate.MigrateToVersion(ctx, sqlDB, *version)
		})
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s\n", cmd, usage)
		return exitUsage
	}
}

func runCreate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "migration name, e.g. add_refund_index")
	dir := fs.String("dir", migrate.DefaultDir, "directory the migration is written to")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *name == "" {
		fmt.Fprintln(stderr, "migrate create: -name is required")
		return exitUsage
	}
	path, err := migrate.CreateSQLMigration(*dir, *name, time.Now())
	if err != nil {
		fmt.Fprintf(stderr, "migrate create: %v\n", err)
		return exitFail
	}
	fmt.Fprintln(stdout, "created", path)
	return exitOK
}

func runValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", migrate.DefaultDir, "directory to check")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if err := migrate.Validate(os.DirFS(*dir), "."); err != nil {
		fmt.Fprintf(stderr, "migrate validate: %v\n", err)
		return exitFail
	}
	fmt.Fprintln(stdout, "migrations ok:", *dir)
	return exitOK
}

// withDatabase loads config, opens the pool and hands fn the *sql.DB goose
// needs. Errors are logged with the command name.
func withDatabase(cmd string, stderr io.Writer, fn func(context.Context, *sql.DB) error) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "migrate %s: load config: %v\n", cmd, err)
		return exitFail
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": cmd})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "database unavailable", err)
		return exitFail
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "sql handle unavailable", err)
		return exitFail
	}
	if err := fn(ctx, sqlDB); err != nil {
		logg.Error(ctx, "migration failed", err)
		return exitFail
	}
	logg.Info(ctx, "migration complete")
	return exitOK
}
