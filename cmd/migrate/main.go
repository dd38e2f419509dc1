package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/config"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/logger"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		path     string
		logLevel string
	)
	flag.StringVar(&path, "path", "", "migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := run(args, resolvePath(path), log); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
}

// resolvePath falls back to ./migrations, then to the directory two
// levels above the binary for containerized deployments
func resolvePath(path string) string {
	if path != "" {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	if _, err := os.Stat(defaultMigrationsPath); err == nil {
		if abs, err := filepath.Abs(defaultMigrationsPath); err == nil {
			return abs
		}
	}
	if exec, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exec), "..", "..", defaultMigrationsPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultMigrationsPath
}

func run(args []string, path string, log *zap.Logger) error {
	command := args[0]
	log.Info("migration tool", zap.String("command", command), zap.String("path", path))

	// create and list work without a database connection
	switch command {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate create <name>")
		}
		mf, err := migration.CreateMigration(path, args[1])
		if err != nil {
			return err
		}
		log.Info("migration created",
			zap.String("version", mf.Version),
			zap.String("up", mf.UpPath),
			zap.String("down", mf.DownPath))
		return nil

	case "list":
		migrations, err := migration.ListMigrations(path)
		if err != nil {
			return err
		}
		if len(migrations) == 0 {
			log.Info("no migrations found")
			return nil
		}
		for _, name := range migrations {
			fmt.Println(" ", name)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, path, log)
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[1])
		}
		return m.Steps(n)

	case "goto":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return m.GoTo(uint(version))

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("no migrations applied")
		} else {
			log.Info("current version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
		return nil

	case "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return m.Force(version)

	case "drop":
		if len(args) < 2 || args[1] != "-confirm" {
			return fmt.Errorf("drop destroys all billing data; run 'migrate drop -confirm'")
		}
		return m.Drop()

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Println(`debit note schema migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up               apply all pending migrations
  down             roll back all migrations
  step <n>         apply n migrations, negative n rolls back
  goto <version>   migrate to a specific version
  version          show the current schema version
  force <version>  stamp the version without running migrations
  drop -confirm    drop every object in the database
  create <name>    create an empty up/down migration pair
  list             list available migrations

Flags:
  -path string       migrations directory (default: ./migrations)
  -log-level string  debug, info, warn, error (default: info)

The database connection comes from the server configuration:
  DEBITNOTE_DATABASE_HOST, DEBITNOTE_DATABASE_PORT, DEBITNOTE_DATABASE_USER,
  DEBITNOTE_DATABASE_PASSWORD, DEBITNOTE_DATABASE_DBNAME, DEBITNOTE_DATABASE_SSLMODE`)
}
