package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/riskibarqy/nleaderboard/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/urfave/cli/v2"
)

var defaultMigrationDirs = []string{"./db/migrations", "/app/db/migrations"}

func main() {
	logger := logging.NewConsole(os.Stderr, logging.LevelInfo)

	cliApp := &cli.App{
		Name:  "migration",
		Usage: "apply the leaderboard schema migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db-url", EnvVars: []string{"DB_URL"}, Usage: "postgres connection url"},
			&cli.StringFlag{Name: "dir", EnvVars: []string{"MIGRATIONS_DIR", "MIGRATIONS_PATH"}, Usage: "migration source directory"},
			&cli.BoolFlag{Name: "disable-prepared-binary", EnvVars: []string{"DB_DISABLE_PREPARED_BINARY_RESULT"}},
		},
		Commands: newMigrateCommands(logger),
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func newMigrateCommands(logger *logging.Logger) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "up",
			Usage: "apply every pending migration",
			Action: withMigrator(func(c *cli.Context, m *migrate.Migrate) error {
				if err := ignoreNoChange(m.Up(), logger); err != nil {
					return err
				}
				logger.Info("migrations applied")
				return nil
			}),
		},
		{
			Name:      "down",
			Usage:     "roll back migrations",
			ArgsUsage: "[steps]",
			Action: withMigrator(func(c *cli.Context, m *migrate.Migrate) error {
				steps, err := parseSteps(c.Args().First())
				if err != nil {
					return err
				}
				if err := ignoreNoChange(m.Steps(-steps), logger); err != nil {
					return err
				}
				logger.Info("migrations rolled back", "steps", steps)
				return nil
			}),
		},
		{
			Name:  "version",
			Usage: "print the applied version",
			Action: withMigrator(func(c *cli.Context, m *migrate.Migrate) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(c.App.Writer, "version: none")
					fmt.Fprintln(c.App.Writer, "dirty: false")
					return nil
				}
				if err != nil {
					return fmt.Errorf("read version: %w", err)
				}
				fmt.Fprintf(c.App.Writer, "version: %d\ndirty: %t\n", version, dirty)
				return nil
			}),
		},
		{
			Name:      "force",
			Usage:     "set the version without running migrations",
			ArgsUsage: "<version>",
			Action: withMigrator(func(c *cli.Context, m *migrate.Migrate) error {
				if c.NArg() < 1 {
					return fmt.Errorf("force requires a version argument")
				}
				version, err := parseVersion(c.Args().First())
				if err != nil {
					return err
				}
				if err := m.Force(version); err != nil {
					return fmt.Errorf("force version %d: %w", version, err)
				}
				logger.Info("version forced", "version", version)
				return nil
			}),
		},
		{
			Name:      "goto",
			Aliases:   []string{"migrate"},
			Usage:     "migrate up or down to a version",
			ArgsUsage: "<version>",
			Action: withMigrator(func(c *cli.Context, m *migrate.Migrate) error {
				if c.NArg() < 1 {
					return fmt.Errorf("goto requires a target version argument")
				}
				target, err := parseTarget(c.Args().First())
				if err != nil {
					return err
				}
				if err := ignoreNoChange(m.Migrate(target), logger); err != nil {
					return err
				}
				logger.Info("migrated", "version", target)
				return nil
			}),
		},
	}
}

func withMigrator(fn func(c *cli.Context, m *migrate.Migrate) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		dsn, err := postgres.PrepareDSN(c.String("db-url"), c.Bool("disable-prepared-binary"))
		if err != nil {
			return fmt.Errorf("DB_URL: %w", err)
		}
		dir, err := resolveMigrationsDir(c.String("dir"))
		if err != nil {
			return err
		}

		m, err := migrate.New("file://"+filepath.ToSlash(dir), dsn)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			srcErr, dbErr := m.Close()
			if srcErr != nil || dbErr != nil {
				fmt.Fprintf(c.App.ErrWriter, "close migrator: source=%v db=%v\n", srcErr, dbErr)
			}
		}()

		return fn(c, m)
	}
}

func ignoreNoChange(err error, logger *logging.Logger) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	return err
}

func parseSteps(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", raw, err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}

	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	if value > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("version is too large for this platform")
	}

	return int(value), nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func resolveMigrationsDir(explicit string) (string, error) {
	candidates := append([]string{strings.TrimSpace(explicit)}, defaultMigrationDirs...)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}

	return "", fmt.Errorf("migration directory not found (checked --dir, %s)", strings.Join(defaultMigrationDirs, ", "))
}
