package main

import (
	"context"

	"github.com/riskibarqy/nleaderboard/internal/app"
	"github.com/riskibarqy/nleaderboard/internal/config"
	"github.com/riskibarqy/nleaderboard/internal/observability"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/urfave/cli/v2"
)

type containerDeps struct {
	cfg       config.Config
	container *app.Container
}

// withContainer builds the services and telemetry from the environment
// for commands that touch storage.
func withContainer(logger *logging.Logger, fn func(c *cli.Context, deps containerDeps) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		telemetry, err := observability.Start(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := telemetry.Shutdown(context.WithoutCancel(c.Context)); err != nil {
				logger.Warn("shutdown telemetry", "error", err)
			}
		}()

		container, err := app.NewContainer(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := container.Close(); err != nil {
				logger.Warn("close storage", "error", err)
			}
		}()
		return fn(c, containerDeps{cfg: cfg, container: container})
	}
}

func newArchiveCommand(logger *logging.Logger) *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "archive maintenance",
		Subcommands: []*cli.Command{
			{
				Name:  "sanitize",
				Usage: "remove archived data the current policy rejects",
				Action: withContainer(logger, func(c *cli.Context, deps containerDeps) error {
					report, err := deps.container.Sanitizer.Sanitize(c.Context)
					if err != nil {
						return err
					}
					logger.Info("archive sanitized", "storage", deps.cfg.StorageDriver)
					return printJSON(c.App.Writer, report)
				}),
			},
		},
	}
}
