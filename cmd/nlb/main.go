package main

import (
	"io"
	"os"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nleaderboard/internal/config"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := logging.NewConsole(os.Stderr, config.ParseLogLevel(os.Getenv("APP_LOG_LEVEL")))
	logging.SetDefault(logger)

	if err := newApp(logger).Run(os.Args); err != nil {
		logger.Error("nlb failed", "error", err)
		os.Exit(1)
	}
}

func newApp(logger *logging.Logger) *cli.App {
	return &cli.App{
		Name:  "nlb",
		Usage: "inspect maps and replays, rank boards and maintain the archive",
		Commands: []*cli.Command{
			newMapCommand(logger),
			newDemoCommand(logger),
			newBoardCommand(logger),
			newArchiveCommand(logger),
		},
	}
}

func printJSON(w io.Writer, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
