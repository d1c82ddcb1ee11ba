package main

import (
	"os"

	"github.com/riskibarqy/nleaderboard/internal/codec/demo"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/urfave/cli/v2"
)

type demoSummary struct {
	QueryType  uint32        `json:"qt"`
	ReplayID   int64         `json:"replay_id"`
	LevelID    int64         `json:"level_id"`
	UserID     int64         `json:"user_id"`
	Framecount int           `json:"framecount"`
	Gold       *int          `json:"gold,omitempty"`
	Levels     []demoLevelIO `json:"levels"`
}

type demoLevelIO struct {
	LevelID   int32 `json:"level_id"`
	Frames    int   `json:"frames"`
	Mode      int32 `json:"mode"`
	NinjaMask uint8 `json:"ninja_mask"`
}

// summarizeReplay decodes a get_replay reply. A positive scoreFrames adds
// the gold estimate.
func summarizeReplay(raw []byte, scoreFrames int64) (demoSummary, error) {
	replay, err := demo.ParseReplay(raw)
	if err != nil {
		return demoSummary{}, err
	}
	d, err := replay.Decode()
	if err != nil {
		return demoSummary{}, err
	}

	out := demoSummary{
		QueryType:  replay.QueryType,
		ReplayID:   replay.ReplayID,
		LevelID:    replay.LevelID,
		UserID:     replay.UserID,
		Framecount: d.Framecount(),
		Levels:     make([]demoLevelIO, 0, len(d.Headers)),
	}
	for i, h := range d.Headers {
		out.Levels = append(out.Levels, demoLevelIO{
			LevelID:   h.LevelID,
			Frames:    len(d.Frames[i]),
			Mode:      h.Mode,
			NinjaMask: h.NinjaMask,
		})
	}
	if scoreFrames > 0 {
		gold := d.Gold(scoreFrames)
		out.Gold = &gold
	}
	return out, nil
}

func newDemoCommand(logger *logging.Logger) *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "replay tools",
		Subcommands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "summarize a get_replay reply",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "score", Usage: "score in frames, enables the gold estimate"},
				},
				Action: func(c *cli.Context) error {
					raw, err := os.ReadFile(c.Args().First())
					if err != nil {
						return err
					}
					summary, err := summarizeReplay(raw, c.Int64("score"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, summary)
				},
			},
			{
				Name:  "backfill",
				Usage: "download missing demos of archived runs",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 0, Usage: "archives per batch, 0 uses DEMO_BATCH_SIZE"},
				},
				Action: withContainer(logger, func(c *cli.Context, deps containerDeps) error {
					result, err := deps.container.Demos.Backfill(c.Context, c.Int("limit"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, result)
				}),
			},
		},
	}
}
