package main

import (
	"fmt"
	"os"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nleaderboard/internal/config"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/urfave/cli/v2"
)

const boardLimit = 20

type rankedRow struct {
	Rank     int     `json:"rank"`
	TiedRank int     `json:"tied_rank"`
	Player   string  `json:"player"`
	UserID   int64   `json:"user_id"`
	Score    float64 `json:"score"`
	ReplayID int64   `json:"replay_id"`
	Cool     bool    `json:"cool"`
	Star     bool    `json:"star"`
}

type rankOutput struct {
	Rows     []rankedRow             `json:"rows"`
	Filtered leaderboard.CleanReport `json:"filtered"`
}

// rankBoard ranks a raw get_scores reply. holders lists the metanet ids
// that held 0th before; nil disables the cool and star badges.
func rankBoard(ref highscoreable.Ref, raw []byte, policy leaderboard.Policy, holders []int64) (rankOutput, error) {
	var reply struct {
		Scores []leaderboard.Entry `json:"scores"`
	}
	if err := sonic.Unmarshal(raw, &reply); err != nil {
		return rankOutput{}, fmt.Errorf("decode scores: %w", err)
	}

	var holderSet map[int64]struct{}
	if holders != nil {
		holderSet = make(map[int64]struct{}, len(holders))
		for _, id := range holders {
			holderSet[id] = struct{}{}
		}
	}

	ranked, report := leaderboard.Rank(ref, reply.Scores, policy, holderSet, boardLimit)
	out := rankOutput{Rows: make([]rankedRow, 0, len(ranked)), Filtered: report}
	for _, r := range ranked {
		out.Rows = append(out.Rows, rankedRow{
			Rank:     r.Rank,
			TiedRank: r.TiedRank,
			Player:   r.UserName,
			UserID:   r.UserID,
			Score:    float64(r.Score) / 1000,
			ReplayID: r.ReplayID,
			Cool:     r.Cool,
			Star:     r.Star,
		})
	}
	return out, nil
}

func parseKinds(values []string) ([]highscoreable.Kind, error) {
	if len(values) == 0 {
		return []highscoreable.Kind{highscoreable.KindLevel, highscoreable.KindEpisode, highscoreable.KindStory}, nil
	}
	out := make([]highscoreable.Kind, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			kind, err := highscoreable.ParseKind(part)
			if err != nil {
				return nil, err
			}
			out = append(out, kind)
		}
	}
	return out, nil
}

func newBoardCommand(logger *logging.Logger) *cli.Command {
	return &cli.Command{
		Name:  "board",
		Usage: "leaderboard tools",
		Subcommands: []*cli.Command{
			{
				Name:      "rank",
				Usage:     "rank a saved get_scores reply",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Value: string(highscoreable.KindLevel)},
					&cli.Int64Flag{Name: "id", Required: true},
					&cli.StringFlag{Name: "policy", EnvVars: []string{"POLICY_FILE"}},
					&cli.Int64SliceFlag{Name: "holder", Usage: "metanet id that held 0th, repeatable"},
				},
				Action: func(c *cli.Context) error {
					kind, err := highscoreable.ParseKind(c.String("kind"))
					if err != nil {
						return err
					}
					policy, err := config.LoadPolicy(c.String("policy"))
					if err != nil {
						return err
					}
					raw, err := os.ReadFile(c.Args().First())
					if err != nil {
						return err
					}
					var holders []int64
					if c.IsSet("holder") {
						holders = c.Int64Slice("holder")
					}
					out, err := rankBoard(highscoreable.Ref{Kind: kind, ID: c.Int64("id")}, raw, policy, holders)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, out)
				},
			},
			{
				Name:  "refresh",
				Usage: "download and archive every board of the given kinds",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "kind", Usage: "level, episode, story or userlevel; defaults to the first three"},
				},
				Action: withContainer(logger, func(c *cli.Context, deps containerDeps) error {
					kinds, err := parseKinds(c.StringSlice("kind"))
					if err != nil {
						return err
					}
					result, err := deps.container.Leaderboard.RefreshAll(c.Context, kinds)
					if err != nil {
						return err
					}
					logger.Info("boards refreshed",
						"tasks", result.TaskCount,
						"succeeded", result.SuccessCount,
						"failed", result.FailedCount,
						"workers", result.WorkerCount,
					)
					return nil
				}),
			},
		},
	}
}
