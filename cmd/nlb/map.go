package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/riskibarqy/nleaderboard/internal/codec/nmap"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v2"
)

const levelFileExt = ".nmap"

type mapSummary struct {
	Title   string         `json:"title"`
	Mode    uint8          `json:"mode"`
	Tiles   int            `json:"solid_tiles"`
	Objects map[string]int `json:"objects"`
}

func summarizeMap(m nmap.Map) mapSummary {
	out := mapSummary{Title: m.Title, Mode: uint8(m.Mode), Objects: make(map[string]int)}
	for _, row := range m.Tiles {
		for _, tile := range row {
			if tile != 0 {
				out.Tiles++
			}
		}
	}
	for _, o := range m.Objects {
		out.Objects[o.Type.String()]++
	}
	return out
}

func newMapCommand(logger *logging.Logger) *cli.Command {
	return &cli.Command{
		Name:  "map",
		Usage: "level file tools",
		Subcommands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "summarize a level file",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					data, err := os.ReadFile(c.Args().First())
					if err != nil {
						return err
					}
					m, err := nmap.Load(data)
					if err != nil {
						return fmt.Errorf("decode %s: %w", c.Args().First(), err)
					}
					return printJSON(c.App.Writer, summarizeMap(m))
				},
			},
			{
				Name:      "legacy",
				Usage:     "convert maps in the old editor format into level files",
				ArgsUsage: "<file>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: ".", Usage: "output directory"},
					&cli.IntFlag{Name: "workers", Value: 4},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return fmt.Errorf("at least one legacy map file is required")
					}
					converted, err := convertLegacyFiles(c.Args().Slice(), c.String("out"), c.Int("workers"), logger)
					if err != nil {
						return err
					}
					logger.Info("legacy maps converted", "files", converted)
					return nil
				},
			},
			{
				Name:      "dump",
				Usage:     "print a level file in the old editor format",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					data, err := os.ReadFile(c.Args().First())
					if err != nil {
						return err
					}
					m, err := nmap.Load(data)
					if err != nil {
						return fmt.Errorf("decode %s: %w", c.Args().First(), err)
					}
					text, err := nmap.EncodeLegacy(m)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, text)
					return err
				},
			},
		},
	}
}

// convertLegacyFiles writes one level file per input into outDir and
// returns the output paths in input order.
func convertLegacyFiles(paths []string, outDir string, workers int, logger *logging.Logger) ([]string, error) {
	if workers <= 0 {
		workers = 1
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	outputs := make([]string, len(paths))
	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for i, path := range paths {
		p.Go(func() error {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			m, report, err := nmap.ParseLegacy(strings.TrimSpace(string(raw)))
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			for _, w := range report.Warnings {
				logger.Warn("legacy map repaired", "file", path, "warning", w)
			}
			data, err := nmap.Dump(m)
			if err != nil {
				return fmt.Errorf("dump %s: %w", path, err)
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + levelFileExt
			out := filepath.Join(outDir, name)
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
