// Package cli defines the lflog command-line interface.
package cli

import (
	"fmt"

	cli "github.com/urfave/cli/v2"

	"github.com/lflog/lflog/version"
)

// Shared flag definitions to eliminate duplication
var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to profile configuration file (TOML). Default: LFLOG_CONFIG or ~/.config/lflog/config.toml",
	}
	profileFlag = &cli.StringFlag{
		Name:    "profile",
		Aliases: []string{"p"},
		Usage:   "Profile name from the configuration file",
	}
	patternFlag = &cli.StringFlag{
		Name:  "pattern",
		Usage: "Inline pattern (overrides the profile's pattern)",
	}
	tableFlag = &cli.StringFlag{
		Name:    "table",
		Aliases: []string{"T"},
		Usage:   "SQL table name for the registered log file",
		Value:   "log",
	}
	queryFlag = &cli.StringFlag{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "SQL query to execute (omit for interactive mode)",
	}
	addFilePathFlag = &cli.BoolFlag{
		Name:    "add-file-path",
		Aliases: []string{"f"},
		Usage:   "Add the __FILE__ column (source file path) to the schema",
	}
	addRawFlag = &cli.BoolFlag{
		Name:    "add-raw",
		Aliases: []string{"r"},
		Usage:   "Add the __RAW__ column (raw log line) to the schema",
	}
	threadsFlag = &cli.IntFlag{
		Name:    "threads",
		Aliases: []string{"t"},
		Usage:   "Number of scan chunks (default: LFLOGTHREADS or host parallelism)",
	}
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Output query results as JSON instead of a text table",
	}
	compactFlag = &cli.BoolFlag{
		Name:  "compact",
		Usage: "Output compact JSON (no pretty printing)",
	}
	statsFlag = &cli.BoolFlag{
		Name:  "stats",
		Usage: "Print per-file match diagnostics after the scan",
	}
	statsPlotFlag = &cli.StringFlag{
		Name:  "stats-plot",
		Usage: "Path where to save the match-rate chart (e.g. '/path/to/stats.html')",
	}
	tuiFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Launch the interactive SQL console (TUI) instead of the stdin prompt",
	}
)

// App is the lflog command.
var App = &cli.App{
	Name:      "lflog",
	Usage:     "Query log files with SQL",
	ArgsUsage: "LOGFILE",
	Version:   version.String(),
	Flags: []cli.Flag{
		configFlag,
		profileFlag,
		patternFlag,
		tableFlag,
		queryFlag,
		addFilePathFlag,
		addRawFlag,
		threadsFlag,
		jsonFlag,
		compactFlag,
		statsFlag,
		statsPlotFlag,
		tuiFlag,
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("expected exactly one LOGFILE argument, got %d", c.NArg())
		}
		return Run(RunOptions{
			LogFile:     c.Args().First(),
			ConfigPath:  c.String("config"),
			Profile:     c.String("profile"),
			Pattern:     c.String("pattern"),
			Table:       c.String("table"),
			Query:       c.String("query"),
			AddFilePath: c.Bool("add-file-path"),
			AddRaw:      c.Bool("add-raw"),
			Threads:     c.Int("threads"),
			JSON:        c.Bool("json"),
			Compact:     c.Bool("compact"),
			Stats:       c.Bool("stats"),
			StatsPlot:   c.String("stats-plot"),
			TUI:         c.Bool("tui"),
		})
	},
}
