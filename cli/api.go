package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lflog/lflog/app"
	"github.com/lflog/lflog/output"
	"github.com/lflog/lflog/profile"
	"github.com/lflog/lflog/tui"
)

// RunOptions mirrors the CLI surface; Run is callable without a cli.Context
// so tests can drive it directly.
type RunOptions struct {
	LogFile     string
	ConfigPath  string
	Profile     string
	Pattern     string
	Table       string
	Query       string
	AddFilePath bool
	AddRaw      bool
	Threads     int
	JSON        bool
	Compact     bool
	Stats       bool
	StatsPlot   string
	TUI         bool
}

// Run registers the log file and either executes one query, prints
// diagnostics, or enters interactive mode.
func Run(opts RunOptions) error {
	ctx := context.Background()

	session, err := openSession(opts)
	if err != nil {
		return err
	}
	defer session.Close()

	collectStats := opts.Stats || opts.StatsPlot != ""
	err = session.Register(ctx, app.QueryOptions{
		LogFile:         opts.LogFile,
		ProfileName:     opts.Profile,
		PatternOverride: opts.Pattern,
		TableName:       opts.Table,
		AddFilePath:     opts.AddFilePath,
		AddRaw:          opts.AddRaw,
		NumThreads:      opts.Threads,
		CollectStats:    collectStats,
	})
	if err != nil {
		return err
	}

	if collectStats {
		files := session.Stats(opts.Table)
		if opts.Stats {
			if err := output.RenderStats(os.Stdout, output.NewScanSummary(opts.Table, files)); err != nil {
				return err
			}
		}
		if opts.StatsPlot != "" {
			if err := output.PlotMatchRate(files, opts.StatsPlot); err != nil {
				return err
			}
			fmt.Printf("Match-rate chart saved to %s\n", opts.StatsPlot)
		}
	}

	switch {
	case opts.Query != "":
		return runQuery(ctx, session, opts, opts.Query)
	case opts.TUI:
		return tui.Run(session, opts.Table)
	case opts.Stats || opts.StatsPlot != "":
		// Diagnostics-only invocation; nothing further to do.
		return nil
	default:
		return repl(ctx, session, opts)
	}
}

func openSession(opts RunOptions) (*app.Session, error) {
	configPath := profile.ResolvePath(opts.ConfigPath)
	if configPath != "" {
		return app.NewSessionFromConfig(configPath)
	}
	if opts.Pattern == "" {
		return nil, fmt.Errorf("%w: no config file found; create ~/.config/lflog/config.toml, set %s, use --config, or pass --pattern",
			profile.ErrConfig, profile.ConfigEnvVar)
	}
	return app.NewSession()
}

func runQuery(ctx context.Context, session *app.Session, opts RunOptions, query string) error {
	rows, err := session.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	if opts.JSON {
		_, err = output.RenderJSON(os.Stdout, rows, opts.Compact)
		return err
	}
	_, err = output.RenderTable(os.Stdout, rows)
	return err
}

// repl reads SQL statements from stdin, one per line, until EOF or an exit
// command. Query errors are printed and the loop continues.
func repl(ctx context.Context, session *app.Session, opts RunOptions) error {
	fmt.Println("lflog interactive mode. Type SQL queries, '.exit' to quit.")
	fmt.Println()

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("lflog> ")
		if !in.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if line == ".exit" || line == ".quit" || line == "exit" || line == "quit" {
			break
		}
		if strings.HasPrefix(line, ".") {
			fmt.Printf("Unknown command: %s\n", line)
			fmt.Println("Commands: .exit, .quit")
			continue
		}

		if err := runQuery(ctx, session, opts, line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		fmt.Println()
	}
	return in.Err()
}
