// Command scorekit-play records one finished game for the local player and prints the
// standings. It stands in for a game's game-over screen.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"scorekit/config"
	"scorekit/core"
	"scorekit/engine"
	"scorekit/identity"
	"scorekit/leaderboard"
	"scorekit/scorekit"
	"scorekit/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "scorekit-play: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("scorekit-play", flag.ContinueOnError)
	fs.SetOutput(out)
	var (
		configPath = fs.String("config", "", "JSON config file (env overrides apply)")
		adapter    = fs.String("store", "", "override storage adapter: redis, sql, file, memory, offline")
		profile    = fs.String("identity", "", "player profile path")
		score      = fs.Int64("score", 0, "final score")
		level      = fs.Int("level", 1, "level reached")
		lines      = fs.Int("lines", 0, "lines cleared")
		duration   = fs.Duration("duration", 0, "session duration")
		showOnly   = fs.Bool("show", false, "print standings without recording a game")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
		return err
	}
	if *adapter != "" {
		cfg.Storage.Adapter = *adapter
	}
	if *profile != "" {
		cfg.Identity.Path = *profile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := telemetry.NewLogger(telemetry.LoggerOptions{
		Level:  cfg.Logging.Level,
		Format: "text",
		Output: "stderr",
	})

	store, err := scorekit.OpenStore(cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := scorekit.CloseStore(store); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()

	ids, err := identityProvider(cfg, logger)
	if err != nil {
		return err
	}

	svc := scorekit.New(
		scorekit.WithStore(store),
		scorekit.WithIdentity(ids),
		scorekit.WithDispatchMode(engine.DispatchSync),
		scorekit.WithLogger(logger),
	)
	defer svc.Close()
	svc.Start(ctx)

	if !*showOnly {
		rec, ok, err := svc.RecordGame(ctx, core.SessionStats{
			Score:        *score,
			Level:        *level,
			LinesCleared: *lines,
			Duration:     *duration,
		})
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(out, "Saved %d points for %s.\n", rec.Score, rec.Nickname)
		} else {
			fmt.Fprintf(out, "Score not saved: %s is unavailable.\n", svc.Describe())
		}
	}

	if !svc.Available() {
		fmt.Fprintln(out, "Leaderboard unavailable.")
		return nil
	}
	return printStandings(out, svc.Standings(ctx))
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func identityProvider(cfg *config.Config, logger *slog.Logger) (engine.IdentityProvider, error) {
	path := cfg.Identity.Path
	if path == "" {
		p, err := identity.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return identity.NewFileProvider(path, identity.WithLogger(logger)), nil
}

func printStandings(out io.Writer, rows []leaderboard.Row) error {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No scores yet.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tSCORE\tLEVEL\tLINES\tDATE\t")
	for _, r := range rows {
		marker := ""
		if r.Current {
			marker = "<"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\t%s\n", r.Rank, r.Nickname, r.Score, r.Level, r.Lines, r.Date, marker)
	}
	return tw.Flush()
}

