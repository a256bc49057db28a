package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/okian/tally/internal/playthrough"
	"github.com/okian/tally/pkg/logger"
)

// Default configuration constants.
const (
	defaultSessions = 50
	defaultRounds   = 5
	defaultPlayers  = 3
	defaultTimeout  = 10 * time.Second
	defaultRunLimit = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		sessions = flag.Int("sessions", defaultSessions, "Number of sessions to play")
		rounds   = flag.Int("rounds", defaultRounds, "Rounds per session")
		players  = flag.Int("players", defaultPlayers, "Players per session")
		workers  = flag.Int("workers", runtime.NumCPU(), "Sessions played concurrently")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
		verbose  = flag.Bool("verbose", false, "Log every session")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		playthrough.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	runner := playthrough.NewRunner(playthrough.Config{
		BaseURL:  *baseURL,
		Sessions: *sessions,
		Rounds:   *rounds,
		Players:  *players,
		Workers:  *workers,
		Timeout:  *timeout,
		Seed:     *seed,
		Verbose:  *verbose,
	}, logger.Named("playthrough"))

	if _, err := runner.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "playthrough failed:", err)
		cancel()
		os.Exit(1)
	}
}
