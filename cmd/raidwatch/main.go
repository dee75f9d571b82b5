package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raidwatch/raidwatch/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	logsDir := flag.String("logs", "", "override game logs directory (optional)")
	pollSeconds := flag.Int("poll", 0, "log poll interval in seconds (optional, defaults to 5s)")
	headless := flag.Bool("headless", false, "run without the terminal UI")
	replaySince := flag.String("replay-since", "", "replay historic logs since RFC 3339 time and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		LogsDir:    *logsDir,
		Headless:   *headless,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = time.Duration(poll) * time.Second
	}
	if *replaySince != "" {
		since, err := time.Parse(time.RFC3339, *replaySince)
		if err != nil {
			fmt.Fprintf(os.Stderr, "raidwatch: bad -replay-since value: %v\n", err)
			return 2
		}
		opts.ReplaySince = since
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "raidwatch: %v\n", err)
		return 1
	}
	return 0
}
