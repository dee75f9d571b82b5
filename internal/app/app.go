package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/raidwatch/raidwatch/internal/config"
	"github.com/raidwatch/raidwatch/internal/discovery"
	"github.com/raidwatch/raidwatch/internal/engine"
	"github.com/raidwatch/raidwatch/internal/events"
	"github.com/raidwatch/raidwatch/internal/forward"
	"github.com/raidwatch/raidwatch/internal/refdata"
	"github.com/raidwatch/raidwatch/internal/replay"
	"github.com/raidwatch/raidwatch/internal/state"
	"github.com/raidwatch/raidwatch/internal/stats"
	"github.com/raidwatch/raidwatch/internal/ui"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Options configure the raidwatch application.
type Options struct {
	ConfigPath  string
	LogsDir     string        // overrides the configured logs directory
	PollEvery   time.Duration // zero uses the configured interval
	Headless    bool          // run without the terminal UI
	ReplaySince time.Time     // non-zero runs a one-shot historic replay and exits
}

// Run boots raidwatch until the context is cancelled or, in replay mode,
// until the backfill finishes.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.LogsDir != "" {
		cfg.LogsDir = opts.LogsDir
	}
	if opts.PollEvery > 0 {
		cfg.PollEvery = opts.PollEvery
	}

	ref, err := refdata.Load(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}

	bus := events.NewBus()
	eng := engine.New(bus, ref)

	store := &state.Store{}
	attachStore(bus, store, eng)

	if cfg.DBPath != "" {
		db, err := stats.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open stats store: %w", err)
		}
		defer db.Close()
		db.Attach(bus)
	}

	if cfg.ForwardURL != "" {
		client, err := forward.NewClient(cfg.ForwardURL, cfg.ForwardToken)
		if err != nil {
			return fmt.Errorf("init event forwarder: %w", err)
		}
		client.Attach(ctx, bus)
	}

	if !opts.ReplaySince.IsZero() {
		n, err := replay.Run(cfg.LogsDir, opts.ReplaySince, eng)
		if err != nil {
			return fmt.Errorf("replay logs: %w", err)
		}
		log.Printf("replayed %d records since %s", n, opts.ReplaySince.Format(time.RFC3339))
		return nil
	}

	monitor := discovery.NewMonitor(cfg.LogsDir, cfg.PollEvery)
	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("watch logs dir: %w", err)
	}
	defer monitor.Stop()

	go eng.Run(ctx, monitor.Chunks())

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-monitor.Errors():
				if !ok {
					return
				}
				log.Printf("monitor: %v", err)
				store.SetError(err)
			}
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
		case <-monitor.Ready():
			bus.Publish(events.InitialLoadDone{Meta: events.Meta{Time: time.Now()}})
		}
	}()

	if opts.Headless {
		<-ctx.Done()
		return nil
	}

	return ui.Run(ctx, ui.Options{
		Store:        store,
		Theme:        ui.ThemeByName(cfg.Theme),
		RefreshEvery: time.Second,
		Version:      Version,
	})
}
