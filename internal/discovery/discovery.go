package discovery

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/raidwatch/raidwatch/internal/tailer"
)

// folderStampLayout matches the timestamp embedded in session folder names.
const folderStampLayout = "2006.01.02_15-04-05"

var folderStampRe = regexp.MustCompile(`^log_(\d{4}\.\d{2}\.\d{2}_\d{2}-\d{2}-\d{2})`)

// Monitor owns tailer lifecycle for the logs directory tree.
type Monitor struct {
	root     string
	interval time.Duration

	chunks chan tailer.Chunk
	errs   chan error

	ready     chan struct{}
	readyOnce sync.Once

	mu      sync.Mutex
	active  map[tailer.Kind]*managedTailer
	pending int
	fired   bool

	cancel context.CancelFunc
}

type managedTailer struct {
	t    *tailer.Tailer
	done chan struct{}
}

// NewMonitor creates a Monitor for the given logs root directory.
func NewMonitor(root string, interval time.Duration) *Monitor {
	return &Monitor{
		root:     root,
		interval: interval,
		chunks:   make(chan tailer.Chunk, 32),
		errs:     make(chan error, 16),
		ready:    make(chan struct{}),
		active:   make(map[tailer.Kind]*managedTailer),
	}
}

// Chunks returns the fan-in channel of all active tailers' chunks.
func (m *Monitor) Chunks() <-chan tailer.Chunk { return m.chunks }

// Errors returns the fan-in channel of tailer and watcher errors.
func (m *Monitor) Errors() <-chan error { return m.errs }

// Ready is closed once all initial tailer reads have completed.
func (m *Monitor) Ready() <-chan struct{} { return m.ready }

// Start resolves the newest session folder, begins tailing its logs, and
// watches the root for files the game creates later. An unresolvable logs
// root is a configuration error: it is returned once and monitoring does
// not start.
func (m *Monitor) Start(ctx context.Context) error {
	if _, err := os.Stat(m.root); err != nil {
		return fmt.Errorf("resolve logs directory: %w", err)
	}

	ctx, m.cancel = context.WithCancel(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start logs watcher: %w", err)
	}
	if err := watcher.Add(m.root); err != nil {
		watcher.Close()
		return fmt.Errorf("watch logs directory: %w", err)
	}

	session, err := newestSessionDir(m.root)
	if err != nil {
		m.reportError(err)
	} else if session != "" {
		if err := watcher.Add(session); err != nil {
			m.reportError(fmt.Errorf("watch session folder: %w", err))
		}
		m.attachSession(ctx, session)
	}

	go m.watchLoop(ctx, watcher)
	return nil
}

// Stop halts the watcher and every active tailer.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for kind, mt := range m.active {
		mt.t.Stop()
		close(mt.done)
		delete(m.active, kind)
	}
}

func (m *Monitor) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create == 0 {
				continue
			}
			info, err := os.Stat(ev.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if _, ok := sessionStamp(filepath.Base(ev.Name)); ok {
					if err := watcher.Add(ev.Name); err != nil {
						m.reportError(fmt.Errorf("watch session folder: %w", err))
					}
					m.attachSession(ctx, ev.Name)
				}
				continue
			}
			if kind, ok := KindForFile(filepath.Base(ev.Name)); ok {
				m.startTailer(ctx, kind, ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.reportError(fmt.Errorf("logs watcher: %w", err))
		}
	}
}

// attachSession starts tailers for the recognized files already present in
// a session folder.
func (m *Monitor) attachSession(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		m.reportError(fmt.Errorf("read session folder: %w", err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if kind, ok := KindForFile(entry.Name()); ok {
			m.startTailer(ctx, kind, filepath.Join(dir, entry.Name()))
		}
	}
}

// startTailer replaces any prior tailer for the same kind. Traces files are
// recognized but never tailed.
func (m *Monitor) startTailer(ctx context.Context, kind tailer.Kind, path string) {
	if kind == tailer.Traces {
		return
	}

	m.mu.Lock()
	if prev, ok := m.active[kind]; ok {
		if prev.t.Path() == path {
			m.mu.Unlock()
			return
		}
		prev.t.Stop()
		close(prev.done)
	}

	t := tailer.New(path, kind, m.interval)
	mt := &managedTailer{t: t, done: make(chan struct{})}
	m.active[kind] = mt
	if !m.fired {
		m.pending++
	}
	m.mu.Unlock()

	log.Printf("tailing %s log: %s", kind, path)
	t.Start(ctx)
	go m.forward(ctx, mt)
	go m.awaitReady(ctx, mt)
}

func (m *Monitor) forward(ctx context.Context, mt *managedTailer) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-mt.done:
			return
		case c := <-mt.t.Chunks():
			select {
			case m.chunks <- c:
			case <-ctx.Done():
				return
			}
		case err := <-mt.t.Errors():
			m.reportError(err)
		}
	}
}

func (m *Monitor) awaitReady(ctx context.Context, mt *managedTailer) {
	select {
	case <-ctx.Done():
		return
	case <-mt.done:
	case <-mt.t.Ready():
	}
	m.tailerReady()
}

func (m *Monitor) tailerReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fired {
		return
	}
	m.pending--
	if m.pending <= 0 {
		m.fired = true
		m.readyOnce.Do(func() { close(m.ready) })
	}
}

func (m *Monitor) reportError(err error) {
	select {
	case m.errs <- err:
	default:
	}
}

// KindForFile maps a log file name to its kind by suffix.
func KindForFile(name string) (tailer.Kind, bool) {
	switch {
	case strings.HasSuffix(name, "application.log"):
		return tailer.Application, true
	case strings.HasSuffix(name, "notifications.log"):
		return tailer.Notifications, true
	case strings.HasSuffix(name, "traces.log"):
		return tailer.Traces, true
	default:
		return 0, false
	}
}

// sessionStamp extracts the timestamp embedded in a session folder name.
func sessionStamp(name string) (time.Time, bool) {
	match := folderStampRe.FindStringSubmatch(name)
	if match == nil {
		return time.Time{}, false
	}
	stamp, err := time.Parse(folderStampLayout, match[1])
	if err != nil {
		return time.Time{}, false
	}
	return stamp, true
}

// newestSessionDir returns the session folder with the latest embedded
// timestamp, or empty when none exist yet.
func newestSessionDir(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("read logs directory: %w", err)
	}

	var (
		best      string
		bestStamp time.Time
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		stamp, ok := sessionStamp(entry.Name())
		if !ok {
			continue
		}
		if best == "" || stamp.After(bestStamp) {
			best = filepath.Join(root, entry.Name())
			bestStamp = stamp
		}
	}
	return best, nil
}

// SessionDirs returns every session folder under root ordered oldest first,
// for historic reprocessing.
func SessionDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read logs directory: %w", err)
	}

	type stamped struct {
		path  string
		stamp time.Time
	}
	var dirs []stamped
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if stamp, ok := sessionStamp(entry.Name()); ok {
			dirs = append(dirs, stamped{filepath.Join(root, entry.Name()), stamp})
		}
	}
	for i := 1; i < len(dirs); i++ {
		for j := i; j > 0 && dirs[j].stamp.Before(dirs[j-1].stamp); j-- {
			dirs[j], dirs[j-1] = dirs[j-1], dirs[j]
		}
	}
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = d.path
	}
	return out, nil
}
