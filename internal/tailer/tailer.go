package tailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Kind classifies which log file a chunk came from.
type Kind int

const (
	Application Kind = iota
	Notifications
	Traces
)

// String returns the lowercase name used in file suffixes and logs.
func (k Kind) String() string {
	switch k {
	case Application:
		return "application"
	case Notifications:
		return "notifications"
	case Traces:
		return "traces"
	default:
		return "unknown"
	}
}

// Chunk is one batch of newly appended text read from a log file.
type Chunk struct {
	Kind        Kind
	Path        string
	Text        string
	InitialRead bool // read began at offset zero (historic replay)
}

const (
	// DefaultInterval is the poll cadence between growth checks.
	DefaultInterval = 5 * time.Second

	readBufSize = 1024
)

// Tailer polls one file for growth and emits appended text as chunks.
type Tailer struct {
	path     string
	kind     Kind
	interval time.Duration

	chunks chan Chunk
	errs   chan error

	ready     chan struct{}
	readyOnce sync.Once

	stop     chan struct{}
	stopOnce sync.Once

	offset int64
	primed bool
}

// New creates a Tailer for the file at path. A non-positive interval uses
// DefaultInterval.
func New(path string, kind Kind, interval time.Duration) *Tailer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tailer{
		path:     path,
		kind:     kind,
		interval: interval,
		chunks:   make(chan Chunk, 16),
		errs:     make(chan error, 8),
		ready:    make(chan struct{}),
		stop:     make(chan struct{}),
	}
}

// Path returns the file being tailed.
func (t *Tailer) Path() string { return t.path }

// Kind returns the log kind this tailer was started with.
func (t *Tailer) Kind() Kind { return t.kind }

// Chunks returns the channel newly read text is sent on.
func (t *Tailer) Chunks() <-chan Chunk { return t.chunks }

// Errors returns the channel poll failures are reported on.
func (t *Tailer) Errors() <-chan error { return t.errs }

// Ready is closed once, after the first successful poll.
func (t *Tailer) Ready() <-chan struct{} { return t.ready }

// Start launches the polling loop in a background goroutine and returns
// immediately. The loop runs until Stop is called or ctx is cancelled.
func (t *Tailer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			if err := t.poll(); err != nil {
				t.reportError(err)
			}
			select {
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop asks the polling loop to exit. The loop observes the request after
// its current sleep; callers must tolerate up to one interval of latency.
func (t *Tailer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

func (t *Tailer) poll() error {
	info, err := os.Stat(t.path)
	if err != nil {
		return fmt.Errorf("stat %s log: %w", t.kind, err)
	}

	if !t.primed {
		// Application history is replayed from byte zero; other kinds
		// attach at the current end so old content is never re-reported.
		if t.kind != Application {
			t.offset = info.Size()
		}
		t.primed = true
	}

	size := info.Size()
	if size < t.offset {
		// File shrank underneath us (manual truncation); re-attach at the
		// new end rather than re-reading overlapping bytes.
		t.offset = size
	}
	if size == t.offset {
		t.signalReady()
		return nil
	}

	text, readErr := t.readFrom(t.offset)
	if readErr != nil {
		return readErr
	}
	if len(text) > 0 {
		chunk := Chunk{
			Kind:        t.kind,
			Path:        t.path,
			Text:        text,
			InitialRead: t.offset == 0,
		}
		t.offset += int64(len(text))
		select {
		case t.chunks <- chunk:
		case <-t.stop:
			return nil
		}
	}
	t.signalReady()
	return nil
}

// readFrom opens the file for shared reading, seeks to offset, and drains
// everything currently available in fixed-size reads.
func (t *Tailer) readFrom(offset int64) (string, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return "", fmt.Errorf("open %s log: %w", t.kind, err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek %s log: %w", t.kind, err)
	}

	var out bytes.Buffer
	buf := make([]byte, readBufSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s log: %w", t.kind, err)
		}
	}
	return out.String(), nil
}

func (t *Tailer) signalReady() {
	t.readyOnce.Do(func() { close(t.ready) })
}

func (t *Tailer) reportError(err error) {
	select {
	case t.errs <- err:
	default:
		// Error channel full; drop rather than stall the poll loop.
	}
}
