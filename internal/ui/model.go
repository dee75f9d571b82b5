package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/raidwatch/raidwatch/internal/state"
)

// Options configure the UI runtime.
type Options struct {
	Store        *state.Store
	Theme        Theme
	RefreshEvery time.Duration
	Version      string
}

const (
	defaultRefresh = time.Second
	chromeHeight   = 2 // header + command bar
)

type tickMsg time.Time

// Model is the Bubble Tea model for the event feed view.
type Model struct {
	store   *state.Store
	theme   Theme
	styles  Styles
	refresh time.Duration
	version string

	width    int
	height   int
	sized    bool
	follow   bool
	snapshot state.Snapshot
	feed     viewport.Model
}

func newModel(opts Options) Model {
	refresh := opts.RefreshEvery
	if refresh <= 0 {
		refresh = defaultRefresh
	}
	return Model{
		store:   opts.Store,
		theme:   opts.Theme,
		styles:  opts.Theme.Styles(),
		refresh: refresh,
		version: opts.Version,
		follow:  true,
	}
}

// Run blocks rendering the UI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a data store")
	}
	prog := tea.NewProgram(newModel(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	if ctx.Err() != nil {
		// Shutdown via signal, not a UI failure.
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.sized {
			m.feed = viewport.New(msg.Width, max(msg.Height-chromeHeight, 1))
			m.sized = true
		} else {
			m.feed.Width = msg.Width
			m.feed.Height = max(msg.Height-chromeHeight, 1)
		}
		m.refreshFeed()
		return m, nil

	case tickMsg:
		m.snapshot = m.store.Snapshot()
		m.refreshFeed()
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "f":
			m.follow = !m.follow
			if m.follow {
				m.feed.GotoBottom()
			}
			return m, nil
		case "g":
			m.follow = false
			m.feed.GotoTop()
			return m, nil
		case "G":
			m.follow = true
			m.feed.GotoBottom()
			return m, nil
		}
		// Manual scrolling pauses follow mode.
		var cmd tea.Cmd
		m.feed, cmd = m.feed.Update(msg)
		m.follow = m.feed.AtBottom()
		return m, cmd
	}

	var cmd tea.Cmd
	m.feed, cmd = m.feed.Update(msg)
	return m, cmd
}

func (m *Model) refreshFeed() {
	if !m.sized {
		return
	}
	lines := make([]string, 0, len(m.snapshot.Feed))
	for _, entry := range m.snapshot.Feed {
		lines = append(lines, formatFeedEntry(entry))
	}
	m.feed.SetContent(strings.Join(lines, "\n"))
	if m.follow {
		m.feed.GotoBottom()
	}
}

func (m Model) View() string {
	if !m.sized {
		return "loading..."
	}
	return m.renderHeader() + "\n" + m.feed.View() + "\n" + m.renderCommandBar()
}

func (m Model) renderHeader() string {
	s := m.styles
	parts := []string{s.Logo.Render("raidwatch")}

	if m.snapshot.Ready {
		parts = append(parts, s.Success.Render("● LIVE"))
	} else {
		parts = append(parts, s.Warning.Render("● replaying history..."))
	}

	parts = append(parts, s.Muted.Render("profile:")+" "+s.Text.Render(profileLabel(m.snapshot.Profile)))
	parts = append(parts, s.Muted.Render("raid:")+" "+s.Accent.Render(raidSummary(m.snapshot.Raid)))

	if n := len(m.snapshot.Group); n > 0 {
		parts = append(parts, s.Muted.Render(fmt.Sprintf("group: %d", n)))
	}
	if m.snapshot.LastError != nil {
		parts = append(parts, s.Danger.Render("ERROR")+" "+s.Danger.Render(truncate(m.snapshot.LastError.Error(), 60)))
	}
	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, s.Faint.Render(m.snapshot.LastUpdated.Format("15:04:05")))
	}

	return s.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderCommandBar() string {
	s := m.styles
	follow := "Follow"
	if m.follow {
		follow = "Pause"
	}
	segments := []string{
		s.Accent.Render("f") + s.Muted.Render(":"+follow),
		s.Accent.Render("g/G") + s.Muted.Render(":Top/Bottom"),
		s.Accent.Render("j/k") + s.Muted.Render(":Scroll"),
		s.Accent.Render("q") + s.Muted.Render(":Quit"),
	}
	if m.version != "" {
		segments = append(segments, s.Faint.Render(m.version))
	}
	return s.Footer.Width(m.width).Render(strings.Join(segments, "  "))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
