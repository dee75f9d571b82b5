package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything raidwatch reads from its config file.
type Config struct {
	LogsDir      string
	PollEvery    time.Duration
	DBPath       string // empty disables the stats store
	DataDir      string // reference data JSON files; empty disables lookups
	Theme        string
	ForwardURL   string // empty disables the webhook forwarder
	ForwardToken string
}

const (
	defaultConfigPath  = "~/.config/raidwatch/config.toml"
	defaultLogsDir     = "C:/Battlestate Games/EFT/Logs"
	defaultDBPath      = "~/.local/share/raidwatch/raids.db"
	defaultDataDir     = "~/.local/share/raidwatch/data"
	defaultTheme       = "dark"
	defaultPollSeconds = 5
)

// Load locates and parses the config file, falling back to defaults when it
// is missing or partially filled in.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		LogsDir     string `toml:"logs_dir"`
		PollSeconds int    `toml:"poll_seconds"`
		DBPath      string `toml:"db_path"`
		DataDir     string `toml:"data_dir"`
		Theme       string `toml:"theme"`
		Forward     struct {
			URL   string `toml:"url"`
			Token string `toml:"token"`
		} `toml:"forward"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if dir := strings.TrimSpace(raw.LogsDir); dir != "" {
		cfg.LogsDir = mustExpand(dir)
	}
	if raw.PollSeconds > 0 {
		cfg.PollEvery = time.Duration(raw.PollSeconds) * time.Second
	}
	if p := strings.TrimSpace(raw.DBPath); p != "" {
		cfg.DBPath = mustExpand(p)
	}
	if d := strings.TrimSpace(raw.DataDir); d != "" {
		cfg.DataDir = mustExpand(d)
	}
	if theme := strings.TrimSpace(raw.Theme); theme != "" {
		cfg.Theme = theme
	}
	cfg.ForwardURL = strings.TrimSpace(raw.Forward.URL)
	cfg.ForwardToken = strings.TrimSpace(raw.Forward.Token)

	return cfg, nil
}

func defaults() Config {
	return Config{
		LogsDir:   defaultLogsDir,
		PollEvery: defaultPollSeconds * time.Second,
		DBPath:    mustExpand(defaultDBPath),
		DataDir:   mustExpand(defaultDataDir),
		Theme:     defaultTheme,
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
