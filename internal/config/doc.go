// Package config handles loading and parsing the raidwatch configuration.
//
// Configuration lives in a single TOML file, ~/.config/raidwatch/config.toml
// by default. A missing file is not an error: every field falls back to a
// default, and empty fields in an existing file do too. The only path the
// application truly depends on is the game's logs directory; everything else
// (stats database, reference data, webhook forwarding) is optional and
// disabled when unset or defaulted.
//
// Example config.toml:
//
//	logs_dir = "C:/Battlestate Games/EFT/Logs"
//	poll_seconds = 5
//	db_path = "~/.local/share/raidwatch/raids.db"
//	data_dir = "~/.local/share/raidwatch/data"
//	theme = "dark"
//
//	[forward]
//	url = "https://example.org/hook"
//	token = "secret"
package config
