package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Backend names accepted for clock.backend.
const (
	BackendLocal  = "local"
	BackendMPRIS  = "mpris"
	BackendRemote = "remote"
)

type Config struct {
	CatalogPath string `koanf:"catalog"` // path to the track list JSON
	Icons       string `koanf:"icons"`   // "nerd", "unicode", or "none"

	// Playback resumes where it left off, paused. Set resume_playback to
	// also restore the playing flag.
	ResumePlayback bool `koanf:"resume_playback"`

	Media   MediaConfig   `koanf:"media"`
	Clock   ClockConfig   `koanf:"clock"`
	Session SessionConfig `koanf:"session"`
}

// MediaConfig points at the audio/cover/lyrics assets.
type MediaConfig struct {
	Dir    string `koanf:"dir"`    // local media directory
	Mirror string `koanf:"mirror"` // remote mirror base URL
}

// ClockConfig selects the playback position source.
type ClockConfig struct {
	Backend string `koanf:"backend"` // "local", "mpris", or "remote" (default: "local")
	Service string `koanf:"service"` // mpris bus name, e.g. "org.mpris.MediaPlayer2.spotify"
}

// SessionConfig holds remote playback session credentials.
type SessionConfig struct {
	URL          string `koanf:"url"`
	AccessToken  string `koanf:"access_token"`
	RefreshToken string `koanf:"refresh_token"`
}

func Load() (*Config, error) {
	return loadFrom(getConfigPaths())
}

func loadFrom(paths []string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.CatalogPath = expandPath(cfg.CatalogPath)
	cfg.Media.Dir = expandPath(cfg.Media.Dir)
	cfg.Media.Mirror = strings.TrimSuffix(cfg.Media.Mirror, "/")
	cfg.Session.URL = strings.TrimSuffix(cfg.Session.URL, "/")

	if cfg.Clock.Backend == "" {
		cfg.Clock.Backend = BackendLocal
	}
	switch cfg.Clock.Backend {
	case BackendLocal, BackendMPRIS, BackendRemote:
	default:
		return nil, fmt.Errorf("unknown clock backend %q", cfg.Clock.Backend)
	}

	return cfg, nil
}

// HasSessionConfig returns true if the remote session is configured.
func (c *Config) HasSessionConfig() bool {
	return c.Session.URL != "" && c.Session.AccessToken != ""
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/undertow/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "undertow", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
