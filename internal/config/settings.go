package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"tabsync/internal/indent"
)

const (
	defaultSyncAddress  = "127.0.0.1:7777"
	defaultNATSURL      = "nats://127.0.0.1:4222"
	defaultNATSSubject  = "tabsync.messages"
	defaultStorePath    = "cache.db"
	defaultWidthRatio   = 0.33
	defaultTrackTimeout = 5 * time.Second
)

const (
	SourceSSE  = "sse"
	SourceNATS = "nats"

	BackendBbolt = "bbolt"
	BackendFile  = "file"
)

type Config struct {
	Animation AnimationConfig `toml:"animation"`
	Indent    IndentConfig    `toml:"indent"`
	Sync      SyncConfig      `toml:"sync"`
	Store     StoreConfig     `toml:"store"`
	Logging   LoggingConfig   `toml:"logging"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

type AnimationConfig struct {
	Enabled            bool `toml:"enabled"`
	CollapseDurationMS int  `toml:"collapse_duration_ms"`
	IndentDurationMS   int  `toml:"indent_duration_ms"`
}

type IndentConfig struct {
	Base                     int     `toml:"base"`
	Min                      int     `toml:"min"`
	MaxTreeLevel             int     `toml:"max_tree_level"`
	AutoShrink               bool    `toml:"auto_shrink"`
	AutoShrinkOnlyForVisible bool    `toml:"auto_shrink_only_for_visible"`
	WidthRatio               float64 `toml:"width_ratio"`
	MaxImmediateRefreshCount int     `toml:"max_immediate_refresh_count"`
	ImmediateRefreshWindowMS int     `toml:"immediate_refresh_window_ms"`
}

type SyncConfig struct {
	Source         string `toml:"source"`
	Address        string `toml:"address"`
	NATSURL        string `toml:"nats_url"`
	NATSSubject    string `toml:"nats_subject"`
	WindowID       int    `toml:"window_id"`
	TrackTimeoutMS int    `toml:"track_timeout_ms"`
}

type StoreConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Address string `toml:"address"`
}

func DefaultConfig() Config {
	return Config{
		Animation: AnimationConfig{
			Enabled:            true,
			CollapseDurationMS: 150,
			IndentDurationMS:   200,
		},
		Indent: IndentConfig{
			Base:                     12,
			Min:                      indent.DefaultMinIndent,
			MaxTreeLevel:             -1,
			AutoShrink:               true,
			WidthRatio:               defaultWidthRatio,
			MaxImmediateRefreshCount: 10,
		},
		Sync: SyncConfig{
			Source:         SourceSSE,
			Address:        defaultSyncAddress,
			NATSURL:        defaultNATSURL,
			NATSSubject:    defaultNATSSubject,
			TrackTimeoutMS: int(defaultTrackTimeout / time.Millisecond),
		},
		Store: StoreConfig{
			Backend: BackendBbolt,
			Path:    defaultStorePath,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func (c Config) AnimationEnabled() bool {
	return c.Animation.Enabled
}

func (c Config) CollapseDuration() time.Duration {
	return time.Duration(c.Animation.CollapseDurationMS) * time.Millisecond
}

func (c Config) IndentDuration() time.Duration {
	return time.Duration(c.Animation.IndentDurationMS) * time.Millisecond
}

func (c Config) IndentParams() indent.Params {
	base := c.Indent.Base
	if base <= 0 {
		base = DefaultConfig().Indent.Base
	}
	maxTreeLevel := c.Indent.MaxTreeLevel
	if maxTreeLevel < -1 {
		maxTreeLevel = -1
	}
	return indent.Params{
		BaseIndent:   base,
		MinIndent:    c.Indent.Min,
		MaxTreeLevel: maxTreeLevel,
	}
}

func (c Config) AutoShrink() bool {
	return c.Indent.AutoShrink
}

func (c Config) AutoShrinkOnlyForVisible() bool {
	return c.Indent.AutoShrinkOnlyForVisible
}

func (c Config) WidthRatio() float64 {
	ratio := c.Indent.WidthRatio
	if math.IsNaN(ratio) || ratio <= 0 || ratio > 1 {
		return defaultWidthRatio
	}
	return ratio
}

func (c Config) MaxImmediateRefreshCount() int {
	return max(0, c.Indent.MaxImmediateRefreshCount)
}

func (c Config) ImmediateRefreshWindow() time.Duration {
	return time.Duration(max(0, c.Indent.ImmediateRefreshWindowMS)) * time.Millisecond
}

func (c Config) SyncSource() string {
	source := strings.ToLower(strings.TrimSpace(c.Sync.Source))
	if source == "" {
		return SourceSSE
	}
	return source
}

func (c Config) SyncAddress() string {
	addr := strings.TrimSpace(c.Sync.Address)
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultSyncAddress
	}
	return addr
}

func (c Config) SyncBaseURL() string {
	return "http://" + c.SyncAddress()
}

func (c Config) NATSURL() string {
	url := strings.TrimSpace(c.Sync.NATSURL)
	if url == "" {
		return defaultNATSURL
	}
	return url
}

func (c Config) NATSSubject() string {
	subject := strings.TrimSpace(c.Sync.NATSSubject)
	if subject == "" {
		return defaultNATSSubject
	}
	return subject
}

func (c Config) WindowID() int {
	return c.Sync.WindowID
}

func (c Config) TrackTimeout() time.Duration {
	if c.Sync.TrackTimeoutMS <= 0 {
		return defaultTrackTimeout
	}
	return time.Duration(c.Sync.TrackTimeoutMS) * time.Millisecond
}

func (c Config) StoreBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if backend == "" {
		return BackendBbolt
	}
	return backend
}

func (c Config) StorePath() (string, error) {
	path := strings.TrimSpace(c.Store.Path)
	if path == "" {
		return CachePath()
	}
	return resolveConfigPath(path)
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c Config) MetricsAddress() string {
	return strings.TrimSpace(c.Metrics.Address)
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}
