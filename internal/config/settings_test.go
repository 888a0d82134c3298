package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tabsync/internal/indent"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AnimationEnabled() {
		t.Fatalf("expected animation enabled by default")
	}
	if cfg.CollapseDuration() != 150*time.Millisecond {
		t.Fatalf("unexpected collapse duration: %s", cfg.CollapseDuration())
	}
	if cfg.IndentDuration() != 200*time.Millisecond {
		t.Fatalf("unexpected indent duration: %s", cfg.IndentDuration())
	}
	if got := cfg.IndentParams(); got != (indent.Params{BaseIndent: 12, MinIndent: 3, MaxTreeLevel: -1}) {
		t.Fatalf("unexpected indent params: %+v", got)
	}
	if cfg.SyncBaseURL() != "http://127.0.0.1:7777" {
		t.Fatalf("unexpected sync base url: %q", cfg.SyncBaseURL())
	}
	if cfg.SyncSource() != SourceSSE || cfg.StoreBackend() != BackendBbolt {
		t.Fatalf("unexpected source/backend: %q %q", cfg.SyncSource(), cfg.StoreBackend())
	}
	if cfg.TrackTimeout() != 5*time.Second {
		t.Fatalf("unexpected track timeout: %s", cfg.TrackTimeout())
	}
	if cfg.ImmediateRefreshWindow() != 0 {
		t.Fatalf("unexpected refresh window: %s", cfg.ImmediateRefreshWindow())
	}
}

func TestLoadFromTOML(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)

	dataDir := filepath.Join(home, ".tabsync")
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := []byte(strings.Join([]string{
		"[animation]",
		"enabled = false",
		"collapse_duration_ms = 300",
		"[indent]",
		"base = 20",
		"min = 10",
		"max_tree_level = 4",
		"width_ratio = 0.5",
		"[sync]",
		"source = \"NATS\"",
		"address = \"http://127.0.0.1:9999/\"",
		"nats_subject = \"tabs.win1\"",
		"window_id = 3",
		"[store]",
		"backend = \"file\"",
		"path = \"indent.json\"",
		"[logging]",
		"level = \"debug\"",
	}, "\n"))
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), content, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AnimationEnabled() {
		t.Fatalf("expected animation disabled")
	}
	if cfg.CollapseDuration() != 300*time.Millisecond {
		t.Fatalf("unexpected collapse duration: %s", cfg.CollapseDuration())
	}
	if cfg.IndentDuration() != 200*time.Millisecond {
		t.Fatalf("unset keys keep defaults: %s", cfg.IndentDuration())
	}
	if got := cfg.IndentParams(); got != (indent.Params{BaseIndent: 20, MinIndent: 10, MaxTreeLevel: 4}) {
		t.Fatalf("unexpected indent params: %+v", got)
	}
	if cfg.WidthRatio() != 0.5 {
		t.Fatalf("unexpected width ratio: %v", cfg.WidthRatio())
	}
	if cfg.SyncAddress() != "127.0.0.1:9999" {
		t.Fatalf("unexpected sync address: %q", cfg.SyncAddress())
	}
	if cfg.SyncSource() != SourceNATS || cfg.NATSSubject() != "tabs.win1" || cfg.WindowID() != 3 {
		t.Fatalf("unexpected sync config: %+v", cfg.Sync)
	}
	if cfg.NATSURL() != "nats://127.0.0.1:4222" {
		t.Fatalf("unexpected nats url: %q", cfg.NATSURL())
	}
	path, err := cfg.StorePath()
	if err != nil {
		t.Fatalf("StorePath: %v", err)
	}
	if want := filepath.Join(dataDir, "indent.json"); path != want {
		t.Fatalf("unexpected store path: got=%q want=%q", path, want)
	}
	if cfg.StoreBackend() != BackendFile || cfg.LogLevel() != "debug" {
		t.Fatalf("unexpected store/logging: %q %q", cfg.StoreBackend(), cfg.LogLevel())
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[animation\nenabled = "), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestAccessorsNormalizeValues(t *testing.T) {
	cfg := Config{
		Indent: IndentConfig{
			Base:                     -1,
			MaxTreeLevel:             -7,
			WidthRatio:               3,
			MaxImmediateRefreshCount: -2,
			ImmediateRefreshWindowMS: -5,
		},
		Sync: SyncConfig{Address: "  "},
	}
	if got := cfg.IndentParams(); got.BaseIndent != 12 || got.MaxTreeLevel != -1 {
		t.Fatalf("unexpected params: %+v", got)
	}
	if cfg.WidthRatio() != 0.33 {
		t.Fatalf("unexpected ratio: %v", cfg.WidthRatio())
	}
	if cfg.MaxImmediateRefreshCount() != 0 || cfg.ImmediateRefreshWindow() != 0 {
		t.Fatalf("negative budgets should clamp to zero")
	}
	if cfg.SyncAddress() != "127.0.0.1:7777" || cfg.NATSSubject() != "tabsync.messages" {
		t.Fatalf("unexpected sync defaults: %q %q", cfg.SyncAddress(), cfg.NATSSubject())
	}
	if cfg.LogLevel() != "info" || cfg.SyncSource() != SourceSSE {
		t.Fatalf("unexpected defaults: %q %q", cfg.LogLevel(), cfg.SyncSource())
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.WindowID = 9
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), "collapse_duration_ms = 150") {
		t.Fatalf("unexpected encoding:\n%s", data)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded != cfg {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestWidthRatioRejectsNaN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[indent]\nwidth_ratio = nan\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if got := cfg.WidthRatio(); got != 0.33 {
		t.Fatalf("expected default ratio for nan, got %v", got)
	}
}
