package adapter

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pixeval/pixterm/internal/domain"
	"github.com/spf13/viper"
)

func TestConfig_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Library.Dir = "/data/pixiv"
	cfg.Grid.PreloadRows = 5
	cfg.Grid.ThumbnailDirection = "portrait"
	cfg.Thumbnails.RetryFailed = true

	if err := saveConfig(viper.New(), dir, cfg); err != nil {
		t.Fatalf("saveConfig failed: %v", err)
	}
	loaded, err := loadConfig(viper.New(), dir)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if loaded.Library.Dir != "/data/pixiv" || loaded.Grid.PreloadRows != 5 || !loaded.Thumbnails.RetryFailed {
		t.Errorf("Expected saved values to round trip, got %+v", loaded)
	}
	if loaded.Direction() != domain.DirectionPortrait {
		t.Errorf("Expected portrait, got %s", loaded.Direction())
	}
}

func TestConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := loadConfig(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.IsConfigured() {
		t.Error("Expected fresh config to be unconfigured")
	}
	if cfg.Grid.PreloadRows != 3 || cfg.Grid.PageSize != 20 || cfg.Thumbnails.RetryFailed {
		t.Errorf("Unexpected defaults: %+v", cfg.Grid)
	}
	if cfg.Direction() != domain.DirectionLandscape {
		t.Errorf("Expected landscape default, got %s", cfg.Direction())
	}
}

func TestConfig_EnvOverride(t *testing.T) {
	t.Setenv("PIXTERM_LIBRARY_DIR", "/from/env")
	cfg, err := loadConfig(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Library.Dir != "/from/env" {
		t.Errorf("Expected env override, got %q", cfg.Library.Dir)
	}
}

func TestConfig_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("grid:\n  preload_rows: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	v := viper.New()
	if _, err := loadConfig(v, dir); err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	reloaded := make(chan *Config, 16)
	ok := watchConfig(v, slog.New(slog.DiscardHandler), func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if !ok {
		t.Fatal("Expected the loaded config file to be watched")
	}

	if err := os.WriteFile(path, []byte("grid:\n  preload_rows: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if cfg.Grid.PreloadRows == 7 {
				return
			}
		case <-timeout:
			t.Fatal("Expected the change to be reloaded")
		}
	}
}

func TestConfig_WatchWithoutFile(t *testing.T) {
	v := viper.New()
	if _, err := loadConfig(v, t.TempDir()); err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if watchConfig(v, slog.New(slog.DiscardHandler), func(*Config) {}) {
		t.Error("Expected nothing to watch without a config file")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, domain.ErrLibraryNotConfigured) {
		t.Errorf("Expected ErrLibraryNotConfigured, got %v", err)
	}
	cfg.Library.Dir = filepath.Join(t.TempDir(), "missing")
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for a missing directory")
	}
	cfg.Library.Dir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupLogger_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pixterm.log")
	logger, closer, err := SetupLogger(&LoggingConfig{File: path, Level: "debug"})
	if err != nil {
		t.Fatalf("SetupLogger failed: %v", err)
	}
	logger.Debug("hello", "items", 3)
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file, got %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) || !strings.Contains(string(data), `"items":3`) {
		t.Errorf("Expected JSON record, got %s", data)
	}
}

func TestSetupLogger_RotatesLargeLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixterm.log")
	os.WriteFile(path, make([]byte, maxLogSize), 0644)

	_, closer, err := SetupLogger(&LoggingConfig{File: path})
	if err != nil {
		t.Fatalf("SetupLogger failed: %v", err)
	}
	closer.Close()

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("Expected previous log to be kept, got %v", err)
	}
	if info, _ := os.Stat(path); info.Size() != 0 {
		t.Errorf("Expected a fresh log, got %d bytes", info.Size())
	}
}

func stubOpener(t *testing.T) *[]string {
	t.Helper()
	var calls []string
	origURL, origFile, origClip, origStart, origLook := openURL, openFile, writeClipboard, startCommand, lookPath
	t.Cleanup(func() {
		openURL, openFile, writeClipboard, startCommand, lookPath = origURL, origFile, origClip, origStart, origLook
	})
	openURL = func(u string) error { calls = append(calls, "url:"+u); return nil }
	openFile = func(p string) error { calls = append(calls, "file:"+p); return nil }
	writeClipboard = func(s string) error { calls = append(calls, "clip:"+s); return nil }
	startCommand = func(name string, args ...string) error {
		calls = append(calls, "exec:"+name+" "+strings.Join(args, " "))
		return nil
	}
	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	return &calls
}

func TestOpener_ConfiguredViewer(t *testing.T) {
	calls := stubOpener(t)
	o := NewOpener("imv", []string{"-f"}, nil)

	if err := o.OpenFile("/lib/1.png"); err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if len(*calls) != 1 || (*calls)[0] != "exec:imv -f /lib/1.png" {
		t.Errorf("Expected configured viewer, got %v", *calls)
	}
}

func TestOpener_FallsBackToSystemDefault(t *testing.T) {
	calls := stubOpener(t)
	o := NewOpener("", nil, nil)

	o.OpenFile("/lib/3.txt")
	o.OpenURL("https://www.pixiv.net/artworks/1")
	o.Copy("pixeval://illust/1")

	want := []string{"file:/lib/3.txt", "url:https://www.pixiv.net/artworks/1", "clip:pixeval://illust/1"}
	if strings.Join(*calls, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, *calls)
	}
}

func TestOpener_CopyError(t *testing.T) {
	stubOpener(t)
	writeClipboard = func(string) error { return errors.New("no xclip") }
	if err := NewOpener("", nil, nil).Copy("x"); err == nil {
		t.Error("Expected clipboard error to surface")
	}
}
