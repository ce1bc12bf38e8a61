package adapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pixeval/pixterm/internal/domain"
	"github.com/spf13/viper"
)

// envKeyReplacer maps nested keys to env names (library.dir -> LIBRARY_DIR)
var envKeyReplacer = strings.NewReplacer(".", "_")

// Config holds all application configuration
type Config struct {
	Library    LibraryConfig    `mapstructure:"library"`
	Grid       GridConfig       `mapstructure:"grid"`
	Thumbnails ThumbnailsConfig `mapstructure:"thumbnails"`
	Viewer     ViewerConfig     `mapstructure:"viewer"`
	UI         UIConfig         `mapstructure:"ui"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// LibraryConfig points at the downloaded works
type LibraryConfig struct {
	Dir string `mapstructure:"dir"`
}

// GridConfig holds grid layout and loading preferences
type GridConfig struct {
	PreloadRows        int    `mapstructure:"preload_rows"`        // clamped to [1, 15]
	ThumbnailDirection string `mapstructure:"thumbnail_direction"` // "landscape" or "portrait"
	PageSize           int    `mapstructure:"page_size"`           // load-on-scroll page size
	Animations         bool   `mapstructure:"animations"`
}

// ThumbnailsConfig holds thumbnail pipeline settings
type ThumbnailsConfig struct {
	CacheItems  int    `mapstructure:"cache_items"`
	Workers     int    `mapstructure:"workers"`
	RetryFailed bool   `mapstructure:"retry_failed"`
	Dither      bool   `mapstructure:"dither"`
	Protocol    string `mapstructure:"protocol"` // "auto" or "halfblocks"
}

// ViewerConfig holds the external image viewer used for original files
type ViewerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme       string `mapstructure:"theme"`
	ShowSidebar bool   `mapstructure:"show_sidebar"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			PreloadRows:        3,
			ThumbnailDirection: string(domain.DirectionLandscape),
			PageSize:           20,
			Animations:         true,
		},
		Thumbnails: ThumbnailsConfig{
			CacheItems: 256,
			Workers:    4,
			Dither:     true,
			Protocol:   "auto",
		},
		Viewer: ViewerConfig{
			Args: []string{},
		},
		UI: UIConfig{
			Theme:       "default",
			ShowSidebar: true,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// Direction returns the configured thumbnail direction
func (c *Config) Direction() domain.ThumbnailDirection {
	if c.Grid.ThumbnailDirection == string(domain.DirectionPortrait) {
		return domain.DirectionPortrait
	}
	return domain.DirectionLandscape
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "pixterm", "pixterm.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "pixterm", "pixterm.log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "pixterm")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "pixterm")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	return loadConfig(viper.GetViper(), defaultConfigPath())
}

func loadConfig(v *viper.Viper, dir string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(".")

	// Environment variable overrides, e.g. PIXTERM_LIBRARY_DIR
	v.SetEnvPrefix("PIXTERM")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	v.BindEnv("library.dir")
	v.BindEnv("logging.level")

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// WatchConfig re-reads the config file whenever it is written and passes
// the decoded result to onChange, which runs on the watcher goroutine.
// Returns false when no config file was loaded.
func WatchConfig(logger *slog.Logger, onChange func(*Config)) bool {
	return watchConfig(viper.GetViper(), logger, onChange)
}

func watchConfig(v *viper.Viper, logger *slog.Logger, onChange func(*Config)) bool {
	if v.ConfigFileUsed() == "" {
		return false
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg := DefaultConfig()
		if err := v.Unmarshal(cfg); err != nil {
			logger.Warn("ignoring unreadable config change", "file", e.Name, "error", err)
			return
		}
		logger.Info("config reloaded", "file", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
	return true
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	return saveConfig(viper.GetViper(), defaultConfigPath(), cfg)
}

func saveConfig(v *viper.Viper, dir string, cfg *Config) error {
	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("library.dir", cfg.Library.Dir)

	v.Set("grid.preload_rows", cfg.Grid.PreloadRows)
	v.Set("grid.thumbnail_direction", cfg.Grid.ThumbnailDirection)
	v.Set("grid.page_size", cfg.Grid.PageSize)
	v.Set("grid.animations", cfg.Grid.Animations)

	v.Set("thumbnails.cache_items", cfg.Thumbnails.CacheItems)
	v.Set("thumbnails.workers", cfg.Thumbnails.Workers)
	v.Set("thumbnails.retry_failed", cfg.Thumbnails.RetryFailed)
	v.Set("thumbnails.dither", cfg.Thumbnails.Dither)
	v.Set("thumbnails.protocol", cfg.Thumbnails.Protocol)

	v.Set("viewer.command", cfg.Viewer.Command)
	v.Set("viewer.args", cfg.Viewer.Args)

	v.Set("ui.theme", cfg.UI.Theme)
	v.Set("ui.show_sidebar", cfg.UI.ShowSidebar)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the library directory is set
func (c *Config) IsConfigured() bool {
	return c.Library.Dir != ""
}

// Validate checks that the library directory exists
func (c *Config) Validate() error {
	if !c.IsConfigured() {
		return domain.ErrLibraryNotConfigured
	}
	info, err := os.Stat(c.Library.Dir)
	if err != nil {
		return fmt.Errorf("library directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("library directory %s is not a directory", c.Library.Dir)
	}
	return nil
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "pixterm", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "pixterm", "cache")
	}
}

// ClearCache removes the catalog database and every cached thumbnail
func ClearCache() error {
	cachePath := defaultCachePath()
	if err := os.RemoveAll(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// GetCachePath returns the cache directory path
func GetCachePath() string {
	return defaultCachePath()
}
