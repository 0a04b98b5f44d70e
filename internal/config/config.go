package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Thumbs   ThumbConfig    `yaml:"thumbnails"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// IngestConfig holds the watch root and scan behavior settings.
type IngestConfig struct {
	WatchRoot       string   `yaml:"watch_root"`
	FilenamePattern string   `yaml:"filename_pattern"`
	Extensions      []string `yaml:"extensions"`
	WatchMode       string   `yaml:"watch_mode"` // "poll" or "notify"
	PollIntervalSec int      `yaml:"poll_interval_sec"`
	MinFileAgeSec   int      `yaml:"min_file_age_sec"`
	RecentWindowMin int      `yaml:"recent_window_min"`
	NGPreviewCount  int      `yaml:"ng_preview_count"`
	UTCOffsetMin    int      `yaml:"utc_offset_min"`
}

// ThumbConfig holds thumbnail cache settings.
type ThumbConfig struct {
	Dir    string `yaml:"dir"`
	MaxDim int    `yaml:"max_dim"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	FilePath string `yaml:"file_path"`
}

// DefaultFilenamePattern matches OK/NG inspection captures such as
// OK-20240101-080000-12.jpg.
const DefaultFilenamePattern = `^(?i)(?P<pass>OK|NG)-(?P<date>\d{8})-(?P<time>\d{6})-(?P<count>\d+)\.(?:jpg|jpeg|png)$`

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8000,
			BasePath: "",
		},
		Database: DatabaseConfig{
			Path: "/state/yieldwatch.db",
		},
		Ingest: IngestConfig{
			WatchRoot:       "/data",
			FilenamePattern: DefaultFilenamePattern,
			Extensions:      []string{".jpg", ".jpeg", ".png"},
			WatchMode:       "poll",
			PollIntervalSec: 60,
			MinFileAgeSec:   2,
			RecentWindowMin: 1440,
			NGPreviewCount:  3,
			UTCOffsetMin:    480, // +08:00
		},
		Thumbs: ThumbConfig{
			Dir:    "/state/thumbs",
			MaxDim: 512,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Location returns the fixed local offset used to interpret timestamps that
// carry no explicit zone.
func (c *Config) Location() *time.Location {
	min := c.Ingest.UTCOffsetMin
	sign := "+"
	if min < 0 {
		sign = "-"
		min = -min
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, min/60, min%60)
	return time.FixedZone(name, c.Ingest.UTCOffsetMin*60)
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("YW_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("YW_BASE_PATH"); v != "" {
		c.Server.BasePath = v
	}
	if v := os.Getenv("YW_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("YW_WATCH_DIR"); v != "" {
		c.Ingest.WatchRoot = v
	}
	if v := os.Getenv("YW_FILENAME_REGEX"); v != "" {
		c.Ingest.FilenamePattern = v
	}
	if v := os.Getenv("YW_WATCH_MODE"); v != "" {
		c.Ingest.WatchMode = v
	}
	if v := os.Getenv("YW_POLL_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Ingest.PollIntervalSec = n
		}
	}
	if v := os.Getenv("YW_MIN_FILE_AGE_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Ingest.MinFileAgeSec = n
		}
	}
	if v := os.Getenv("YW_RECENT_MTIME_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Ingest.RecentWindowMin = n
		}
	}
	if v := os.Getenv("YW_NG_PREVIEW_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Ingest.NGPreviewCount = n
		}
	}
	if v := os.Getenv("YW_UTC_OFFSET_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Ingest.UTCOffsetMin = n
		}
	}
	if v := os.Getenv("YW_THUMB_DIR"); v != "" {
		c.Thumbs.Dir = v
	}
	if v := os.Getenv("YW_THUMB_MAX_DIM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Thumbs.MaxDim = n
		}
	}
	if v := os.Getenv("YW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("YW_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("YW_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Ingest.WatchRoot == "" {
		return fmt.Errorf("watch root is required")
	}
	if c.Ingest.WatchMode != "poll" && c.Ingest.WatchMode != "notify" {
		return fmt.Errorf("watch mode must be %q or %q", "poll", "notify")
	}
	if c.Ingest.PollIntervalSec < 1 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Ingest.NGPreviewCount < 0 {
		return fmt.Errorf("ng preview count must not be negative")
	}
	if len(c.Ingest.Extensions) == 0 {
		return fmt.Errorf("at least one image extension is required")
	}
	for i, ext := range c.Ingest.Extensions {
		if !strings.HasPrefix(ext, ".") {
			c.Ingest.Extensions[i] = "." + ext
		}
	}
	if c.Thumbs.MaxDim < 1 {
		return fmt.Errorf("thumbnail max dimension must be positive")
	}
	c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")
	return nil
}
