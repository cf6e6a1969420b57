// Package config loads and normalises iVideo configuration files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Its-donkey/ivideo/internal/ui/storage"
	"github.com/Its-donkey/ivideo/logging"
)

const (
	defaultAPIBase        = "http://127.0.0.1:8881"
	defaultTimeoutSeconds = 8
	defaultCatalogTries   = 3
	defaultStorageDriver  = storage.DriverFile
	defaultStoragePath    = "data/ivideo/store.json"
	defaultLogLevel       = "info"
	defaultListen         = "127.0.0.1:8880"
	defaultDevAPIListen   = "127.0.0.1:8881"

	// EnvAPIBase overrides api.base_url.
	EnvAPIBase = "IVIDEO_API_BASE"
	// EnvListen overrides server.listen.
	EnvListen = "IVIDEO_LISTEN"
)

// APIConfig points the client at the video service.
type APIConfig struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	// CatalogMaxTries bounds attempts per catalog fetch. 1 disables retries.
	CatalogMaxTries int `json:"catalog_max_tries" yaml:"catalog_max_tries"`
}

// Timeout returns the request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StorageConfig selects where the session token is kept.
type StorageConfig struct {
	Driver        string `json:"driver" yaml:"driver"`
	Path          string `json:"path" yaml:"path"`
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`
}

// Store converts the section into storage options.
func (c StorageConfig) Store() storage.Config {
	return storage.Config{
		Driver:        c.Driver,
		Path:          c.Path,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
	}
}

// LogConfig configures the structured logger. An empty Dir logs to stdout only.
type LogConfig struct {
	Level     string `json:"level" yaml:"level"`
	Dir       string `json:"dir" yaml:"dir"`
	MaxSizeMB int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxFiles  int    `json:"max_files" yaml:"max_files"`
}

// ServerConfig configures the preview server listener.
type ServerConfig struct {
	Listen string `json:"listen" yaml:"listen"`
}

// DevAPIConfig configures the development video service.
type DevAPIConfig struct {
	Listen string `json:"listen" yaml:"listen"`
	Seed   int64  `json:"seed" yaml:"seed"`
}

// Config represents the combined runtime settings.
type Config struct {
	API     APIConfig     `json:"api" yaml:"api"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	DevAPI  DevAPIConfig  `json:"devapi" yaml:"devapi"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.normalise()
	return cfg
}

// Load reads the config at path. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON. An empty path yields the defaults. Environment
// overrides are applied last.
func Load(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("decode config: %w", err)
			}
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("decode config: %w", err)
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvAPIBase)); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		cfg.Server.Listen = v
	}

	cfg.normalise()
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return Config{}, fmt.Errorf("log: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalise() {
	c.API.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBase
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.API.CatalogMaxTries <= 0 {
		c.API.CatalogMaxTries = defaultCatalogTries
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaultStorageDriver
	}
	if c.Storage.Path == "" && c.Storage.Driver == storage.DriverFile {
		c.Storage.Path = defaultStoragePath
	}

	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = defaultLogLevel
	}

	if strings.TrimSpace(c.Server.Listen) == "" {
		c.Server.Listen = defaultListen
	}
	if strings.TrimSpace(c.DevAPI.Listen) == "" {
		c.DevAPI.Listen = defaultDevAPIListen
	}
}

// Logger builds the structured logger described by the log section. With a log
// directory, entries go to <component>.log and outbound requests are also
// copied to <component>-fetch.log. The returned close function closes the file
// sinks, if any.
func (c Config) Logger(component string) (*logging.Logger, func() error, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if c.Log.Dir == "" {
		return logging.New(component, level, os.Stdout), func() error { return nil }, nil
	}
	mainLog, err := logging.NewFileWriter(c.Log.Dir, component+".log", c.Log.MaxSizeMB, c.Log.MaxFiles)
	if err != nil {
		return nil, nil, err
	}
	fetch, err := logging.NewFileWriter(c.Log.Dir, component+"-fetch.log", c.Log.MaxSizeMB, c.Log.MaxFiles)
	if err != nil {
		mainLog.Close()
		return nil, nil, err
	}
	logger := logging.New(component, level, os.Stdout, mainLog)
	logger.SetCategoryWriter("fetch", fetch)
	closeFn := func() error {
		return errors.Join(mainLog.Close(), fetch.Close())
	}
	return logger, closeFn, nil
}
