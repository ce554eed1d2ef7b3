// Package config provides configuration loading and validation for the loi-watcher commands.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/loi-watcher/internal/logger"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config is the explicit configuration handed to the sync pipeline.
// It can be loaded from a JSON or YAML file, overridden from the environment,
// and finally overridden by CLI flags.
type Config struct {
	// Source page
	SourceURL           string `json:"source_url,omitempty" yaml:"source_url,omitempty" validate:"required,url"`
	MainSelector        string `json:"main_selector,omitempty" yaml:"main_selector,omitempty" validate:"required"`
	UseBrowser          bool   `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`
	FetchTimeoutSeconds int    `json:"fetch_timeout_seconds,omitempty" yaml:"fetch_timeout_seconds,omitempty" validate:"min=1,max=300"`

	Storage StorageConfig `json:"storage" yaml:"storage"`
	Redis   RedisConfig   `json:"redis" yaml:"redis"`
	Publish PublishConfig `json:"publish" yaml:"publish"`
	Post    PostConfig    `json:"post" yaml:"post"`

	// Schedule is a 5-field cron expression used by the watch command.
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty" validate:"required"`

	Log logger.Config `json:"log" yaml:"log"`

	// Behavior
	DryRun  bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// StorageConfig selects where the baseline snapshot lives.
type StorageConfig struct {
	Driver      string `json:"driver,omitempty" yaml:"driver,omitempty" validate:"oneof=file postgres redis"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty" validate:"required_if=Driver file"`
	Key         string `json:"key,omitempty" yaml:"key,omitempty" validate:"required"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty" validate:"required_if=Driver postgres"`
}

// RedisConfig holds the connection used for change streams and the redis store.
type RedisConfig struct {
	Address  string `json:"address,omitempty" yaml:"address,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty" validate:"min=0,max=15"`
}

// PublishConfig controls fan-out of change events.
type PublishConfig struct {
	Stream      string `json:"stream,omitempty" yaml:"stream,omitempty" validate:"required"`
	Concurrency int    `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"min=1,max=64"`
	MaxLen      int64  `json:"max_len,omitempty" yaml:"max_len,omitempty" validate:"min=0"`
}

// PostConfig controls how change messages are rendered for social posts.
type PostConfig struct {
	Link      string `json:"link,omitempty" yaml:"link,omitempty" validate:"omitempty,url"`
	MaxLength int    `json:"max_length,omitempty" yaml:"max_length,omitempty" validate:"min=20"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		MainSelector:        "#block-system-main",
		FetchTimeoutSeconds: 30,
		Storage: StorageConfig{
			Driver: DriverFile,
			Path:   filepath.Join("var", "locations-of-interest.json"),
			Key:    "locations-of-interest.json",
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		Publish: PublishConfig{
			Stream:      "loi:changes",
			Concurrency: 8,
		},
		Post: PostConfig{
			MaxLength: 250,
		},
		Schedule: "*/15 * * * *",
		Log: logger.Config{
			Level: "info",
		},
	}
}

// FetchTimeout returns the fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// LoadConfig loads configuration from a JSON or YAML file. The format is
// chosen by extension; anything other than .yaml/.yml is read as JSON.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv; unset variables leave the field untouched.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strVars := map[string]*string{
		"LOI_PAGE_URL":      &c.SourceURL,
		"LOI_MAIN_SELECTOR": &c.MainSelector,
		"STORAGE_DRIVER":    &c.Storage.Driver,
		"STORAGE_PATH":      &c.Storage.Path,
		"STORAGE_KEY":       &c.Storage.Key,
		"DATABASE_URL":      &c.Storage.DatabaseURL,
		"REDIS_ADDRESS":     &c.Redis.Address,
		"REDIS_PASSWORD":    &c.Redis.Password,
		"CHANGES_STREAM":    &c.Publish.Stream,
		"LOI_SCHEDULE":      &c.Schedule,
		"LOG_LEVEL":         &c.Log.Level,
		"POST_LINK":         &c.Post.Link,
	}
	for name, field := range strVars {
		if v, ok := lookup(name); ok && v != "" {
			*field = v
		}
	}

	intVars := map[string]*int{
		"REDIS_DB":            &c.Redis.DB,
		"PUBLISH_CONCURRENCY": &c.Publish.Concurrency,
	}
	for name, field := range intVars {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: %s must be an integer: %w", name, err)
		}
		*field = n
	}

	if v, ok := lookup("LOI_USE_BROWSER"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config error: LOI_USE_BROWSER must be a boolean: %w", err)
		}
		c.UseBrowser = b
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.SourceURL, defaults.SourceURL)
	mergeString(&result.MainSelector, defaults.MainSelector)
	mergeString(&result.Schedule, defaults.Schedule)
	mergeString(&result.Storage.Driver, defaults.Storage.Driver)
	mergeString(&result.Storage.Path, defaults.Storage.Path)
	mergeString(&result.Storage.Key, defaults.Storage.Key)
	mergeString(&result.Storage.DatabaseURL, defaults.Storage.DatabaseURL)
	mergeString(&result.Redis.Address, defaults.Redis.Address)
	mergeString(&result.Redis.Password, defaults.Redis.Password)
	mergeString(&result.Publish.Stream, defaults.Publish.Stream)
	mergeString(&result.Post.Link, defaults.Post.Link)
	mergeString(&result.Log.Level, defaults.Log.Level)

	if result.FetchTimeoutSeconds == 0 {
		result.FetchTimeoutSeconds = defaults.FetchTimeoutSeconds
	}
	if result.Publish.Concurrency == 0 {
		result.Publish.Concurrency = defaults.Publish.Concurrency
	}
	if result.Publish.MaxLen == 0 {
		result.Publish.MaxLen = defaults.Publish.MaxLen
	}
	if result.Post.MaxLength == 0 {
		result.Post.MaxLength = defaults.Post.MaxLength
	}
	if len(result.Log.OutputPaths) == 0 {
		result.Log.OutputPaths = defaults.Log.OutputPaths
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func mergeString(field *string, def string) {
	if *field == "" {
		*field = def
	}
}
