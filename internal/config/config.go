package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

// Config is the application configuration of the pinning daemon.
type Config struct {
	DataDirectory string           `yaml:"data_directory" toml:"data_directory"`
	Registry      string           `yaml:"registry" toml:"registry"`
	Schedule      ScheduleConfig   `yaml:"schedule" toml:"schedule"`
	Publish       PublishConfig    `yaml:"publish" toml:"publish"`
	Drive         DriveConfig      `yaml:"drive" toml:"drive"`
	BlockStore    BlockStoreConfig `yaml:"block_store" toml:"block_store"`
	DNS           DNSConfig        `yaml:"dns" toml:"dns"`
	Notify        NotifyConfig     `yaml:"notify" toml:"notify"`
	Admin         AdminConfig      `yaml:"admin" toml:"admin"`
	Logging       LoggingConfig    `yaml:"logging" toml:"logging"`
}

// ScheduleConfig controls when passes run. Interval and Cron are mutually exclusive;
// a six-field Cron expression includes seconds.
type ScheduleConfig struct {
	Interval      string `yaml:"interval,omitempty" toml:"interval"`
	Cron          string `yaml:"cron,omitempty" toml:"cron"`
	WatchRegistry bool   `yaml:"watch_registry" toml:"watch_registry"`
}

// PublishConfig bounds the publication work of a pass.
type PublishConfig struct {
	MaxConcurrent      int    `yaml:"max_concurrent" toml:"max_concurrent"`
	WebsiteSyncTimeout string `yaml:"website_sync_timeout" toml:"website_sync_timeout"`
	// APISyncTimeout of zero leaves the budget to the drive publisher.
	APISyncTimeout    string `yaml:"api_sync_timeout" toml:"api_sync_timeout"`
	BlockStoreTimeout string `yaml:"block_store_timeout" toml:"block_store_timeout"`
}

// DriveConfig configures the peer-to-peer drive backend.
type DriveConfig struct {
	Disabled bool             `yaml:"disabled" toml:"disabled"`
	Command  string           `yaml:"command" toml:"command"`
	Args     []string         `yaml:"args,omitempty" toml:"args"`
	Store    DriveStoreConfig `yaml:"store" toml:"store"`
}

// DriveStoreConfig points at the drive storage registrar that keeps drives seeded.
type DriveStoreConfig struct {
	Server   string `yaml:"server" toml:"server"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
}

// BlockStoreConfig configures the content-addressed block store backend.
type BlockStoreConfig struct {
	Disabled bool           `yaml:"disabled" toml:"disabled"`
	Mode     BlockStoreMode `yaml:"mode" toml:"mode"`
	API      string         `yaml:"api" toml:"api"`
	Bin      string         `yaml:"bin" toml:"bin"`
}

// DNSConfig configures the DNS provider used for discovery records.
type DNSConfig struct {
	Provider string `yaml:"provider" toml:"provider"`
	APIURL   string `yaml:"api_url" toml:"api_url"`
	Token    string `yaml:"token" toml:"token"`
	TTL      int    `yaml:"ttl" toml:"ttl"`
}

// NotifyConfig enables publication announcements over NATS when NATSURL is set.
// With JetStream set, announcements are published with stream acknowledgement.
type NotifyConfig struct {
	NATSURL   string `yaml:"nats_url" toml:"nats_url"`
	Subject   string `yaml:"subject" toml:"subject"`
	JetStream bool   `yaml:"jetstream" toml:"jetstream"`
}

// AdminConfig enables the admin HTTP server when Listen is set.
type AdminConfig struct {
	Listen string `yaml:"listen" toml:"listen"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Load reads the configuration file at path, applies defaults and validates it.
// Files ending in .toml are decoded as TOML; everything else as YAML (which also
// accepts plain JSON).
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", path).
				WithCause(err).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read configuration file").
			Fatal().
			WithContext("path", path).
			Build()
	}

	cfg, err := Parse(path, []byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidatePaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes raw configuration bytes, applies defaults and validates the result.
// The file name only selects the decoder.
func Parse(name string, data []byte) (*Config, error) {
	var cfg Config
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		_, err = toml.Decode(string(data), &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to decode configuration").
			Fatal().
			WithContext("path", name).
			Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ProjectsDir returns the directory holding one sub-directory per project.
func (c *Config) ProjectsDir() string {
	return filepath.Join(c.DataDirectory, "projects")
}

// IntervalDuration returns the parsed pass interval; zero when a cron schedule is used.
func (s ScheduleConfig) IntervalDuration() time.Duration {
	return parseDuration(s.Interval, 0)
}

// WebsiteSyncBudget is the drive sync window for website trees.
func (p PublishConfig) WebsiteSyncBudget() time.Duration {
	return parseDuration(p.WebsiteSyncTimeout, DefaultWebsiteSyncTimeout)
}

// APISyncBudget is the drive sync window for API trees; zero means publisher default.
func (p PublishConfig) APISyncBudget() time.Duration {
	return parseDuration(p.APISyncTimeout, 0)
}

// BlockStoreBudget bounds a single block-store add.
func (p PublishConfig) BlockStoreBudget() time.Duration {
	return parseDuration(p.BlockStoreTimeout, DefaultBlockStoreTimeout)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// String renders a short summary for startup logs; secrets are omitted.
func (c *Config) String() string {
	schedule := c.Schedule.Cron
	if schedule == "" {
		schedule = "every " + c.Schedule.Interval
	}
	return fmt.Sprintf("data=%s registry=%s schedule=%q block_store=%s dns=%s",
		c.DataDirectory, c.Registry, schedule, c.BlockStore.Mode, c.DNS.Provider)
}
