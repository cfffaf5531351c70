package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultInterval           = "15m"
	DefaultWebsiteSyncTimeout = 10 * time.Minute
	DefaultBlockStoreTimeout  = 60 * time.Second
	DefaultMaxConcurrent      = 4
	DefaultDNSTTL             = 300
	DefaultDNSProvider        = "digitalocean"
	DefaultDigitalOceanAPI    = "https://api.digitalocean.com/v2"
	DefaultKuboAPI            = "http://127.0.0.1:5001"
	DefaultIPFSBin            = "ipfs"
	DefaultDriveCommand       = "hyperdrive-publisher"
	DefaultNotifySubject      = "pinningd.published"
)

// BaseDir is the per-user configuration directory (~/.distributed-press).
func BaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".distributed-press"
	}
	return filepath.Join(home, ".distributed-press")
}

// DefaultConfigPath is the configuration file used when none is given.
func DefaultConfigPath() string {
	return filepath.Join(BaseDir(), "config.yaml")
}

func (c *Config) applyDefaults() {
	if c.DataDirectory == "" {
		c.DataDirectory = filepath.Join(BaseDir(), "data")
	}
	if c.Registry == "" {
		c.Registry = filepath.Join(BaseDir(), "projects.json")
	}
	if c.Schedule.Interval == "" && c.Schedule.Cron == "" {
		c.Schedule.Interval = DefaultInterval
	}
	if c.Publish.MaxConcurrent <= 0 {
		c.Publish.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.Drive.Command == "" {
		c.Drive.Command = DefaultDriveCommand
	}
	c.BlockStore.Mode = NormalizeBlockStoreMode(string(c.BlockStore.Mode))
	if c.BlockStore.API == "" {
		c.BlockStore.API = DefaultKuboAPI
	}
	if c.BlockStore.Bin == "" {
		c.BlockStore.Bin = DefaultIPFSBin
	}
	if c.DNS.Provider == "" {
		c.DNS.Provider = DefaultDNSProvider
	}
	if c.DNS.APIURL == "" {
		c.DNS.APIURL = DefaultDigitalOceanAPI
	}
	if c.DNS.TTL <= 0 {
		c.DNS.TTL = DefaultDNSTTL
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = DefaultNotifySubject
	}
	c.Logging.Level = string(NormalizeLogLevel(c.Logging.Level))
	c.Logging.Format = string(NormalizeLogFormat(c.Logging.Format))
}
