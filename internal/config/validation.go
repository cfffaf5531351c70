package config

import (
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

// Validate checks the decoded configuration for internal consistency.
func (c *Config) Validate() error {
	interval := strings.TrimSpace(c.Schedule.Interval)
	cron := strings.TrimSpace(c.Schedule.Cron)
	if interval != "" && cron != "" {
		return errors.ValidationError("schedule.interval and schedule.cron are mutually exclusive").Build()
	}
	if interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid schedule.interval").
				Fatal().WithContext("value", interval).Build()
		}
		if d <= 0 {
			return errors.ValidationError("schedule.interval must be positive").
				WithContext("value", interval).Build()
		}
	}
	if cron != "" {
		if n := len(strings.Fields(cron)); n != 5 && n != 6 {
			return errors.ValidationError("schedule.cron must have 5 or 6 fields").
				WithContext("value", cron).Build()
		}
	}

	for field, raw := range map[string]string{
		"publish.website_sync_timeout": c.Publish.WebsiteSyncTimeout,
		"publish.api_sync_timeout":     c.Publish.APISyncTimeout,
		"publish.block_store_timeout":  c.Publish.BlockStoreTimeout,
	} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if d, err := time.ParseDuration(strings.TrimSpace(raw)); err != nil || d < 0 {
			return errors.ValidationError("invalid duration").
				WithContext("field", field).
				WithContext("value", raw).
				Build()
		}
	}

	if c.DNS.Provider != DefaultDNSProvider {
		return errors.ValidationError("unsupported dns.provider").
			WithContext("value", c.DNS.Provider).Build()
	}
	return nil
}

// ValidatePaths ensures the data directory and its projects directory exist.
// A missing directory is a ConfigurationMissing failure: fatal at startup.
func (c *Config) ValidatePaths() error {
	for _, dir := range []string{c.DataDirectory, c.ProjectsDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			return errors.ConfigError("required directory not found").
				WithContext("path", dir).
				WithCause(err).
				Build()
		}
		if !info.IsDir() {
			return errors.ConfigError("required path is not a directory").
				WithContext("path", dir).
				Build()
		}
	}
	return nil
}
