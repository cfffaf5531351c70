package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/renameio"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

// Example returns a configuration with every section filled in, for `init`.
func Example() Config {
	base := BaseDir()
	return Config{
		DataDirectory: filepath.Join(base, "data"),
		Registry:      filepath.Join(base, "projects.json"),
		Schedule:      ScheduleConfig{Interval: DefaultInterval},
		Publish: PublishConfig{
			MaxConcurrent:      DefaultMaxConcurrent,
			WebsiteSyncTimeout: DefaultWebsiteSyncTimeout.String(),
			BlockStoreTimeout:  DefaultBlockStoreTimeout.String(),
		},
		Drive: DriveConfig{
			Command: DefaultDriveCommand,
			Store: DriveStoreConfig{
				Server:   "https://drive-store.example.com",
				Username: "press",
				Password: "${DRIVE_STORE_PASSWORD}",
			},
		},
		BlockStore: BlockStoreConfig{Mode: BlockStoreHTTP, API: DefaultKuboAPI, Bin: DefaultIPFSBin},
		DNS: DNSConfig{
			Provider: DefaultDNSProvider,
			APIURL:   DefaultDigitalOceanAPI,
			Token:    "${DIGITALOCEAN_TOKEN}",
			TTL:      DefaultDNSTTL,
		},
		Notify:  NotifyConfig{Subject: DefaultNotifySubject},
		Admin:   AdminConfig{Listen: "127.0.0.1:8089"},
		Logging: LoggingConfig{Level: string(LogLevelInfo), Format: string(LogFormatText)},
	}
}

// Init writes the example configuration to configPath, as TOML when the path
// ends in .toml and YAML otherwise. An existing file is kept unless force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Example()
	var data []byte
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(example); err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to encode configuration").Build()
		}
		data = buf.Bytes()
	} else {
		out, err := yaml.Marshal(&example)
		if err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to encode configuration").Build()
		}
		data = out
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.FileSystemError("failed to create configuration directory").
			WithContext("path", configPath).
			WithCause(err).
			Build()
	}
	if err := renameio.WriteFile(configPath, data, 0o600); err != nil {
		return errors.FileSystemError("failed to write configuration file").
			WithContext("path", configPath).
			WithCause(err).
			Build()
	}
	return nil
}
