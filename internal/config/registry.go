package config

import (
	"encoding/json"
	"os"

	"github.com/tidwall/jsonc"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

// Registry is the project registry (projects.json).
type Registry struct {
	Active []RegistryEntry `json:"active"`
}

// RegistryEntry names one active project.
type RegistryEntry struct {
	Name   string `json:"name,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// ProjectConfig is a project's own config.json.
type ProjectConfig struct {
	Domain string `json:"domain"`
}

// LoadRegistry reads the registry file. Comments and trailing commas are accepted.
func LoadRegistry(path string) (*Registry, error) {
	var reg Registry
	if err := readJSONC(path, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// LoadProjectConfig reads a project's config.json. A missing file yields an error
// satisfying errors.Is(err, fs.ErrNotExist).
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	var pc ProjectConfig
	if err := readJSONC(path, &pc); err != nil {
		return nil, err
	}
	if pc.Domain == "" {
		return nil, errors.ValidationError("project config has no domain").
			WithSeverity(errors.SeverityError).
			WithContext("path", path).
			Build()
	}
	return &pc, nil
}

func readJSONC(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewError(errors.CategoryNotFound, "file not found").
				WithContext("path", path).
				WithCause(err).
				Build()
		}
		return errors.FileSystemError("failed to read file").
			WithContext("path", path).
			WithCause(err).
			Build()
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), v); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to parse JSON").
			WithContext("path", path).
			Build()
	}
	return nil
}
