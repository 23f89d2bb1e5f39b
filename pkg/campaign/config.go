package campaign

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CatalogConfig is the YAML seed file for the default campaign catalog.
type CatalogConfig struct {
	Campaigns []Spec `yaml:"campaigns"`
}

// LoadCatalogConfig loads campaign seeds from a YAML file.
// Supports environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
func LoadCatalogConfig(path string) (*CatalogConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog config %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg CatalogConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse catalog config: %w", err)
	}

	for i := range cfg.Campaigns {
		if err := cfg.Campaigns[i].Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i, cfg.Campaigns[i].Name, err)
		}
	}

	return &cfg, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
