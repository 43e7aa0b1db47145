package config

import (
	_ "embed"
	"encoding/json"
)

//go:embed default_config.json
var defaultConfigJSON []byte

// DefaultConfigJSON returns the canonical default configuration document,
// written verbatim when `winnow init` targets a .json path
func DefaultConfigJSON() []byte {
	return defaultConfigJSON
}

// ParseDefaultConfig decodes the embedded default document. It exists so a
// test can prove the embedded file and DefaultConfig() agree.
func ParseDefaultConfig() (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
