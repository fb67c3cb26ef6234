// Package config defines the runtime configuration, loadable from YAML.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config controls runtime behavior.
type Config struct {
	// Stdlib injects the host function library into the root environment.
	Stdlib bool `yaml:"stdlib"`
	// EchoPlan writes each query plan's textual form to the output sink.
	EchoPlan bool `yaml:"echoPlan"`
	// OutputCap bounds the output sink; zero means unbounded.
	OutputCap int `yaml:"outputCap"`
	// LogLevel is a logrus level name; empty means "info".
	LogLevel string `yaml:"logLevel"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Stdlib:   true,
		EchoPlan: true,
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults. Unknown keys are
// rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config: %w", err)
	}
	if err := Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Unmarshal strictly decodes YAML into a config; unknown keys are errors.
func Unmarshal(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
