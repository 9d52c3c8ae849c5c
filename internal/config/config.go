// Package config loads the optional override file. Everything nupatch needs
// is auto-detected; the file only exists for unusual installs (portable
// builds, custom prefixes) and for pinning the log level.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	nuerrors "nupatch/pkg/errors"
)

// Config overrides auto-detected paths and defaults.
type Config struct {
	// AppDir overrides the detected IDE resources/app directory.
	AppDir string `yaml:"app_dir" validate:"omitempty,dir"`
	// CLIAgentDir overrides the detected CLI agent versions directory.
	CLIAgentDir string `yaml:"cli_agent_dir" validate:"omitempty,dir"`
	// LogLevel pins the default log level.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// DefaultPath returns the standard location of the override file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nupatch", "config.yaml"), nil
}

// Load reads and validates the override file at path. A missing file is not
// an error; it yields the zero Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, nuerrors.NewReadError(path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := validatorInstance().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}
