package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jo-hoe/cropdoctor/internal/common"
	"github.com/labstack/gommon/bytes"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 5000
	DefaultUploadDirectory = "static/uploads"
	DefaultUploadURLPrefix = "/static/uploads"
	DefaultTitle           = "Crop Disease Predictor"
)

// CheckConfig represents a generic image check configuration
type CheckConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

// LabelConfig is one entry of the label table. Solution may be empty.
type LabelConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Solution string `yaml:"solution"`
}

type Database struct {
	Type             string `yaml:"type" validate:"omitempty,oneof=sqlite redis none"`
	ConnectionString string `yaml:"connectionString"`
}

type ServiceConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	Title           string        `yaml:"title"`
	UploadDirectory string        `yaml:"uploadDirectory" validate:"required"`
	UploadURLPrefix string        `yaml:"uploadURLPrefix" validate:"required"`
	MaxUploadSize   string        `yaml:"maxUploadSize"`
	Labels          []LabelConfig `yaml:"labels" validate:"dive"`
	Checks          []CheckConfig `yaml:"checks"`
	Database        Database      `yaml:"database"`
}

// DefaultConfig returns the configuration used when no config file is present.
func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Host:            DefaultHost,
		Port:            DefaultPort,
		Title:           DefaultTitle,
		UploadDirectory: DefaultUploadDirectory,
		UploadURLPrefix: DefaultUploadURLPrefix,
		MaxUploadSize:   "16M",
		Labels:          DefaultLabels(),
		Checks:          []CheckConfig{{Name: "DecodeCheck"}},
		Database:        Database{Type: "sqlite", ConnectionString: ":memory:"},
	}
}

// LoadConfig loads configuration from the specified YAML file. Fields missing
// from the file keep their defaults.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := DefaultConfig()
	// Labels and checks are replaced as a whole when present in the file
	config.Labels = nil
	config.Checks = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	if len(config.Labels) == 0 {
		config.Labels = DefaultLabels()
	}
	if len(config.Checks) == 0 {
		config.Checks = []CheckConfig{{Name: "DecodeCheck"}}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return config, nil
}

// LoadConfigOrDefault behaves like LoadConfig but returns DefaultConfig when
// the file does not exist.
func LoadConfigOrDefault(configPath string) (*ServiceConfig, error) {
	config, err := LoadConfig(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return config, err
}

// Validate checks struct constraints, label and check names.
func (config *ServiceConfig) Validate() error {
	if err := common.ValidateStruct(config); err != nil {
		return err
	}
	if !strings.HasPrefix(config.UploadURLPrefix, "/") {
		return fmt.Errorf("uploadURLPrefix must start with '/', got %q", config.UploadURLPrefix)
	}
	if config.MaxUploadSize != "" {
		if _, err := bytes.Parse(config.MaxUploadSize); err != nil {
			return fmt.Errorf("invalid maxUploadSize %q: %w", config.MaxUploadSize, err)
		}
	}
	if err := validateLabels(config.Labels); err != nil {
		return fmt.Errorf("invalid label configuration: %w", err)
	}
	if err := validateChecks(config.Checks); err != nil {
		return fmt.Errorf("invalid check configuration: %w", err)
	}
	return nil
}

// validateLabels ensures the label table is non-empty with unique names
func validateLabels(labels []LabelConfig) error {
	if len(labels) == 0 {
		return errors.New("at least one label is required")
	}

	seenNames := make(map[string]bool)
	for i, label := range labels {
		if label.Name == "" {
			return fmt.Errorf("label at index %d has empty name", i)
		}
		if seenNames[label.Name] {
			return fmt.Errorf("duplicate label name: %s", label.Name)
		}
		seenNames[label.Name] = true
	}

	return nil
}

// validateChecks ensures all check configurations have required fields
func validateChecks(checks []CheckConfig) error {
	seenNames := make(map[string]bool)

	for i, check := range checks {
		// Validate name is not empty
		if check.Name == "" {
			return fmt.Errorf("check at index %d has empty name", i)
		}

		// Validate name is unique
		if seenNames[check.Name] {
			return fmt.Errorf("duplicate check name: %s", check.Name)
		}
		seenNames[check.Name] = true
	}

	return nil
}
