package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// WaitConfig holds polling defaults. Durations use Go syntax ("500ms", "2m").
type WaitConfig struct {
	Interval       string   `yaml:"interval,omitempty"`
	MaxAttempts    int      `yaml:"max_attempts,omitempty"`
	Timeout        string   `yaml:"timeout,omitempty"`
	ConnectTimeout string   `yaml:"connect_timeout,omitempty"`
	RetryOn        []string `yaml:"retry_on,omitempty"`
	Backoff        string   `yaml:"backoff,omitempty"`
	MaxInterval    string   `yaml:"max_interval,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Wait       WaitConfig       `yaml:"wait"`
}

const ConfigFileName = "pgwait.yaml"

// Backoff strategy names accepted in the wait block and on the command line.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

func Load(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v: %w", configPath, err, pgwait.ErrInvalidConfig)
	}
	if err := cfg.Wait.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return &cfg, nil
}

// Validate checks that every set field of the wait block parses.
func (w WaitConfig) Validate() error {
	var errs []error

	for _, f := range []struct{ name, value string }{
		{"interval", w.Interval},
		{"timeout", w.Timeout},
		{"connect_timeout", w.ConnectTimeout},
		{"max_interval", w.MaxInterval},
	} {
		if _, _, err := ParseDuration(f.name, f.value); err != nil {
			errs = append(errs, err)
		}
	}

	if w.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("wait.max_attempts cannot be negative (got %d): %w", w.MaxAttempts, pgwait.ErrInvalidConfig))
	}
	if _, err := pgwait.ParseErrorKinds(w.RetryOn); err != nil {
		errs = append(errs, fmt.Errorf("wait.retry_on: %w", err))
	}
	if err := ValidateBackoff(w.Backoff); err != nil {
		errs = append(errs, fmt.Errorf("wait.backoff: %w", err))
	}

	return errors.Join(errs...)
}

// ParseDuration parses value as a non-negative duration. ok is false for an
// empty value.
func ParseDuration(field, value string) (d time.Duration, ok bool, err error) {
	if value == "" {
		return 0, false, nil
	}
	d, err = time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: invalid duration %q: %w", field, value, pgwait.ErrInvalidConfig)
	}
	if d < 0 {
		return 0, false, fmt.Errorf("%s cannot be negative (got %v): %w", field, d, pgwait.ErrInvalidConfig)
	}
	return d, true, nil
}

// ValidateBackoff accepts an empty name, "fixed" or "exponential".
func ValidateBackoff(name string) error {
	switch name {
	case "", BackoffFixed, BackoffExponential:
		return nil
	}
	return fmt.Errorf("unknown backoff %q (valid: %s, %s): %w", name, BackoffFixed, BackoffExponential, pgwait.ErrInvalidConfig)
}
