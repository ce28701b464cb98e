package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	BackendLocal    = "local"
	BackendEnsemble = "ensemble"
)

type Config struct {
	// Backend is either "local" for the in process tree or "ensemble" for a real
	// ZooKeeper ensemble.
	Backend  string `toml:"backend"`
	LogLevel string `toml:"log_level"`

	Local    LocalConfig    `toml:"local"`
	Journal  JournalConfig  `toml:"journal"`
	Ensemble EnsembleConfig `toml:"ensemble"`
}

type LocalConfig struct {
	AutoReset      bool  `toml:"auto_reset"`
	DisruptDelayMs int64 `toml:"disrupt_delay_ms"`
}

type JournalConfig struct {
	// Dir is where mutations are recorded. Empty disables the journal.
	Dir string `toml:"dir"`
}

type EnsembleConfig struct {
	Hosts            []string `toml:"hosts"`
	SessionTimeoutMs int64    `toml:"session_timeout_ms"`
}

func Default() *Config {
	return &Config{
		Backend:  BackendLocal,
		LogLevel: "info",
		Local: LocalConfig{
			DisruptDelayMs: 100,
		},
		Ensemble: EnsembleConfig{
			Hosts:            []string{"127.0.0.1:2181"},
			SessionTimeoutMs: 10000,
		},
	}
}

func (c *Config) DisruptDelay() time.Duration {
	return time.Duration(c.Local.DisruptDelayMs) * time.Millisecond
}

func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.Ensemble.SessionTimeoutMs) * time.Millisecond
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.Local.DisruptDelayMs < 0 {
			return errors.New("local.disrupt_delay_ms must not be negative")
		}
	case BackendEnsemble:
		if len(c.Ensemble.Hosts) == 0 {
			return errors.New("ensemble.hosts must not be empty")
		}
		if c.Ensemble.SessionTimeoutMs <= 0 {
			return errors.New("ensemble.session_timeout_ms must be positive")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// Load reads a TOML document on top of the defaults. Keys missing from the document keep
// their default values.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(data))
}

func WriteDefault(w io.Writer) error {
	data, err := toml.Marshal(Default())
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
