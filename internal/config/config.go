// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "nftvoter.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultSlotLength      = "400ms"
	// Solana mainnet-beta genesis
	DefaultGenesisTime = "2020-03-16T14:29:00Z"

	DatabaseDriverSqlite   = "sqlite"
	DatabaseDriverPostgres = "postgres"

	envPrefix = "nftvoter"
)

var (
	ErrInvalidDatabaseDriver = errors.New("invalid database driver")
	ErrMissingPostgresDsn    = errors.New(
		"postgresDsn is required for the postgres database driver",
	)
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	DatabasePath    string `yaml:"databasePath"    split_words:"true"`
	DatabaseDriver  string `yaml:"databaseDriver"  split_words:"true"`
	PostgresDsn     string `yaml:"postgresDsn"     split_words:"true"`
	BindAddr        string `yaml:"bindAddr"        split_words:"true"`
	ApiPort         uint   `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint   `yaml:"metricsPort"     split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
	GenesisTime     string `yaml:"genesisTime"     split_words:"true"`
	SlotLength      string `yaml:"slotLength"      split_words:"true"`
	SlotsPerEpoch   uint64 `yaml:"slotsPerEpoch"   split_words:"true"`
	// Tracing enables OpenTelemetry tracing. Spans are exported over OTLP
	// HTTP unless TracingStdout is set
	Tracing       bool `yaml:"tracing"`
	TracingStdout bool `yaml:"tracingStdout" split_words:"true"`
}

// DefaultConfig returns the built-in defaults. An empty DatabasePath keeps
// all state in memory
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:    ".nftvoter",
		DatabaseDriver:  DatabaseDriverSqlite,
		BindAddr:        "0.0.0.0",
		ApiPort:         8080,
		MetricsPort:     12799,
		ShutdownTimeout: DefaultShutdownTimeout,
		GenesisTime:     DefaultGenesisTime,
		SlotLength:      DefaultSlotLength,
		SlotsPerEpoch:   432000,
	}
}

// LoadConfig builds the config from the defaults, the YAML config file and
// the environment, in that order. When configFile is empty the user and
// system config paths are checked
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	// ~/.nftvoter/nftvoter.yaml
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".nftvoter", "nftvoter.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/nftvoter/nftvoter.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DatabaseDriverSqlite:
	case DatabaseDriverPostgres:
		if c.PostgresDsn == "" {
			return ErrMissingPostgresDsn
		}
	default:
		return fmt.Errorf(
			"%w: %q (must be '%s' or '%s')",
			ErrInvalidDatabaseDriver,
			c.DatabaseDriver,
			DatabaseDriverSqlite,
			DatabaseDriverPostgres,
		)
	}
	if _, err := c.ParseShutdownTimeout(); err != nil {
		return err
	}
	if _, err := c.ParseSlotLength(); err != nil {
		return err
	}
	if _, err := c.ParseGenesisTime(); err != nil {
		return err
	}
	return nil
}

func (c *Config) ParseShutdownTimeout() (time.Duration, error) {
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdownTimeout: %w", err)
	}
	return ret, nil
}

func (c *Config) ParseSlotLength() (time.Duration, error) {
	ret, err := time.ParseDuration(c.SlotLength)
	if err != nil {
		return 0, fmt.Errorf("invalid slotLength: %w", err)
	}
	if ret <= 0 {
		return 0, fmt.Errorf("invalid slotLength: %s", c.SlotLength)
	}
	return ret, nil
}

func (c *Config) ParseGenesisTime() (time.Time, error) {
	ret, err := time.Parse(time.RFC3339, c.GenesisTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid genesisTime: %w", err)
	}
	return ret, nil
}

func (c *Config) ApiListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.ApiPort)
}

func (c *Config) MetricsListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.MetricsPort)
}
