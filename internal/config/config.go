// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap/zapcore"

	"pii-linkage/internal/catalog"
	"pii-linkage/internal/parallel"
	"pii-linkage/internal/paths"
	"pii-linkage/internal/policy"
	"pii-linkage/internal/resolver"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration. Values come from a YAML
// file and are overridden by environment variables.
type Config struct {
	Geographies    []string             `yaml:"geographies" env:"PII_GEOGRAPHIES" env-separator:","`
	Anchors        []string             `yaml:"anchors" env:"PII_ANCHORS" env-separator:","`
	Workers        int                  `yaml:"workers" env:"PII_WORKERS"`
	Storage        StorageConfig        `yaml:"storage"`
	Readers        ReadersConfig        `yaml:"readers"`
	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	Log            LogConfig            `yaml:"log"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	CustomPatterns []catalog.Definition `yaml:"custom_patterns"`
}

// StorageConfig selects the storage policy. TenantSalt and EncryptionKey are
// secrets; prefer the environment over the config file for them.
type StorageConfig struct {
	Mode string `yaml:"mode" env:"PII_STORAGE_MODE" env-default:"strict"`
	// Nil means true.
	MaskNormalizedInStrict *bool  `yaml:"mask_normalized_in_strict"`
	RetentionDays          int    `yaml:"retention_days" env:"PII_RETENTION_DAYS" env-default:"30"`
	TenantSalt             string `yaml:"tenant_salt" env:"PII_TENANT_SALT"`
	EncryptionKey          string `yaml:"encryption_key" env:"PII_ENCRYPTION_KEY"`
}

// MaskInStrict reports whether strict payloads store a masked value.
func (s *StorageConfig) MaskInStrict() bool {
	return s.MaskNormalizedInStrict == nil || *s.MaskNormalizedInStrict
}

// PolicyConfig converts the storage section for the policy engine.
func (s *StorageConfig) PolicyConfig() (policy.Config, error) {
	mode, err := policy.ParseMode(s.Mode)
	if err != nil {
		return policy.Config{}, err
	}
	cfg := policy.DefaultConfig(mode)
	cfg.MaskNormalizedInStrict = s.MaskInStrict()
	cfg.RetentionDays = s.RetentionDays
	return cfg, nil
}

// ReadersConfig bounds the input readers.
type ReadersConfig struct {
	MaxFileSizeMB int64 `yaml:"max_file_size_mb" env:"PII_MAX_FILE_SIZE_MB" env-default:"100"`
	MaxPDFPages   int   `yaml:"max_pdf_pages" env:"PII_MAX_PDF_PAGES" env-default:"500"`
}

// DatabaseConfig holds the optional PostgreSQL subject store settings. An
// empty URL keeps subjects in memory.
type DatabaseConfig struct {
	URL             string        `yaml:"url" env:"DATABASE_URL"`
	MaxConnections  int32         `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"PGMAX_CONN_LIFETIME" env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"PGMAX_CONN_IDLE_TIME" env-default:"30m"`
}

// RedisConfig holds the optional distributed lock settings. An empty URL
// uses in-process locks.
type RedisConfig struct {
	URL     string        `yaml:"url" env:"REDIS_URL"`
	LockTTL time.Duration `yaml:"lock_ttl" env:"PII_LOCK_TTL" env-default:"30s"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"PII_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"PII_LOG_FORMAT" env-default:"console"`
}

// MetricsConfig toggles the metrics dump.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"PII_METRICS_ENABLED"`
}

// Load reads the YAML file at path with environment overrides. An empty
// path reads the environment only. The result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(filepath.Clean(path), cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a validated configuration built from defaults and the
// environment.
func Default() (*Config, error) {
	return Load("")
}

func (c *Config) applyDefaults() {
	if c.Workers == 0 {
		c.Workers = parallel.DefaultWorkers()
	}
	c.Storage.Mode = strings.ToLower(strings.TrimSpace(c.Storage.Mode))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "text" {
		c.Log.Format = "console"
	}
}

// Validate checks every section. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	if _, err := catalog.ParseGeographies(c.Geographies); err != nil {
		errs = append(errs, err)
	}
	if _, err := resolver.ParseAnchors(c.Anchors); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if pc, err := c.Storage.PolicyConfig(); err != nil {
		errs = append(errs, err)
	} else if err := pc.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Readers.MaxFileSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("readers.max_file_size_mb must be positive, got %d", c.Readers.MaxFileSizeMB))
	}
	if c.Readers.MaxPDFPages <= 0 {
		errs = append(errs, fmt.Errorf("readers.max_pdf_pages must be positive, got %d", c.Readers.MaxPDFPages))
	}
	if c.Database.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("database.max_connections must not be negative, got %d", c.Database.MaxConnections))
	}
	if c.Redis.LockTTL < 0 {
		errs = append(errs, fmt.Errorf("redis.lock_ttl must not be negative, got %s", c.Redis.LockTTL))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if len(c.CustomPatterns) > 0 {
		if _, err := catalog.New(c.CustomPatterns); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ValidateSecrets checks the secrets a scan needs. The tenant salt is always
// required and investigation mode also needs an encryption key. Errors wrap
// ErrInvalidConfig.
func (c *Config) ValidateSecrets() error {
	var errs []error
	if c.Storage.TenantSalt == "" {
		errs = append(errs, fmt.Errorf("storage.tenant_salt (PII_TENANT_SALT): %w", policy.ErrMissingSalt))
	}
	if mode, err := policy.ParseMode(c.Storage.Mode); err == nil && mode == policy.ModeInvestigation && c.Storage.EncryptionKey == "" {
		errs = append(errs, fmt.Errorf("storage.encryption_key (PII_ENCRYPTION_KEY): %w", policy.ErrEncryptionUnavailable))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// GeographyList returns the parsed geographies. Call it after Validate.
func (c *Config) GeographyList() []catalog.Geography {
	g, _ := catalog.ParseGeographies(c.Geographies)
	return g
}

// Catalog builds the pattern catalog including custom patterns.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	if len(c.CustomPatterns) == 0 {
		return catalog.Default(), nil
	}
	return catalog.New(c.CustomPatterns)
}

// FindConfigFile looks for a configuration file in the working directory
// and then in the user configuration directory. It returns "" when none
// exists.
func FindConfigFile() string {
	for _, name := range []string{"pii-linkage.yaml", "pii-linkage.yml", ".pii-linkage.yaml", ".pii-linkage.yml"} {
		if fileExists(name) {
			return name
		}
	}
	if standard := paths.ConfigFile(); standard != "" && fileExists(standard) {
		return standard
	}
	return ""
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}
