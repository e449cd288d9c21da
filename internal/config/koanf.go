// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/metacat/config.yaml",
	"/etc/metacat/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5065,
			Environment: "development",
			Timeout:     30 * time.Second,
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Username:        "postgres",
			Password:        "",
			Name:            "metadata",
			Schema:          "metadata",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Bus: BusConfig{
			Enabled:       true,
			URL:           "nats://127.0.0.1:4222",
			Topic:         "metadata.items",
			Stream:        "METADATA",
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
		},
		Auth: AuthConfig{
			ServiceURL:   "",
			RSAPublicKey: "",
			Timeout:      10 * time.Second,
			CacheTTL:     time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Limits: LimitsConfig{
			MaxTags:            10,
			MaxSystemTags:      10,
			MaxAttributeLength: 100,
			MaxCollections:     10,
		},
		Zones: ZonesConfig{
			Greenroom: 0,
			Core:      1,
		},
		RateLimit: RateLimitConfig{
			Disabled: false,
			Requests: 100,
			Window:   time.Minute,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variable names map onto koanf paths through an explicit
	// table; unknown variables are ignored.
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path of the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as plain strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - PORT -> server.port
//   - DB_HOST -> database.host
//   - BUS_TOPIC -> bus.topic
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"host":         "server.host",
		"port":         "server.port",
		"env":          "server.environment",
		"cors_origins": "server.cors_origins",

		"db_host":     "database.host",
		"db_port":     "database.port",
		"db_username": "database.username",
		"db_password": "database.password",
		"db_name":     "database.name",
		"db_schema":   "database.schema",

		"bus_enabled":        "bus.enabled",
		"bus_url":            "bus.url",
		"bus_topic":          "bus.topic",
		"bus_stream":         "bus.stream",
		"bus_max_reconnects": "bus.max_reconnects",
		"bus_reconnect_wait": "bus.reconnect_wait",

		"auth_service_url": "auth.service_url",
		"rsa_public_key":   "auth.rsa_public_key",
		"auth_timeout":     "auth.timeout",
		"auth_cache_ttl":   "auth.cache_ttl",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"max_tags":             "limits.max_tags",
		"max_system_tags":      "limits.max_system_tags",
		"max_attribute_length": "limits.max_attribute_length",
		"max_collections":      "limits.max_collections",

		"greenroom_zone_value": "zones.greenroom",
		"core_zone_value":      "zones.core",

		"rate_limit_disabled": "rate_limit.disabled",
		"rate_limit_requests": "rate_limit.requests",
		"rate_limit_window":   "rate_limit.window",
	}

	if path, ok := envMappings[key]; ok {
		return path
	}
	// Unmapped variables are dropped so unrelated environment noise
	// cannot leak into the configuration tree.
	return ""
}
