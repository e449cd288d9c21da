// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

// Package config loads and validates Metacat configuration.
//
// Configuration is layered with Koanf v2: built-in defaults, then an
// optional YAML file, then environment variables. Environment variables
// take precedence.
package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Bus       BusConfig       `koanf:"bus"`
	Auth      AuthConfig      `koanf:"auth"`
	Logging   LoggingConfig   `koanf:"logging"`
	Limits    LimitsConfig    `koanf:"limits"`
	Zones     ZonesConfig     `koanf:"zones"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Environment string        `koanf:"environment"`
	Timeout     time.Duration `koanf:"timeout"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	// Schema is the Postgres schema holding all metadata tables.
	Schema string `koanf:"schema"`

	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// DSN assembles the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?search_path=%s",
		url.QueryEscape(d.Username),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.Schema,
	)
}

// BusConfig holds NATS JetStream settings for the item change feed.
type BusConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	// Topic is the subject item change records are published to.
	Topic string `koanf:"topic"`
	// Stream is the JetStream stream name holding the topic.
	Stream        string        `koanf:"stream"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// AuthConfig holds settings for JWT validation and the external
// authorization service.
type AuthConfig struct {
	// ServiceURL is the base URL of the authorization service, e.g.
	// "http://auth:5061/v1/".
	ServiceURL string `koanf:"service_url"`
	// RSAPublicKey is the base64-encoded PEM public key used to verify
	// RS256 access tokens.
	RSAPublicKey string        `koanf:"rsa_public_key"`
	Timeout      time.Duration `koanf:"timeout"`
	// CacheTTL bounds how long a permission decision is reused.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// DecodePublicKey returns the PEM bytes of the configured RSA public key.
func (a AuthConfig) DecodePublicKey() ([]byte, error) {
	pem, err := base64.StdEncoding.DecodeString(a.RSAPublicKey)
	if err != nil {
		return nil, fmt.Errorf("decode rsa public key: %w", err)
	}
	return pem, nil
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// LimitsConfig holds catalog-wide caps.
type LimitsConfig struct {
	MaxTags            int `koanf:"max_tags"`
	MaxSystemTags      int `koanf:"max_system_tags"`
	MaxAttributeLength int `koanf:"max_attribute_length"`
	MaxCollections     int `koanf:"max_collections"`
}

// ZonesConfig maps zone names to their numeric values.
type ZonesConfig struct {
	Greenroom int `koanf:"greenroom"`
	Core      int `koanf:"core"`
}

// RateLimitConfig holds request throttling settings.
type RateLimitConfig struct {
	Disabled bool          `koanf:"disabled"`
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// Validate checks that required settings are present and coherent.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.Schema == "" {
		return fmt.Errorf("database.schema is required")
	}
	if c.Bus.Enabled {
		if c.Bus.URL == "" {
			return fmt.Errorf("bus.url is required when the bus is enabled")
		}
		if c.Bus.Topic == "" {
			return fmt.Errorf("bus.topic is required when the bus is enabled")
		}
	}
	if c.Auth.RSAPublicKey != "" {
		if _, err := c.Auth.DecodePublicKey(); err != nil {
			return err
		}
	}
	if c.Zones.Greenroom == c.Zones.Core {
		return fmt.Errorf("zones.greenroom and zones.core must differ")
	}
	if c.Limits.MaxTags < 1 || c.Limits.MaxCollections < 1 {
		return fmt.Errorf("limits must be positive")
	}
	return nil
}
