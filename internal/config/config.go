package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	HTTP     HTTPConfig     `yaml:"http" json:"http"`
	OBS      OBSConfig      `yaml:"obs" json:"obs"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	License  LicenseConfig  `yaml:"license" json:"license"`
	Playback PlaybackConfig `yaml:"playback" json:"playback"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig contains UDP server configuration
type ServerConfig struct {
	UDPPort     int    `yaml:"udp_port" json:"udp_port"`
	BindAddress string `yaml:"bind_address" json:"bind_address"`
	BufferSize  int    `yaml:"buffer_size" json:"buffer_size"`
	SchemaPath  string `yaml:"schema_path" json:"schema_path"` // empty means the embedded grammar document
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port" json:"port"`
	Address string `yaml:"address" json:"address"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// OBSConfig contains the OBS remote switcher connection
type OBSConfig struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	Host           string `yaml:"host" json:"host"`
	Port           int    `yaml:"port" json:"port"`
	Password       string `yaml:"password" json:"password"`
	RequestTimeout int    `yaml:"request_timeout" json:"request_timeout"` // seconds
	QueueSize      int    `yaml:"queue_size" json:"queue_size"`           // replay trigger queue
}

// StorageConfig contains the match recorder configuration
type StorageConfig struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	Driver       string `yaml:"driver" json:"driver"` // postgres or memory
	DSN          string `yaml:"dsn" json:"dsn"`
	MatchName    string `yaml:"match_name" json:"match_name"`
	QueueSize    int    `yaml:"queue_size" json:"queue_size"`
	WriteTimeout int    `yaml:"write_timeout" json:"write_timeout"` // seconds
}

// LicenseConfig contains license validation configuration
type LicenseConfig struct {
	KeyPath string `yaml:"key_path" json:"key_path"` // empty runs unlicensed
}

// PlaybackConfig contains the clip playback invocation
type PlaybackConfig struct {
	Player string   `yaml:"player" json:"player"`
	Args   []string `yaml:"args" json:"args"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.OBS.Validate(); err != nil {
		return fmt.Errorf("obs config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.UDPPort < 1 || s.UDPPort > 65535 {
		return fmt.Errorf("udp_port must be between 1 and 65535, got %d", s.UDPPort)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if s.BufferSize < 1024 {
		return fmt.Errorf("buffer_size must be at least 1024 bytes, got %d", s.BufferSize)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates OBS configuration
func (o *OBSConfig) Validate() error {
	if !o.Enabled {
		return nil
	}

	if o.Host == "" {
		return fmt.Errorf("host cannot be empty when OBS is enabled")
	}

	if o.Port < 1 || o.Port > 65535 {
		return fmt.Errorf("obs port must be between 1 and 65535, got %d", o.Port)
	}

	if o.RequestTimeout < 1 {
		return fmt.Errorf("request_timeout must be at least 1 second, got %d", o.RequestTimeout)
	}

	if o.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", o.QueueSize)
	}

	return nil
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	if !s.Enabled {
		return nil
	}

	switch s.Driver {
	case "postgres":
		if s.DSN == "" {
			return fmt.Errorf("dsn cannot be empty for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("driver must be 'postgres' or 'memory', got '%s'", s.Driver)
	}

	if s.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", s.QueueSize)
	}

	if s.WriteTimeout < 1 {
		return fmt.Errorf("write_timeout must be at least 1 second, got %d", s.WriteTimeout)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// Redacted returns a copy of the configuration safe for the monitoring API:
// credentials are masked, everything else is kept.
func (c *Config) Redacted() *Config {
	out := *c
	if out.OBS.Password != "" {
		out.OBS.Password = "<redacted>"
	}
	if out.Storage.DSN != "" {
		out.Storage.DSN = "<redacted>"
	}
	return &out
}

// GetRequestTimeout returns the OBS request timeout as a time.Duration
func (o *OBSConfig) GetRequestTimeout() time.Duration {
	return time.Duration(o.RequestTimeout) * time.Second
}

// GetWriteTimeout returns the storage write timeout as a time.Duration
func (s *StorageConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}
