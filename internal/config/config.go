// Package config loads the CLI/server configuration file, following the
// same root-Config-with-nested-sub-structs shape as the teacher's
// config.go (LoadConfig reads YAML, then a handful of derived fields are
// resolved once after parsing).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root CLI configuration.
type Config struct {
	Stretch  StretchConfig  `yaml:"stretch"`
	Server   ServerConfig   `yaml:"server"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	MCP      MCPConfig      `yaml:"mcp"`
	RTP      RTPConfig      `yaml:"rtp"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// StretchConfig mirrors stretch.Config's fields for file-based defaults;
// the CLI layers its -factor/-window flag overrides on top of whatever this
// holds.
type StretchConfig struct {
	StretchFactor     float64 `yaml:"stretch_factor"`
	WindowSizeSeconds float64 `yaml:"window_size_seconds"`
	WorkerCount       int     `yaml:"worker_count"`
	WindowShape       string  `yaml:"window_shape"` // "hann" (default) or "legacy"
	Seed              *int64  `yaml:"seed,omitempty"`
}

// ServerConfig controls the optional demo progress-streaming server.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// MQTTConfig controls optional MQTT progress/job-complete publishing.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// MCPConfig controls the optional MCP tool server.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// RTPConfig controls optional RTP streaming of the stretched PCM result.
type RTPConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DestAddr   string `yaml:"dest_addr"`
	PayloadPT  uint8  `yaml:"payload_type"`
	SampleRate int    `yaml:"sample_rate"`
}

// MetricsConfig controls the optional Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the built-in defaults used when no config file is given.
func Default() Config {
	return Config{
		Stretch: StretchConfig{
			StretchFactor:     8,
			WindowSizeSeconds: 0.25,
			WindowShape:       "hann",
		},
		Server:  ServerConfig{Addr: ":8089"},
		MCP:     MCPConfig{Addr: ":8090"},
		Metrics: MetricsConfig{Addr: ":9090"},
	}
}

// Load reads and parses a YAML config file.
func Load(filename string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", filename, err)
	}
	return cfg, nil
}
