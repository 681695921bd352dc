// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import "time"

// Config is the complete configuration for a tlstore process: how to
// open the durable store, and the ambient logging/metrics/ops-server
// settings around it.
type Config struct {
	Store   StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
	Logging LoggingConfig   `json:"logging" yaml:"logging" mapstructure:"logging"`
	Metrics MetricsConfig   `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Ops     OpsServerConfig `json:"ops" yaml:"ops" mapstructure:"ops"`
}

// StoreConfig describes how to open a durable attribute container
// store.
type StoreConfig struct {
	// Path is the SQLite file path. Required.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
	// ReadOnly opens the store without write access; it must already
	// exist.
	ReadOnly bool `json:"read_only" yaml:"read_only" mapstructure:"read_only"`
	// StorageType is "session" or "task".
	StorageType string `json:"storage_type" yaml:"storage_type" mapstructure:"storage_type"`
	// CompressionMethod is "none" or "zlib"; only consulted when Path
	// does not yet exist.
	CompressionMethod string `json:"compression_format" yaml:"compression_format" mapstructure:"compression_format"`
	// CacheCapacity bounds the in-process read cache, in containers.
	// Zero selects the store's built-in default.
	CacheCapacity int `json:"cache_capacity" yaml:"cache_capacity" mapstructure:"cache_capacity"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level" mapstructure:"level"` // "debug", "info", "warn", "error"
	Format     string `json:"format" yaml:"format" mapstructure:"format"` // "json", "console"
	OutputPath string `json:"output_path" yaml:"output_path" mapstructure:"output_path"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Port    int    `json:"port" yaml:"port" mapstructure:"port"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
}

// OpsServerConfig controls the read-only HTTP inspection surface and
// live event-tail websocket endpoint.
type OpsServerConfig struct {
	Enabled         bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Host            string        `json:"host" yaml:"host" mapstructure:"host"`
	Port            int           `json:"port" yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			StorageType:       "session",
			CompressionMethod: "zlib",
			CacheCapacity:     32 * 1024,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Ops: OpsServerConfig{
			Enabled:         false,
			Host:            "127.0.0.1",
			Port:            8081,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			AllowedOrigins:  []string{"http://localhost"},
		},
	}
}

// NewConfig creates a new default configuration.
func NewConfig() *Config {
	return DefaultConfig()
}
