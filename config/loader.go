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

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the prefix every environment variable override carries,
// e.g. TLSTORE_STORE_PATH for Store.Path.
const envPrefix = "TLSTORE"

// envBindings lists every leaf field a caller can override from the
// environment, alongside its dotted viper key.
var envBindings = []string{
	"store.path",
	"store.read_only",
	"store.storage_type",
	"store.compression_format",
	"store.cache_capacity",
	"logging.level",
	"logging.format",
	"logging.output_path",
	"metrics.enabled",
	"metrics.port",
	"metrics.path",
	"ops.enabled",
	"ops.host",
	"ops.port",
}

// LoadFromFile loads configuration from a file (YAML, JSON, or TOML,
// selected by extension), then applies environment variable overrides
// with the TLSTORE_<SECTION>_<FIELD> convention, and validates the
// result.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	applyDefaults(v, DefaultConfig())

	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envBindings {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults seeds v with cfg's values so fields left unset by both
// the config file and the environment keep a sane default after
// Unmarshal.
func applyDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("store.storage_type", cfg.Store.StorageType)
	v.SetDefault("store.compression_format", cfg.Store.CompressionMethod)
	v.SetDefault("store.cache_capacity", cfg.Store.CacheCapacity)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output_path", cfg.Logging.OutputPath)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
	v.SetDefault("ops.enabled", cfg.Ops.Enabled)
	v.SetDefault("ops.host", cfg.Ops.Host)
	v.SetDefault("ops.port", cfg.Ops.Port)
	v.SetDefault("ops.read_timeout", cfg.Ops.ReadTimeout)
	v.SetDefault("ops.write_timeout", cfg.Ops.WriteTimeout)
	v.SetDefault("ops.shutdown_timeout", cfg.Ops.ShutdownTimeout)
	v.SetDefault("ops.allowed_origins", cfg.Ops.AllowedOrigins)
}
