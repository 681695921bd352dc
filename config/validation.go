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
	storeerrors "github.com/dftimeline/tlstore/pkg/errors"
)

// Validate validates the entire configuration.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	if err := c.validateMetrics(); err != nil {
		return err
	}

	if err := c.validateOps(); err != nil {
		return err
	}

	return nil
}

// validateStore validates the store configuration.
func (c *Config) validateStore() error {
	if c.Store.Path == "" {
		return storeerrors.ErrMissingField.WithMessage("store.path").WithDetail("field", "store.path")
	}

	switch c.Store.StorageType {
	case "session", "task":
	default:
		return storeerrors.ErrInvalidValue.WithMessage("store.storage_type must be one of: session, task").WithDetail("field", "store.storage_type")
	}

	switch c.Store.CompressionMethod {
	case "", "none", "zlib":
	default:
		return storeerrors.ErrInvalidValue.WithMessage("store.compression_format must be one of: none, zlib").WithDetail("field", "store.compression_format")
	}

	if c.Store.CacheCapacity < 0 {
		return storeerrors.ErrOutOfRange.WithMessage("store.cache_capacity must not be negative").WithDetail("field", "store.cache_capacity")
	}

	return nil
}

// validateLogging validates the logging configuration.
func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return storeerrors.ErrInvalidValue.WithMessage("logging.level must be one of: debug, info, warn, error").WithDetail("field", "logging.level")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validFormats[c.Logging.Format] {
		return storeerrors.ErrInvalidValue.WithMessage("logging.format must be one of: json, console").WithDetail("field", "logging.format")
	}

	return nil
}

// validateMetrics validates the metrics configuration.
func (c *Config) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return storeerrors.ErrOutOfRange.WithMessage("metrics.port must be between 1 and 65535").WithDetail("field", "metrics.port")
	}
	if c.Metrics.Path == "" {
		return storeerrors.ErrMissingField.WithMessage("metrics.path").WithDetail("field", "metrics.path")
	}
	return nil
}

// validateOps validates the ops-server configuration.
func (c *Config) validateOps() error {
	if !c.Ops.Enabled {
		return nil
	}
	if c.Ops.Port < 1 || c.Ops.Port > 65535 {
		return storeerrors.ErrOutOfRange.WithMessage("ops server port must be between 1 and 65535").WithDetail("field", "ops.port")
	}
	if c.Ops.ReadTimeout <= 0 {
		return storeerrors.ErrOutOfRange.WithMessage("ops server read timeout must be positive").WithDetail("field", "ops.read_timeout")
	}
	if c.Ops.WriteTimeout <= 0 {
		return storeerrors.ErrOutOfRange.WithMessage("ops server write timeout must be positive").WithDetail("field", "ops.write_timeout")
	}
	return nil
}
