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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "session", cfg.Store.StorageType)
	assert.Equal(t, "zlib", cfg.Store.CompressionMethod)
	assert.Equal(t, 32*1024, cfg.Store.CacheCapacity)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestNewConfig_IsDefaultConfig(t *testing.T) {
	assert.Equal(t, DefaultConfig(), NewConfig())
}

func TestConfig_Validate_Success(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = "/var/lib/tlstore/session.db"

	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_RequiresPath(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")
}

func TestConfig_Validate_StorageType(t *testing.T) {
	tests := []struct {
		name        string
		storageType string
		wantErr     bool
	}{
		{"session", "session", false},
		{"task", "task", false},
		{"invalid", "bogus", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Store.Path = "/tmp/s.db"
			cfg.Store.StorageType = tt.storageType

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_CompressionMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		wantErr bool
	}{
		{"none", "none", false},
		{"zlib", "zlib", false},
		{"empty defaults ok", "", false},
		{"invalid", "gzip", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Store.Path = "/tmp/s.db"
			cfg.Store.CompressionMethod = tt.method

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_NegativeCacheCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = "/tmp/s.db"
	cfg.Store.CacheCapacity = -1

	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_Logging(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = "/tmp/s.db"
	cfg.Logging.Level = "trace"

	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_MetricsDisabledSkipsPortCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = "/tmp/s.db"
	cfg.Metrics.Enabled = false
	cfg.Metrics.Port = 0

	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_MetricsEnabledRequiresValidPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = "/tmp/s.db"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0

	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_OpsEnabledRequiresPositiveTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = "/tmp/s.db"
	cfg.Ops.Enabled = true
	cfg.Ops.ReadTimeout = 0

	assert.Error(t, cfg.Validate())
}
