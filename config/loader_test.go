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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
store:
  path: /var/lib/tlstore/session.db
  storage_type: session
  compression_format: zlib
  cache_capacity: 4096

logging:
  level: debug
  format: console

metrics:
  enabled: true
  port: 9091
  path: /metrics
`

	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0600))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	require.Equal(t, "/var/lib/tlstore/session.db", cfg.Store.Path)
	require.Equal(t, "session", cfg.Store.StorageType)
	require.Equal(t, 4096, cfg.Store.CacheCapacity)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, 9091, cfg.Metrics.Port)
}

func TestLoadFromFile_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	jsonContent := `{
  "store": {
    "path": "/var/lib/tlstore/task.db",
    "storage_type": "task"
  }
}`

	require.NoError(t, os.WriteFile(configPath, []byte(jsonContent), 0600))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/tlstore/task.db", cfg.Store.Path)
	require.Equal(t, "task", cfg.Store.StorageType)
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestLoadFromFile_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// No store.path set, which Validate requires.
	yamlContent := `
logging:
  level: info
  format: json
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0600))

	_, err := LoadFromFile(configPath)
	require.Error(t, err)
}

func TestLoadFromFile_MalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte("store:\n  path: [\n"), 0600))

	_, err := LoadFromFile(configPath)
	require.Error(t, err)
}

func TestLoadFromFile_DefaultsPreserved(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
store:
  path: /var/lib/tlstore/session.db
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0600))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	require.Equal(t, "session", cfg.Store.StorageType)
	require.Equal(t, "zlib", cfg.Store.CompressionMethod)
	require.Equal(t, 32*1024, cfg.Store.CacheCapacity)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
store:
  path: /var/lib/tlstore/session.db
  storage_type: session
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0600))

	os.Setenv("TLSTORE_STORE_PATH", "/override/path.db")
	defer os.Unsetenv("TLSTORE_STORE_PATH")

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)
	require.Equal(t, "/override/path.db", cfg.Store.Path)
	// Non-overridden fields keep the file's value.
	require.Equal(t, "session", cfg.Store.StorageType)
}
