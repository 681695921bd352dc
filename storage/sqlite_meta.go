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

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/dftimeline/tlstore/compression"
	"github.com/dftimeline/tlstore/containers"
	storeerrors "github.com/dftimeline/tlstore/pkg/errors"
)

// Format version gates, grounded on sqlite_file.py's module constants.
// Numbering encodes a calendar date, dense enough for monotonic
// compatibility windows.
const (
	ReadCompatibleFormatVersion    = 20190309
	AppendCompatibleFormatVersion  = 20190309
	UpgradeCompatibleFormatVersion = 20210621
	CurrentFormatVersion           = 20210621

	// WithSchemaFormatVersion is the version at or above which a table
	// uses schema-aware columns instead of the legacy _data blob.
	WithSchemaFormatVersion = 20210621
)

type storageMetadata struct {
	formatVersion        int64
	compressionMethod    compression.Method
	serializationFormat  string
	storageType          StorageType
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func createMetadataTable(ctx context.Context, db *sql.DB, meta storageMetadata) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE metadata (key TEXT, value TEXT)`); err != nil {
		return storeerrors.ErrBackendError.Wrap(err)
	}

	values := map[string]string{
		"format_version":        strconv.FormatInt(meta.formatVersion, 10),
		"compression_format":    string(meta.compressionMethod),
		"serialization_format":  meta.serializationFormat,
		"storage_type":          string(meta.storageType),
	}
	for key, value := range values {
		if _, err := db.ExecContext(ctx, `INSERT INTO metadata (key, value) VALUES (?, ?)`, key, value); err != nil {
			return storeerrors.ErrBackendError.Wrap(err)
		}
	}
	return nil
}

func metadataTableExists(ctx context.Context, db *sql.DB) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name='metadata'`)
	var name string
	err := row.Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storeerrors.ErrBackendError.Wrap(err)
	}
	return true, nil
}

func readMetadata(ctx context.Context, db *sql.DB) (storageMetadata, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM metadata`)
	if err != nil {
		return storageMetadata{}, storeerrors.ErrBackendError.Wrap(err)
	}
	defer rows.Close()

	raw := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return storageMetadata{}, storeerrors.ErrBackendError.Wrap(err)
		}
		raw[key] = value
	}
	if err := rows.Err(); err != nil {
		return storageMetadata{}, storeerrors.ErrBackendError.Wrap(err)
	}

	versionStr, ok := raw["format_version"]
	if !ok {
		return storageMetadata{}, storeerrors.ErrInvalidFormatMetadata.WithDetail("missing", "format_version")
	}
	version, err := strconv.ParseInt(versionStr, 10, 64)
	if err != nil {
		return storageMetadata{}, storeerrors.ErrInvalidFormatMetadata.WithDetail("format_version", versionStr)
	}

	return storageMetadata{
		formatVersion:        version,
		compressionMethod:    compression.Method(raw["compression_format"]),
		serializationFormat:  raw["serialization_format"],
		storageType:          StorageType(raw["storage_type"]),
	}, nil
}

func validateMetadata(meta storageMetadata, writable bool) error {
	lowerBound := int64(ReadCompatibleFormatVersion)
	if writable {
		lowerBound = AppendCompatibleFormatVersion
	}
	if meta.formatVersion < lowerBound || meta.formatVersion > CurrentFormatVersion {
		return storeerrors.ErrUnsupportedFormat.WithDetail("format_version", meta.formatVersion)
	}
	if meta.compressionMethod != compression.None && meta.compressionMethod != compression.Zlib {
		return storeerrors.ErrUnsupportedFormat.WithDetail("compression_format", string(meta.compressionMethod))
	}
	if meta.serializationFormat != "json" {
		return storeerrors.ErrUnsupportedFormat.WithDetail("serialization_format", meta.serializationFormat)
	}
	if meta.storageType != Session && meta.storageType != Task {
		return storeerrors.ErrUnsupportedFormat.WithDetail("storage_type", string(meta.storageType))
	}
	return nil
}

func bumpFormatVersion(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `UPDATE metadata SET value = ? WHERE key = 'format_version'`, strconv.Itoa(CurrentFormatVersion))
	if err != nil {
		return storeerrors.ErrBackendError.Wrap(err)
	}
	return nil
}

// tableExists reports whether a container type's table is already
// present, so Open can create only what is missing on reopen.
func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, name)
	var got string
	err := row.Scan(&got)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storeerrors.ErrBackendError.Wrap(err)
	}
	return true, nil
}

// tableUsesSchema inspects an existing table's columns to decide
// whether it is a schema-path table (one column per declared field) or
// a legacy blob table (carries a _data column). Used so an engine
// built against a newer schema can still read an older file within the
// read-compatible window.
func tableUsesSchema(ctx context.Context, db *sql.DB, name string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, name))
	if err != nil {
		return false, storeerrors.ErrBackendError.Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var colName, colType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
			return false, storeerrors.ErrBackendError.Wrap(err)
		}
		if colName == "_data" {
			return false, nil
		}
	}
	return true, nil
}

func createContainerTable(ctx context.Context, db *sql.DB, containerType string, compressionMethod compression.Method) error {
	if containers.HasSchema(containerType) {
		return createSchemaTable(ctx, db, containerType)
	}
	return createLegacyTable(ctx, db, containerType, compressionMethod)
}

func createSchemaTable(ctx context.Context, db *sql.DB, containerType string) error {
	fields, _ := containers.Fields(containerType)

	ddl := fmt.Sprintf(`CREATE TABLE %q (_identifier INTEGER PRIMARY KEY AUTOINCREMENT`, containerType)
	for _, field := range fields {
		ddl += fmt.Sprintf(`, %q %s`, field.Name, containers.ColumnType(field.Type))
	}
	ddl += `)`

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return storeerrors.ErrBackendError.Wrap(err)
	}
	return nil
}

func createLegacyTable(ctx context.Context, db *sql.DB, containerType string, compressionMethod compression.Method) error {
	dataType := "TEXT"
	if compressionMethod == compression.Zlib {
		dataType = "BLOB"
	}

	ddl := fmt.Sprintf(`CREATE TABLE %q (_identifier INTEGER PRIMARY KEY AUTOINCREMENT`, containerType)
	if containerType == containers.TypeEvent {
		ddl += `, _timestamp BIGINT`
	}
	ddl += fmt.Sprintf(`, _data %s)`, dataType)

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return storeerrors.ErrBackendError.Wrap(err)
	}
	return nil
}

// typeApplies reports whether containerType belongs in a store of the
// given storageType: session-only types are excluded from task stores,
// and (symmetrically, though the registry's task-only set is currently
// empty) task-only types would be excluded from session stores.
func typeApplies(containerType string, storageType StorageType) bool {
	if containers.IsSessionStoreOnly(containerType) && storageType != Session {
		return false
	}
	return true
}
