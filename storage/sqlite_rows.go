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
	"database/sql"

	"github.com/goccy/go-json"

	"github.com/dftimeline/tlstore/compression"
	"github.com/dftimeline/tlstore/containers"
	storeerrors "github.com/dftimeline/tlstore/pkg/errors"
	"github.com/dftimeline/tlstore/serializer"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows, letting
// scanContainerRow serve single-row lookups and multi-row iteration
// with one implementation.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// buildRowValues produces the ordered (columns, values) pair for an
// INSERT/UPDATE, in sorted schema order for a schema-path type, or the
// single serialized-and-optionally-compressed blob column for a
// legacy-path type.
func buildRowValues(containerType string, row map[string]interface{}, method compression.Method) ([]string, []interface{}, error) {
	if containers.HasSchema(containerType) {
		return buildSchemaRowValues(containerType, row)
	}
	return buildLegacyRowValues(containerType, row, method)
}

func buildSchemaRowValues(containerType string, row map[string]interface{}) ([]string, []interface{}, error) {
	fields, _ := containers.Fields(containerType)

	columns := make([]string, 0, len(fields))
	values := make([]interface{}, 0, len(fields))

	for _, field := range fields {
		v, ok := row[field.Name]
		columns = append(columns, field.Name)
		if !ok {
			values = append(values, nil)
			continue
		}

		dbValue, err := encodeColumnValue(field.Type, v)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, dbValue)
	}
	return columns, values, nil
}

func encodeColumnValue(t containers.SemanticType, v interface{}) (interface{}, error) {
	switch t {
	case containers.Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, storeerrors.ErrSerialization.WithDetail("expected", "bool")
		}
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case containers.Int, containers.Timestamp, containers.AttributeContainerIdentifier:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case float64:
			return int64(n), nil
		default:
			return nil, storeerrors.ErrSerialization.WithDetail("expected", "integer")
		}
	case containers.Str, containers.Opaque:
		s, ok := v.(string)
		if !ok {
			return nil, storeerrors.ErrSerialization.WithDetail("expected", "string")
		}
		return s, nil
	case containers.ListStr:
		list, ok := v.([]string)
		if !ok {
			return nil, storeerrors.ErrSerialization.WithDetail("expected", "[]string")
		}
		encoded, err := json.Marshal(list)
		if err != nil {
			return nil, storeerrors.ErrSerialization.Wrap(err)
		}
		return string(encoded), nil
	default:
		return nil, storeerrors.ErrUnsupportedFormat.WithDetail("semantic_type", string(t))
	}
}

func decodeColumnValue(t containers.SemanticType, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	switch t {
	case containers.Bool:
		n, _ := raw.(int64)
		return n != 0, nil
	case containers.Int, containers.Timestamp, containers.AttributeContainerIdentifier:
		n, _ := raw.(int64)
		return n, nil
	case containers.Str, containers.Opaque:
		switch s := raw.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		default:
			return "", nil
		}
	case containers.ListStr:
		var text string
		switch s := raw.(type) {
		case string:
			text = s
		case []byte:
			text = string(s)
		}
		var list []string
		if text != "" {
			if err := json.Unmarshal([]byte(text), &list); err != nil {
				return nil, storeerrors.ErrSerialization.Wrap(err)
			}
		}
		return list, nil
	default:
		return nil, storeerrors.ErrUnsupportedFormat.WithDetail("semantic_type", string(t))
	}
}

func buildLegacyRowValues(containerType string, row map[string]interface{}, method compression.Method) ([]string, []interface{}, error) {
	data, err := serializer.Encode(&containers.Container{Type: containerType, Fields: row})
	if err != nil {
		return nil, nil, err
	}

	compressed, err := compression.Compress(method, data)
	if err != nil {
		return nil, nil, err
	}

	if containerType == containers.TypeEvent {
		ts, _ := row["timestamp"]
		return []string{"_timestamp", "_data"}, []interface{}{ts, compressed}, nil
	}
	return []string{"_data"}, []interface{}{compressed}, nil
}

// scanRows scans one row using the column layout scanContainerRow
// expects: _identifier first, then either the declared schema columns
// or the legacy _timestamp/_data columns.
func scanRows(s rowScanner, containerType string, schema []containers.Field, useSchema bool, method compression.Method) (*containers.Container, error) {
	return scanContainerRow(s, containerType, schema, useSchema, method)
}

func scanRow(row *sql.Row, containerType string, schema []containers.Field, useSchema bool, method compression.Method) (*containers.Container, error) {
	return scanContainerRow(row, containerType, schema, useSchema, method)
}

func scanContainerRow(s rowScanner, containerType string, schema []containers.Field, useSchema bool, method compression.Method) (*containers.Container, error) {
	c := containers.New(containerType)

	if useSchema {
		dest := make([]interface{}, len(schema)+1)
		raw := make([]interface{}, len(schema)+1)
		for i := range dest {
			dest[i] = &raw[i]
		}
		if err := s.Scan(dest...); err != nil {
			if err == sql.ErrNoRows {
				return nil, sql.ErrNoRows
			}
			return nil, storeerrors.ErrBackendError.Wrap(err)
		}

		for i, field := range schema {
			value, err := decodeColumnValue(field.Type, raw[i+1])
			if err != nil {
				return nil, err
			}
			if value != nil {
				c.Set(field.Name, value)
			}
		}
		return c, nil
	}

	if containerType == containers.TypeEvent {
		var id, timestamp sql.NullInt64
		var data []byte
		if err := s.Scan(&id, &timestamp, &data); err != nil {
			if err == sql.ErrNoRows {
				return nil, sql.ErrNoRows
			}
			return nil, storeerrors.ErrBackendError.Wrap(err)
		}
		if err := decodeLegacyBlob(c, data, method); err != nil {
			return nil, err
		}
		if timestamp.Valid {
			c.Set("timestamp", timestamp.Int64)
		}
		return c, nil
	}

	var id sql.NullInt64
	var data []byte
	if err := s.Scan(&id, &data); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, storeerrors.ErrBackendError.Wrap(err)
	}
	if err := decodeLegacyBlob(c, data, method); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeLegacyBlob(c *containers.Container, data []byte, method compression.Method) error {
	if len(data) == 0 {
		return nil
	}
	plain, err := compression.Decompress(method, data)
	if err != nil {
		return err
	}
	decoded, err := serializer.Decode(c.Type, plain)
	if err != nil {
		return err
	}
	for k, v := range decoded.Fields {
		c.Set(k, v)
	}
	return nil
}
