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

// Package serializer encodes and decodes an attribute container's
// runtime fields to and from the engine's on-disk JSON representation,
// grounded on the original's json_serializer module.
//
// goccy/go-json is a drop-in replacement for encoding/json with a
// non-reflection-based fast path; the wire format is identical so
// files this engine writes stay readable by any standard
// encoding/json-based tool.
package serializer

import (
	"github.com/goccy/go-json"

	"github.com/dftimeline/tlstore/containers"
	storeerrors "github.com/dftimeline/tlstore/pkg/errors"
)

// Encode serializes a container's runtime fields, excluding its
// Identifier (identifiers are never serialized directly; reference
// fields are rewritten to their serialized integer form by the caller
// before Encode is invoked). Returns ErrSerialization if the field map
// is empty, matching the original's refusal to persist a container
// with no content.
func Encode(c *containers.Container) ([]byte, error) {
	if len(c.Fields) == 0 {
		return nil, storeerrors.ErrSerialization.WithDetail("container_type", c.Type).WithMessage("no fields to serialize")
	}

	data, err := json.Marshal(c.Fields)
	if err != nil {
		return nil, storeerrors.ErrSerialization.Wrap(err)
	}
	return data, nil
}

// Decode deserializes data into a new container of the given type. The
// caller is responsible for rewriting any serialized reference fields
// back into identifiers.Identifier values and for assigning the
// container's Identifier afterward.
func Decode(containerType string, data []byte) (*containers.Container, error) {
	fields := make(map[string]interface{})
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, storeerrors.ErrSerialization.Wrap(err)
	}

	return &containers.Container{
		Type:   containerType,
		Fields: fields,
	}, nil
}
