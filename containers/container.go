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

package containers

import "github.com/dftimeline/tlstore/identifiers"

// Container is a single attribute container: a bag of named runtime
// fields plus the identifier a store assigned it on Add. Where the
// original dynamically sets/deletes attributes on a generic object,
// this engine keeps one explicit field map per container and lets the
// schema registry decide how each entry round-trips.
//
// Values hold Go-native representations of the schema's semantic
// types: bool, int64, string, []string, or identifiers.Identifier for
// AttributeContainerIdentifier fields. Opaque fields are always
// strings holding an already-serialized textual form.
type Container struct {
	// Type is the container type name, a key into the schema registry.
	Type string

	// Identifier is nil until a store assigns one on Add.
	Identifier identifiers.Identifier

	// Fields holds the container's runtime field values, keyed by the
	// schema's runtime field name (reference fields use RuntimeField,
	// not SerializedField).
	Fields map[string]interface{}
}

// New builds an empty container of the given type with no identifier
// and no field values set.
func New(containerType string) *Container {
	return &Container{
		Type:   containerType,
		Fields: make(map[string]interface{}),
	}
}

// Get returns the named field value and whether it was present.
func (c *Container) Get(name string) (interface{}, bool) {
	v, ok := c.Fields[name]
	return v, ok
}

// Set assigns a field value, creating the field map if necessary.
func (c *Container) Set(name string, value interface{}) {
	if c.Fields == nil {
		c.Fields = make(map[string]interface{})
	}
	c.Fields[name] = value
}

// Clone returns a deep copy of the container: a new field map with
// slice-valued entries (list<str> fields) copied independently, so
// mutating the clone's fields never mutates the original's. Scalar and
// identifier values are immutable by convention and are copied by
// reference without issue.
func (c *Container) Clone() *Container {
	clone := &Container{
		Type:       c.Type,
		Identifier: c.Identifier,
		Fields:     make(map[string]interface{}, len(c.Fields)),
	}
	for k, v := range c.Fields {
		if list, ok := v.([]string); ok {
			cp := make([]string, len(list))
			copy(cp, list)
			clone.Fields[k] = cp
			continue
		}
		clone.Fields[k] = v
	}
	return clone
}
