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
	"github.com/dftimeline/tlstore/containers"
	"github.com/dftimeline/tlstore/identifiers"
	storeerrors "github.com/dftimeline/tlstore/pkg/errors"
)

// isSequenceIdentifier reports whether id is the in-memory store's own
// identifier kind.
func isSequenceIdentifier(id identifiers.Identifier) bool {
	_, ok := id.(*identifiers.SequenceIdentifier)
	return ok
}

// isRowIdentifier reports whether id is the durable store's own
// identifier kind.
func isRowIdentifier(id identifiers.Identifier) bool {
	_, ok := id.(*identifiers.RowIdentifier)
	return ok
}

// validateReferenceKinds checks every declared reference field of c
// that is actually set holds an identifier of the backend's own kind.
// A reference field left unset is not an error here; required-ness is
// a producer concern, not a storage one.
func validateReferenceKinds(c *containers.Container, ownKind func(identifiers.Identifier) bool) error {
	for _, ref := range containers.References(c.Type) {
		v, ok := c.Get(ref.RuntimeField)
		if !ok {
			continue
		}
		id, ok := v.(identifiers.Identifier)
		if !ok || !ownKind(id) {
			return storeerrors.ErrUnsupportedIdentifier.WithDetail("field", ref.RuntimeField)
		}
	}
	return nil
}

// rewriteReferencesOutbound converts every set reference field of c
// from its runtime identifier form into the serialized integer form a
// durable row stores, removing the runtime field from the map it
// operates on. It only concerns c's own reference fields, not the
// identifier a store assigns to c itself.
//
// The row map returned is independent of c.Fields; c itself keeps its
// runtime (Identifier-valued) reference fields untouched so producers
// can keep using c after Add returns.
func rewriteReferencesOutbound(c *containers.Container) (map[string]interface{}, error) {
	row := make(map[string]interface{}, len(c.Fields))
	for k, v := range c.Fields {
		row[k] = v
	}

	for _, ref := range containers.References(c.Type) {
		v, ok := row[ref.RuntimeField]
		if !ok {
			continue
		}
		id, ok := v.(identifiers.Identifier)
		if !ok || !isRowIdentifier(id) {
			return nil, storeerrors.ErrUnsupportedIdentifier.WithDetail("field", ref.RuntimeField)
		}
		delete(row, ref.RuntimeField)
		row[ref.SerializedField] = id.SequenceNumber()
	}
	return row, nil
}

// rewriteReferencesInbound reverses rewriteReferencesOutbound after a
// row has been read back from the durable store: each serialized
// integer becomes a typed RowIdentifier on the runtime field name, and
// the serialized field name is removed.
func rewriteReferencesInbound(containerType string, row map[string]interface{}) {
	for _, ref := range containers.References(containerType) {
		v, ok := row[ref.SerializedField]
		if !ok {
			continue
		}
		delete(row, ref.SerializedField)

		var seq int64
		switch n := v.(type) {
		case int64:
			seq = n
		case float64:
			seq = int64(n)
		default:
			continue
		}
		row[ref.RuntimeField] = identifiers.NewRowIdentifier(ref.ReferencedType, seq)
	}
}
