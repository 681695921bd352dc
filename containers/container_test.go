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

import (
	"testing"

	"github.com/dftimeline/tlstore/identifiers"
)

func TestNew(t *testing.T) {
	c := New(TypeEvent)
	if c.Type != TypeEvent {
		t.Errorf("Type = %q, want %q", c.Type, TypeEvent)
	}
	if c.Identifier != nil {
		t.Error("a freshly built container must have no identifier")
	}
	if _, ok := c.Get("timestamp"); ok {
		t.Error("a freshly built container must have no fields set")
	}
}

func TestSetGet(t *testing.T) {
	c := New(TypeEvent)
	c.Set("timestamp", int64(100))

	v, ok := c.Get("timestamp")
	if !ok {
		t.Fatal("expected timestamp to be present after Set")
	}
	if v.(int64) != 100 {
		t.Errorf("timestamp = %v, want 100", v)
	}
}

func TestClone_DeepCopiesListFields(t *testing.T) {
	c := New(TypeEventTag)
	c.Set("labels", []string{"a", "b"})
	c.Identifier = identifiers.NewSequenceIdentifier(TypeEventTag, 0)

	clone := c.Clone()

	labels, _ := clone.Get("labels")
	labels.([]string)[0] = "mutated"

	original, _ := c.Get("labels")
	if original.([]string)[0] != "a" {
		t.Error("mutating the clone's list field must not affect the original")
	}

	if !clone.Identifier.Equal(c.Identifier) {
		t.Error("clone must carry the same identifier as the original")
	}
}

func TestClone_IndependentFieldMaps(t *testing.T) {
	c := New(TypeEvent)
	c.Set("timestamp_desc", "mtime")

	clone := c.Clone()
	clone.Set("timestamp_desc", "atime")

	original, _ := c.Get("timestamp_desc")
	if original.(string) != "mtime" {
		t.Error("mutating the clone's field map must not affect the original")
	}
}
