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

// Package storage defines the attribute-container Store contract and
// its two implementations: an in-memory store for test fixtures and a
// durable relational-file store backed by modernc.org/sqlite.
package storage

import (
	"context"

	"github.com/dftimeline/tlstore/containers"
	"github.com/dftimeline/tlstore/identifiers"
)

// TimeRange bounds sorted_events by an inclusive [Start, End] window.
// A nil *int64 leaves that end of the range unbounded.
type TimeRange struct {
	Start *int64
	End   *int64
}

// StorageType is the metadata value distinguishing a session-scoped
// store from a task-scoped one; certain container types are exclusive
// to one or the other.
type StorageType string

const (
	Session StorageType = "session"
	Task    StorageType = "task"
)

// Store is the contract both backends implement. Every operation
// returns one of the typed errors in package github.com/dftimeline/tlstore/pkg/errors;
// no backend-specific error ever crosses this boundary unwrapped.
type Store interface {
	// Close commits pending writes (durable only) and transitions
	// open -> closed. Fails with errors.ErrAlreadyClosed if already
	// closed.
	Close(ctx context.Context) error

	// Add assigns the next sequence number for c.Type, builds an
	// identifier, stamps it onto c, rewrites reference fields to their
	// serialized form, and persists c. Fails with errors.ErrNotWritable
	// if the store is closed or read-only.
	Add(ctx context.Context, c *containers.Container) error

	// Update rewrites an existing container in place. c.Identifier must
	// be of the backend's own identifier kind and refer to an existing
	// row. Fails with errors.ErrMissingContainer if absent, or
	// errors.ErrUnsupportedIdentifier if c.Identifier is the wrong kind.
	Update(ctx context.Context, c *containers.Container) error

	// GetByIdentifier returns the container id addresses, or (nil, nil)
	// if absent.
	GetByIdentifier(ctx context.Context, containerType string, id identifiers.Identifier) (*containers.Container, error)

	// GetByIndex returns the 0-based positional entry within the
	// insertion-ordered sequence for containerType, or (nil, nil) if
	// index is out of range.
	GetByIndex(ctx context.Context, containerType string, index int64) (*containers.Container, error)

	// Iterate returns every container of containerType in insertion
	// order. Each call is an independent, non-restartable traversal;
	// concurrent Iterate calls on the same store never share a cursor.
	Iterate(ctx context.Context, containerType string) (Iterator, error)

	// Count returns the number of containers of containerType currently
	// stored.
	Count(ctx context.Context, containerType string) (int64, error)

	// Has reports whether any container of containerType is stored.
	Has(ctx context.Context, containerType string) (bool, error)

	// EventTagFor returns the single event_tag referencing eventID, or
	// (nil, nil) if there is none (including if more than one exists,
	// since that violates the one-tag-per-event invariant).
	EventTagFor(ctx context.Context, eventID identifiers.Identifier) (*containers.Container, error)

	// SortedEvents returns every event container within timeRange (nil
	// for unbounded), ordered by (timestamp, insertion_index).
	SortedEvents(ctx context.Context, timeRange *TimeRange) (Iterator, error)

	// NextSystemConfigurationIdentifier returns the identifier the next
	// system_configuration container written would receive, without
	// consuming the underlying sequence counter.
	NextSystemConfigurationIdentifier(ctx context.Context) (identifiers.Identifier, error)
}

// Iterator yields containers one at a time in a fixed order. Callers
// must call Close when they stop iterating early so a durable store
// can release its cursor.
type Iterator interface {
	// Next advances to the next container, returning false once
	// exhausted or on error (check Err after Next returns false).
	Next(ctx context.Context) bool

	// Container returns the container Next just advanced to.
	Container() *containers.Container

	// Err returns the first error encountered during iteration, if any.
	Err() error

	// Close releases the iterator's resources. Safe to call multiple
	// times.
	Close() error
}
