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
	"sync"

	"github.com/dftimeline/tlstore/containers"
	"github.com/dftimeline/tlstore/identifiers"
	storeerrors "github.com/dftimeline/tlstore/pkg/errors"
)

type memoryState int

const (
	memoryClosed memoryState = iota
	memoryOpen
)

// MemoryStore is the in-memory attribute container store: an
// ordered-list-per-type implementation of Store with deep-copy-on-write
// semantics, grounded on the original fake_store.py's FakeStore. It
// never touches disk and has no read-only mode.
type MemoryStore struct {
	mu sync.Mutex

	state   memoryState
	records map[string][]*containers.Container // containerType -> insertion-ordered containers
	byID    map[string]*containers.Container   // "type.sequence" -> container (same pointers as records)

	// eventTags indexes event_tag containers by the event identifier
	// they reference, so EventTagFor is O(1). A nil entry means more
	// than one tag referenced the event, which violates the one-tag
	// invariant and must read back as absent.
	eventTags map[string]*containers.Container
}

// NewMemoryStore builds a closed MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[string][]*containers.Container),
		byID:      make(map[string]*containers.Container),
		eventTags: make(map[string]*containers.Container),
	}
}

// Open transitions the store from closed to open. Fails with
// errors.ErrAlreadyOpen if already open.
func (m *MemoryStore) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == memoryOpen {
		return storeerrors.ErrAlreadyOpen
	}
	m.state = memoryOpen
	return nil
}

// Close transitions the store from open to closed. Fails with
// errors.ErrAlreadyClosed if already closed. The store's contents are
// discarded; there is nothing to flush.
func (m *MemoryStore) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == memoryClosed {
		return storeerrors.ErrAlreadyClosed
	}
	m.state = memoryClosed
	return nil
}

func (m *MemoryStore) requireOpen() error {
	if m.state != memoryOpen {
		return storeerrors.ErrNotReadable
	}
	return nil
}

// Add implements Store.
func (m *MemoryStore) Add(ctx context.Context, c *containers.Container) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != memoryOpen {
		return storeerrors.ErrNotWritable
	}
	if !containers.IsKnownType(c.Type) {
		return storeerrors.ErrUnsupportedContainerType.WithDetail("container_type", c.Type)
	}

	if err := validateReferenceKinds(c, isSequenceIdentifier); err != nil {
		return err
	}

	seq := int64(len(m.records[c.Type]))
	id := identifiers.NewSequenceIdentifier(c.Type, seq)

	stored := c.Clone()
	stored.Identifier = id

	m.records[c.Type] = append(m.records[c.Type], stored)
	m.byID[id.SerializeToString()] = stored

	if c.Type == containers.TypeEventTag {
		m.indexEventTag(stored)
	}

	c.Identifier = id
	return nil
}

// indexEventTag maintains the event-identifier -> tag side index,
// enforcing the at-most-one-tag-per-event invariant: a second tag for
// the same event makes lookups for that event return absent rather
// than picking one arbitrarily.
func (m *MemoryStore) indexEventTag(tag *containers.Container) {
	ref, ok := tag.Get("event")
	if !ok {
		return
	}
	eventID, ok := ref.(identifiers.Identifier)
	if !ok {
		return
	}
	key := eventID.SerializeToString()
	if _, exists := m.eventTags[key]; exists {
		m.eventTags[key] = nil
		return
	}
	m.eventTags[key] = tag
}

// Update implements Store.
func (m *MemoryStore) Update(ctx context.Context, c *containers.Container) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != memoryOpen {
		return storeerrors.ErrNotWritable
	}
	seqID, ok := c.Identifier.(*identifiers.SequenceIdentifier)
	if !ok {
		return storeerrors.ErrUnsupportedIdentifier
	}

	existing, ok := m.byID[seqID.SerializeToString()]
	if !ok {
		return storeerrors.ErrMissingContainer.WithDetail("identifier", seqID.SerializeToString())
	}

	if err := validateReferenceKinds(c, isSequenceIdentifier); err != nil {
		return err
	}

	updated := c.Clone()
	updated.Identifier = seqID

	idx := seqID.SequenceNumber()
	m.records[c.Type][idx] = updated
	m.byID[seqID.SerializeToString()] = updated

	if c.Type == containers.TypeEventTag {
		m.unindexEventTag(existing)
		m.indexEventTag(updated)
	}
	return nil
}

func (m *MemoryStore) unindexEventTag(tag *containers.Container) {
	ref, ok := tag.Get("event")
	if !ok {
		return
	}
	eventID, ok := ref.(identifiers.Identifier)
	if !ok {
		return
	}
	key := eventID.SerializeToString()
	delete(m.eventTags, key)
	// Re-index the other tags still referencing the same event, so a
	// remaining second tag keeps the lookup absent.
	for _, other := range m.records[containers.TypeEventTag] {
		if other.Identifier.Equal(tag.Identifier) {
			continue
		}
		if otherRef, ok := other.Get("event"); ok {
			if otherID, ok := otherRef.(identifiers.Identifier); ok && otherID.SerializeToString() == key {
				m.indexEventTag(other)
			}
		}
	}
}

// GetByIdentifier implements Store.
func (m *MemoryStore) GetByIdentifier(ctx context.Context, containerType string, id identifiers.Identifier) (*containers.Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireOpen(); err != nil {
		return nil, err
	}
	seqID, ok := id.(*identifiers.SequenceIdentifier)
	if !ok {
		return nil, storeerrors.ErrUnsupportedIdentifier
	}

	c, ok := m.byID[seqID.SerializeToString()]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

// GetByIndex implements Store.
func (m *MemoryStore) GetByIndex(ctx context.Context, containerType string, index int64) (*containers.Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireOpen(); err != nil {
		return nil, err
	}

	list := m.records[containerType]
	if index < 0 || index >= int64(len(list)) {
		return nil, nil
	}
	return list[index].Clone(), nil
}

// Count implements Store.
func (m *MemoryStore) Count(ctx context.Context, containerType string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireOpen(); err != nil {
		return 0, err
	}
	return int64(len(m.records[containerType])), nil
}

// Has implements Store.
func (m *MemoryStore) Has(ctx context.Context, containerType string) (bool, error) {
	count, err := m.Count(ctx, containerType)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EventTagFor implements Store.
func (m *MemoryStore) EventTagFor(ctx context.Context, eventID identifiers.Identifier) (*containers.Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireOpen(); err != nil {
		return nil, err
	}

	tag, ok := m.eventTags[eventID.SerializeToString()]
	if !ok || tag == nil {
		return nil, nil
	}
	return tag.Clone(), nil
}

// Iterate implements Store.
func (m *MemoryStore) Iterate(ctx context.Context, containerType string) (Iterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireOpen(); err != nil {
		return nil, err
	}

	// Snapshot the slice header so a concurrent Add does not race with
	// this iterator's traversal; each Iterate call gets its own cursor.
	snapshot := make([]*containers.Container, len(m.records[containerType]))
	copy(snapshot, m.records[containerType])

	return &sliceIterator{items: snapshot, index: -1}, nil
}

// SortedEvents implements Store.
func (m *MemoryStore) SortedEvents(ctx context.Context, timeRange *TimeRange) (Iterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireOpen(); err != nil {
		return nil, err
	}

	events := m.records[containers.TypeEvent]
	h := newEventHeap()
	for idx, event := range events {
		ts, ok := eventTimestamp(event)
		if !ok {
			continue
		}
		if !timeRange.contains(ts) {
			continue
		}
		h.push(heapEntry{timestamp: ts, insertionIndex: int64(idx), container: event})
	}

	return &sliceIterator{items: h.drainSorted(), index: -1}, nil
}

// NextSystemConfigurationIdentifier implements Store. It does not
// consume the sequence counter: two consecutive calls with no add in
// between return the same identifier, matching the original's own
// (documented-as-ambiguous) non-consuming read.
func (m *MemoryStore) NextSystemConfigurationIdentifier(ctx context.Context) (identifiers.Identifier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireOpen(); err != nil {
		return nil, err
	}

	next := int64(len(m.records[containers.TypeSystemConfiguration]))
	return identifiers.NewSequenceIdentifier(containers.TypeSystemConfiguration, next), nil
}

// sliceIterator adapts a pre-built slice of containers to Iterator.
type sliceIterator struct {
	items []*containers.Container
	index int
}

func (it *sliceIterator) Next(ctx context.Context) bool {
	it.index++
	return it.index < len(it.items)
}

func (it *sliceIterator) Container() *containers.Container {
	if it.index < 0 || it.index >= len(it.items) {
		return nil
	}
	return it.items[it.index].Clone()
}

func (it *sliceIterator) Err() error { return nil }

func (it *sliceIterator) Close() error { return nil }

// contains reports whether ts falls within the inclusive range. A nil
// receiver (unbounded range) always contains.
func (tr *TimeRange) contains(ts int64) bool {
	if tr == nil {
		return true
	}
	if tr.Start != nil && ts < *tr.Start {
		return false
	}
	if tr.End != nil && ts > *tr.End {
		return false
	}
	return true
}

func eventTimestamp(c *containers.Container) (int64, bool) {
	v, ok := c.Get("timestamp")
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
