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
	"testing"

	"github.com/dftimeline/tlstore/containers"
	storeerrors "github.com/dftimeline/tlstore/pkg/errors"
)

func openMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	m := NewMemoryStore()
	if err := m.Open(context.Background()); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { m.Close(context.Background()) })
	return m
}

func TestMemoryStore_OpenTwiceFails(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	if err := m.Open(ctx); err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	if err := m.Open(ctx); !storeerrors.Is(err, storeerrors.ErrAlreadyOpen) {
		t.Errorf("expected ErrAlreadyOpen, got %v", err)
	}
}

func TestMemoryStore_CloseTwiceFails(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	m.Open(ctx)
	if err := m.Close(ctx); err != nil {
		t.Fatalf("first Close() error: %v", err)
	}
	if err := m.Close(ctx); !storeerrors.Is(err, storeerrors.ErrAlreadyClosed) {
		t.Errorf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestMemoryStore_AddOnClosedFails(t *testing.T) {
	m := NewMemoryStore()
	c := containers.New(containers.TypeEventSource)
	c.Set("data_type", "os:file")

	if err := m.Add(context.Background(), c); !storeerrors.Is(err, storeerrors.ErrNotWritable) {
		t.Errorf("expected ErrNotWritable, got %v", err)
	}
}

func TestMemoryStore_AddAssignsSequentialIdentifiers(t *testing.T) {
	m := openMemoryStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c := containers.New(containers.TypeEventSource)
		c.Set("data_type", "os:file")
		if err := m.Add(ctx, c); err != nil {
			t.Fatalf("Add() error: %v", err)
		}
		if c.Identifier.SequenceNumber() != int64(i) {
			t.Errorf("Add() assigned sequence %d, want %d", c.Identifier.SequenceNumber(), i)
		}
	}

	count, err := m.Count(ctx, containers.TypeEventSource)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func TestMemoryStore_IdentifierRoundTrip(t *testing.T) {
	m := openMemoryStore(t)
	ctx := context.Background()

	c := containers.New(containers.TypeEventSource)
	c.Set("data_type", "os:file")
	c.Set("path_spec", "/a")
	if err := m.Add(ctx, c); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	got, err := m.GetByIdentifier(ctx, containers.TypeEventSource, c.Identifier)
	if err != nil {
		t.Fatalf("GetByIdentifier() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetByIdentifier() returned nil for a container that was just added")
	}
	dataType, _ := got.Get("data_type")
	if dataType.(string) != "os:file" {
		t.Errorf("data_type = %v, want os:file", dataType)
	}
}

func TestMemoryStore_AddDeepCopiesInput(t *testing.T) {
	m := openMemoryStore(t)
	ctx := context.Background()

	c := containers.New(containers.TypeEventDataStream)
	c.Set("yara_match", []string{"rule_a"})
	if err := m.Add(ctx, c); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	// Mutate the producer's copy after Add; the stored copy must be
	// unaffected.
	matches, _ := c.Get("yara_match")
	matches.([]string)[0] = "mutated"

	got, err := m.GetByIndex(ctx, containers.TypeEventDataStream, 0)
	if err != nil {
		t.Fatalf("GetByIndex() error: %v", err)
	}
	storedMatches, _ := got.Get("yara_match")
	if storedMatches.([]string)[0] != "rule_a" {
		t.Error("mutating the producer's container after Add must not affect the stored copy")
	}
}

func TestMemoryStore_GetByIndexOutOfRange(t *testing.T) {
	m := openMemoryStore(t)
	got, err := m.GetByIndex(context.Background(), containers.TypeEventSource, 5)
	if err != nil {
		t.Fatalf("GetByIndex() error: %v", err)
	}
	if got != nil {
		t.Error("expected nil for an out-of-range index")
	}
}

func TestMemoryStore_IterateInsertionOrder(t *testing.T) {
	m := openMemoryStore(t)
	ctx := context.Background()

	want := []string{"/a", "/b", "/c"}
	for _, p := range want {
		c := containers.New(containers.TypeEventSource)
		c.Set("path_spec", p)
		if err := m.Add(ctx, c); err != nil {
			t.Fatalf("Add() error: %v", err)
		}
	}

	it, err := m.Iterate(ctx, containers.TypeEventSource)
	if err != nil {
		t.Fatalf("Iterate() error: %v", err)
	}
	defer it.Close()

	var got []string
	for it.Next(ctx) {
		v, _ := it.Container().Get("path_spec")
		got = append(got, v.(string))
	}
	if len(got) != len(want) {
		t.Fatalf("got %d containers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMemoryStore_SortedEventsTieBreaksByInsertionOrder(t *testing.T) {
	m := openMemoryStore(t)
	ctx := context.Background()

	timestamps := []int64{100, 100, 50, 200}
	for i, ts := range timestamps {
		c := containers.New(containers.TypeEvent)
		c.Set("timestamp", ts)
		c.Set("timestamp_desc", string(rune('a'+i)))
		if err := m.Add(ctx, c); err != nil {
			t.Fatalf("Add() error: %v", err)
		}
	}

	it, err := m.SortedEvents(ctx, nil)
	if err != nil {
		t.Fatalf("SortedEvents() error: %v", err)
	}
	defer it.Close()

	var got []int64
	var order []string
	for it.Next(ctx) {
		c := it.Container()
		v, _ := c.Get("timestamp")
		got = append(got, v.(int64))
		d, _ := c.Get("timestamp_desc")
		order = append(order, d.(string))
	}

	want := []int64{50, 100, 100, 200}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %d, want %d", i, got[i], want[i])
		}
	}

	// The two events at 100 were added first ("a") and second ("b").
	wantOrder := []string{"c", "a", "b", "d"}
	for i := range wantOrder {
		if order[i] != wantOrder[i] {
			t.Errorf("position %d was added as %q, want %q", i, order[i], wantOrder[i])
		}
	}
}

func TestMemoryStore_SortedEventsTimeRangeFilter(t *testing.T) {
	m := openMemoryStore(t)
	ctx := context.Background()

	for _, ts := range []int64{10, 20, 30, 40, 50} {
		c := containers.New(containers.TypeEvent)
		c.Set("timestamp", ts)
		if err := m.Add(ctx, c); err != nil {
			t.Fatalf("Add() error: %v", err)
		}
	}

	start, end := int64(20), int64(40)
	it, err := m.SortedEvents(ctx, &TimeRange{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("SortedEvents() error: %v", err)
	}
	defer it.Close()

	var got []int64
	for it.Next(ctx) {
		v, _ := it.Container().Get("timestamp")
		got = append(got, v.(int64))
	}

	want := []int64{20, 30, 40}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestMemoryStore_EventTagUniqueness(t *testing.T) {
	m := openMemoryStore(t)
	ctx := context.Background()

	event := containers.New(containers.TypeEvent)
	event.Set("timestamp", int64(1))
	if err := m.Add(ctx, event); err != nil {
		t.Fatalf("Add(event) error: %v", err)
	}

	tag1 := containers.New(containers.TypeEventTag)
	tag1.Set("event", event.Identifier)
	tag1.Set("labels", []string{"suspicious"})
	if err := m.Add(ctx, tag1); err != nil {
		t.Fatalf("Add(tag1) error: %v", err)
	}

	got, err := m.EventTagFor(ctx, event.Identifier)
	if err != nil {
		t.Fatalf("EventTagFor() error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a tag for the event")
	}
	labels, _ := got.Get("labels")
	if labels.([]string)[0] != "suspicious" {
		t.Errorf("labels = %v, want [suspicious]", labels)
	}

	// A second tag for the same event violates the one-tag invariant;
	// the lookup must now report absent rather than pick one.
	tag2 := containers.New(containers.TypeEventTag)
	tag2.Set("event", event.Identifier)
	tag2.Set("labels", []string{"another"})
	if err := m.Add(ctx, tag2); err != nil {
		t.Fatalf("Add(tag2) error: %v", err)
	}

	got, err = m.EventTagFor(ctx, event.Identifier)
	if err != nil {
		t.Fatalf("EventTagFor() error: %v", err)
	}
	if got != nil {
		t.Error("expected EventTagFor to report absent once two tags reference the same event")
	}
}

func TestMemoryStore_AddRejectsWrongIdentifierKindInReferenceField(t *testing.T) {
	m := openMemoryStore(t)
	ctx := context.Background()

	from := containers.New(containers.TypeEventTag)
	from.Set("event", "not-an-identifier")
	from.Set("labels", []string{"x"})

	if err := m.Add(ctx, from); !storeerrors.Is(err, storeerrors.ErrUnsupportedIdentifier) {
		t.Errorf("expected ErrUnsupportedIdentifier, got %v", err)
	}
}

func TestMemoryStore_NextSystemConfigurationIdentifierDoesNotConsume(t *testing.T) {
	m := openMemoryStore(t)
	ctx := context.Background()

	first, err := m.NextSystemConfigurationIdentifier(ctx)
	if err != nil {
		t.Fatalf("NextSystemConfigurationIdentifier() error: %v", err)
	}
	second, err := m.NextSystemConfigurationIdentifier(ctx)
	if err != nil {
		t.Fatalf("NextSystemConfigurationIdentifier() error: %v", err)
	}
	if !first.Equal(second) {
		t.Error("two consecutive calls with no intervening add must return the same identifier")
	}
}

func TestMemoryStore_HasMatchesCount(t *testing.T) {
	m := openMemoryStore(t)
	ctx := context.Background()

	has, err := m.Has(ctx, containers.TypeEventSource)
	if err != nil {
		t.Fatalf("Has() error: %v", err)
	}
	if has {
		t.Error("expected Has() to be false for an empty type")
	}

	c := containers.New(containers.TypeEventSource)
	m.Add(ctx, c)

	has, err = m.Has(ctx, containers.TypeEventSource)
	if err != nil {
		t.Fatalf("Has() error: %v", err)
	}
	if !has {
		t.Error("expected Has() to be true after an add")
	}
}
