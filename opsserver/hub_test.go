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

package opsserver

import (
	"context"
	"testing"
	"time"

	"github.com/dftimeline/tlstore/containers"
	"github.com/dftimeline/tlstore/storage"
)

func newOpenMemoryStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	m := storage.NewMemoryStore()
	if err := m.Open(context.Background()); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { m.Close(context.Background()) })
	return m
}

func newEvent() *containers.Container {
	c := containers.New(containers.TypeEvent)
	c.Set("timestamp", int64(1_700_000_000_000_000))
	c.Set("timestamp_desc", "Content Modification Time")
	return c
}

func TestHub_DelegatesAdd(t *testing.T) {
	store := newOpenMemoryStore(t)
	hub := NewHub(store)
	ctx := context.Background()

	if err := hub.Add(ctx, newEvent()); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	count, err := store.Count(ctx, containers.TypeEvent)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 event in wrapped store, got %d", count)
	}
}

func TestHub_BroadcastsEventsToSubscribers(t *testing.T) {
	store := newOpenMemoryStore(t)
	hub := NewHub(store)
	ctx := context.Background()

	id, events := hub.Subscribe()
	defer hub.Unsubscribe(id)

	if err := hub.Add(ctx, newEvent()); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	select {
	case c := <-events:
		if c.Type != containers.TypeEvent {
			t.Errorf("expected event container, got %s", c.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast event")
	}
}

func TestHub_IgnoresNonEventContainers(t *testing.T) {
	store := newOpenMemoryStore(t)
	hub := NewHub(store)
	ctx := context.Background()

	id, events := hub.Subscribe()
	defer hub.Unsubscribe(id)

	src := containers.New(containers.TypeEventSource)
	src.Set("data_type", "os:file")
	if err := hub.Add(ctx, src); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	select {
	case c := <-events:
		t.Fatalf("expected no broadcast for non-event container, got %v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	store := newOpenMemoryStore(t)
	hub := NewHub(store)

	id1, ch1 := hub.Subscribe()
	_, _ = hub.Subscribe()
	if got := hub.SubscriberCount(); got != 2 {
		t.Fatalf("expected 2 subscribers, got %d", got)
	}

	hub.Unsubscribe(id1)
	if got := hub.SubscriberCount(); got != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", got)
	}

	if _, ok := <-ch1; ok {
		t.Error("expected unsubscribed channel to be closed")
	}
}

func TestHub_SlowSubscriberNeverBlocksAdd(t *testing.T) {
	store := newOpenMemoryStore(t)
	hub := NewHub(store)
	ctx := context.Background()

	id, _ := hub.Subscribe() // never drained
	defer hub.Unsubscribe(id)

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultSubscriberBuffer+10; i++ {
			if err := hub.Add(ctx, newEvent()); err != nil {
				t.Errorf("Add() error: %v", err)
				return
			}
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Add blocked on a slow subscriber")
	}
}

func TestHub_AddPropagatesStoreError(t *testing.T) {
	store := storage.NewMemoryStore() // never opened
	hub := NewHub(store)

	if err := hub.Add(context.Background(), newEvent()); err == nil {
		t.Error("expected error from Add on unopened store")
	}
}
