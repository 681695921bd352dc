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
	"sync"

	"github.com/dftimeline/tlstore/containers"
	"github.com/dftimeline/tlstore/storage"
)

// defaultSubscriberBuffer is how many pending events a slow subscriber
// can fall behind by before new events start being dropped for it.
const defaultSubscriberBuffer = 64

// Hub wraps a storage.Store and fans out every committed event
// container to subscribed WebSocket viewers, in insertion order. It
// observes commits after they happen: a slow or absent subscriber
// never blocks Add, and the hub is never part of the Store contract
// itself — wrapping a store in a Hub changes nothing about what Add,
// Update, or any read operation returns.
type Hub struct {
	storage.Store

	mu          sync.Mutex
	subscribers map[int64]chan *containers.Container
	nextID      int64
}

// NewHub wraps store in a Hub. store must already be open for the
// hub's Add override to observe event commits.
func NewHub(store storage.Store) *Hub {
	return &Hub{
		Store:       store,
		subscribers: make(map[int64]chan *containers.Container),
	}
}

// Add delegates to the wrapped store and, if the commit succeeds and
// c is an event container, broadcasts a clone to every subscriber.
func (h *Hub) Add(ctx context.Context, c *containers.Container) error {
	if err := h.Store.Add(ctx, c); err != nil {
		return err
	}
	if c.Type == containers.TypeEvent {
		h.broadcast(c.Clone())
	}
	return nil
}

// Subscribe registers a new subscriber and returns its id and receive
// channel. Call Unsubscribe(id) when the subscriber disconnects.
func (h *Hub) Subscribe() (int64, <-chan *containers.Container) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan *containers.Container, defaultSubscriberBuffer)
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber's channel.
func (h *Hub) Unsubscribe(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// SubscriberCount reports the number of currently connected tail
// subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) broadcast(c *containers.Container) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- c:
		default:
			// Subscriber is behind; drop rather than block Add.
		}
	}
}
