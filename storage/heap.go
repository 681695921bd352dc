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
	"container/heap"

	"github.com/dftimeline/tlstore/containers"
)

// heapEntry is one candidate for sorted_events: an event keyed by
// (timestamp, insertion_index) so ties resolve in insertion order.
type heapEntry struct {
	timestamp      int64
	insertionIndex int64
	container      *containers.Container
}

// entryHeap implements container/heap.Interface as a min-heap over
// (timestamp, insertionIndex).
type entryHeap []heapEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].timestamp != h[j].timestamp {
		return h[i].timestamp < h[j].timestamp
	}
	return h[i].insertionIndex < h[j].insertionIndex
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x interface{}) {
	*h = append(*h, x.(heapEntry))
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// eventHeap is the min-heap of (timestamp, insertion_index, event)
// used for stable sorted iteration, grounded on fake_store.py's
// GetSortedEvents use of Python's heapq.
type eventHeap struct {
	h entryHeap
}

func newEventHeap() *eventHeap {
	return &eventHeap{h: make(entryHeap, 0)}
}

func (e *eventHeap) push(entry heapEntry) {
	heap.Push(&e.h, entry)
}

// drainSorted pops every entry off the heap in (timestamp,
// insertionIndex) order and returns the resulting containers.
func (e *eventHeap) drainSorted() []*containers.Container {
	out := make([]*containers.Container, 0, e.h.Len())
	for e.h.Len() > 0 {
		entry := heap.Pop(&e.h).(heapEntry)
		out = append(out, entry.container)
	}
	return out
}
