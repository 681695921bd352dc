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

package metrics

import "time"

// StoreMetrics wraps a Collector with the attribute container store's
// fixed vocabulary of metric names and labels.
type StoreMetrics struct {
	collector Collector
}

// NewStoreMetrics builds a StoreMetrics backed by collector.
func NewStoreMetrics(collector Collector) *StoreMetrics {
	return &StoreMetrics{collector: collector}
}

// RecordAdd records a container add against containerType, with its
// duration.
func (m *StoreMetrics) RecordAdd(containerType string, duration time.Duration) {
	m.collector.IncrementCounter("tlstore_add_total", map[string]string{"container_type": containerType})
	m.collector.ObserveHistogram("tlstore_add_duration_seconds", duration.Seconds(), map[string]string{"container_type": containerType})
}

// RecordUpdate records a container update against containerType, with
// its duration.
func (m *StoreMetrics) RecordUpdate(containerType string, duration time.Duration) {
	m.collector.IncrementCounter("tlstore_update_total", map[string]string{"container_type": containerType})
	m.collector.ObserveHistogram("tlstore_update_duration_seconds", duration.Seconds(), map[string]string{"container_type": containerType})
}

// RecordGetByIndex records a GetByIndex call against containerType,
// with its duration.
func (m *StoreMetrics) RecordGetByIndex(containerType string, duration time.Duration) {
	m.collector.IncrementCounter("tlstore_get_by_index_total", map[string]string{"container_type": containerType})
	m.collector.ObserveHistogram("tlstore_get_by_index_duration_seconds", duration.Seconds(), map[string]string{"container_type": containerType})
}

// RecordCacheHit records a ContainerCache hit for containerType.
func (m *StoreMetrics) RecordCacheHit(containerType string) {
	m.collector.IncrementCounter("tlstore_cache_hits_total", map[string]string{"container_type": containerType})
}

// RecordCacheMiss records a ContainerCache miss for containerType.
func (m *StoreMetrics) RecordCacheMiss(containerType string) {
	m.collector.IncrementCounter("tlstore_cache_misses_total", map[string]string{"container_type": containerType})
}

// RecordOpenLatency records how long opening a durable store took.
func (m *StoreMetrics) RecordOpenLatency(storageType string, duration time.Duration) {
	m.collector.ObserveHistogram("tlstore_open_duration_seconds", duration.Seconds(), map[string]string{"storage_type": storageType})
}

// SetCacheSize reports the current number of entries held by the
// ContainerCache.
func (m *StoreMetrics) SetCacheSize(size int) {
	m.collector.SetGauge("tlstore_cache_entries", float64(size), nil)
}
