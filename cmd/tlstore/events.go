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

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dftimeline/tlstore/storage"
)

var (
	eventsStart string
	eventsEnd   string
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print a time-ordered dump of the event container",
	Long: `events opens the store read-only and prints every event container
in (timestamp, insertion_index) order, the same order sorted_events
yields them in.

--start and --end take RFC3339 timestamps (e.g. 2016-01-01T00:00:00Z)
and are converted to the engine's microseconds-since-epoch convention.`,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsStart, "start", "", "only events at or after this RFC3339 timestamp")
	eventsCmd.Flags().StringVar(&eventsEnd, "end", "", "only events at or before this RFC3339 timestamp")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "stop after printing this many events (0 = unlimited)")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	if storePath == "" {
		return fmt.Errorf("--path is required")
	}

	timeRange, err := parseTimeRange(eventsStart, eventsEnd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store := storage.NewSQLiteStore(storage.SQLiteOptions{Path: storePath, ReadOnly: true})
	if err := store.Open(ctx); err != nil {
		return fmt.Errorf("open %s: %w", storePath, err)
	}
	defer store.Close(ctx)

	it, err := store.SortedEvents(ctx, timeRange)
	if err != nil {
		return fmt.Errorf("sorted_events: %w", err)
	}
	defer it.Close()

	printed := 0
	for it.Next(ctx) {
		c := it.Container()
		ts, _ := c.Get("timestamp")
		desc, _ := c.Get("timestamp_desc")
		fmt.Printf("%-20s  %-20v  %v\n", c.Identifier.SerializeToString(), ts, desc)

		printed++
		if eventsLimit > 0 && printed >= eventsLimit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("iterate: %w", err)
	}

	fmt.Printf("\n%d event(s) printed\n", printed)
	return nil
}

func parseTimeRange(start, end string) (*storage.TimeRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}

	tr := &storage.TimeRange{}
	if start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, fmt.Errorf("invalid --start: %w", err)
		}
		micros := t.UnixMicro()
		tr.Start = &micros
	}
	if end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return nil, fmt.Errorf("invalid --end: %w", err)
		}
		micros := t.UnixMicro()
		tr.End = &micros
	}
	return tr, nil
}
