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
	"sort"

	"github.com/spf13/cobra"

	"github.com/dftimeline/tlstore/storage"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print store metadata and per-type container counts",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if storePath == "" {
		return fmt.Errorf("--path is required")
	}

	ctx := context.Background()
	store := storage.NewSQLiteStore(storage.SQLiteOptions{Path: storePath, ReadOnly: true})
	if err := store.Open(ctx); err != nil {
		return fmt.Errorf("open %s: %w", storePath, err)
	}
	defer store.Close(ctx)

	meta := store.Metadata()
	fmt.Printf("path:                 %s\n", storePath)
	fmt.Printf("storage_type:         %s\n", meta.StorageType)
	fmt.Printf("format_version:       %d\n", meta.FormatVersion)
	fmt.Printf("compression_format:   %s\n", meta.CompressionMethod)
	fmt.Printf("serialization_format: %s\n", meta.SerializationFormat)
	fmt.Println()

	counts := store.Counts()
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Println("container_type                 count")
	for _, t := range types {
		fmt.Printf("%-30s  %d\n", t, counts[t])
	}
	return nil
}
