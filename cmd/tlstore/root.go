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

/*
Command tlstore is a read-only debugging aid over the attribute
container store's public Go API. It opens a durable store file and
prints its metadata, per-type container counts, and a time-ordered
event dump. It is not a wire protocol of the engine itself; every
subcommand that opens a store does so read-only and never mutates it.

Example:

	tlstore inspect --path session.sqlite
	tlstore events --path session.sqlite --start 2016-01-01T00:00:00Z
	tlstore config init > tlstore.yaml
	tlstore version
*/
package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tlstore",
	Short: "Inspect an attribute container store file",
	Long: `tlstore is a read-only debugging aid over the attribute container
store's public Go API.

It never opens a store for writing: every subcommand works against a
read-only handle so it is always safe to run against a store another
process still has open for append.`,
}

var storePath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&storePath, "path", "p", "", "path to the store file (required)")
}
