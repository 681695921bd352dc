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
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dftimeline/tlstore/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Work with tlstore configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Print the default configuration as YAML",
	Long: `init prints config.DefaultConfig() as YAML, suitable for
redirecting to a file and editing before passing it to a process that
loads tlstore configuration (e.g. via the TLSTORE_ environment prefix
or a --config flag in a downstream consumer of this package).`,
	RunE: runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
