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

// Package config provides configuration management for the tlstore
// attribute-container storage engine.
//
// Configuration sources compose with the following precedence, highest
// first:
//
//  1. Environment variables (prefixed with TLSTORE_)
//  2. Configuration file (YAML, JSON, or TOML, by extension)
//  3. Default values
//
// # Configuration Structure
//
//   - Store: how to open the durable store (path, read-only, storage
//     type, compression, cache capacity)
//   - Logging: structured logger level/format/output
//   - Metrics: Prometheus endpoint settings
//   - Ops: the read-only HTTP inspection surface and live event-tail
//     websocket endpoint
//
// # Usage
//
//	cfg, err := config.LoadFromFile("tlstore.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Environment variable override:
//
//	export TLSTORE_STORE_PATH=/var/lib/tlstore/session.db
//	export TLSTORE_STORE_READ_ONLY=true
//
// # Validation
//
// See Config.Validate() for the complete set of rules; LoadFromFile
// always validates before returning.
package config
