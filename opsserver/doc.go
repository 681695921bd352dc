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
Package opsserver provides an HTTP operations surface for a running
attribute container store: liveness, Prometheus metrics, and a
read-only live tail of event containers over WebSocket.

The server never exposes raw SQL or arbitrary queries: /healthz reports
liveness and, for a durable store, its metadata; /metrics serves the
collector; /events/tail streams events committed through the Hub's Add.

Example:

	store := storage.NewSQLiteStore(storage.SQLiteOptions{Path: "session.sqlite"})
	if err := store.Open(ctx); err != nil {
	    log.Fatal(err)
	}
	hub := opsserver.NewHub(store)

	srv := opsserver.NewServer(hub, opsserver.DefaultServerConfig(), collector, logger)
	if err := srv.Start(); err != nil {
	    log.Fatal(err)
	}
	defer srv.Stop(context.Background())
*/
package opsserver
