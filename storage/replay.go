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
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dftimeline/tlstore/containers"
)

// ReplayAll copies every container of each given type from src into
// dst, one goroutine per container type, preserving each type's
// insertion order within itself. This is the bulk path for folding a
// completed task store's containers back into its owning session
// store; it assigns dst its own identifiers rather than preserving
// src's, since the two stores' sequence counters are independent.
//
// Reference fields (e.g. an event's event_data_row_identifier) survive
// the renumbering only because Add assigns sequence numbers in strict
// insertion order starting from dst's current count: callers must
// include every referenced type in types and replay into a dst that
// has not yet received any containers of those types, or the
// renumbered reference will point at the wrong row.
//
// If any type's replay fails, ReplayAll returns the first error and
// the other in-flight types run to completion (or their own failure)
// before it returns, matching errgroup.Group's fan-in semantics.
func ReplayAll(ctx context.Context, src, dst Store, types []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, containerType := range types {
		containerType := containerType
		g.Go(func() error {
			return replayType(gctx, src, dst, containerType)
		})
	}
	return g.Wait()
}

// ReplayAllKnownTypes replays every container type declared in the
// schema registry (containers.AllTypes) from src into dst.
func ReplayAllKnownTypes(ctx context.Context, src, dst Store) error {
	return ReplayAll(ctx, src, dst, containers.AllTypes())
}

func replayType(ctx context.Context, src, dst Store, containerType string) error {
	it, err := src.Iterate(ctx, containerType)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next(ctx) {
		c := it.Container().Clone()
		c.Identifier = nil
		if err := dst.Add(ctx, c); err != nil {
			return err
		}
	}
	return it.Err()
}
