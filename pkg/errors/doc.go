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

// Package errors provides the structured error kinds raised across the
// attribute-container storage engine.
//
// Every error the storage and containers packages raise is one of the
// predefined *Error values in this package (or a value built with New),
// so callers can branch on Category/Code instead of parsing messages.
//
//	if errors.Is(err, errors.ErrNotWritable) {
//	    // store is closed or read-only
//	}
//
//	var storeErr *errors.Error
//	if errors.As(err, &storeErr) {
//	    log.Printf("%s: %s", storeErr.Code, storeErr.Message)
//	}
package errors
