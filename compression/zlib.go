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

// Package compression wraps and unwraps the legacy blob column's
// optional zlib compression, grounded on the original sqlite_file.py's
// use of Python's zlib module for the same column.
//
// klauspost/compress/zlib is a drop-in for compress/zlib with a faster
// DEFLATE implementation; callers never see the difference beyond
// throughput.
package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"

	storeerrors "github.com/dftimeline/tlstore/pkg/errors"
)

// Method names a storage metadata "compression_format" value.
type Method string

const (
	None Method = "none"
	Zlib Method = "zlib"
)

// Compress returns data unchanged for None, or zlib-compressed for
// Zlib. An unrecognized method yields ErrUnsupportedFormat.
func Compress(method Method, data []byte) ([]byte, error) {
	switch method {
	case None, "":
		return data, nil
	case Zlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, storeerrors.ErrBackendError.Wrap(err)
		}
		if err := w.Close(); err != nil {
			return nil, storeerrors.ErrBackendError.Wrap(err)
		}
		return buf.Bytes(), nil
	default:
		return nil, storeerrors.ErrUnsupportedFormat.WithDetail("compression_method", string(method))
	}
}

// Decompress reverses Compress. An unrecognized method yields
// ErrUnsupportedFormat; malformed zlib data yields ErrBackendError.
func Decompress(method Method, data []byte) ([]byte, error) {
	switch method {
	case None, "":
		return data, nil
	case Zlib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, storeerrors.ErrBackendError.Wrap(err)
		}
		defer r.Close()

		out, err := io.ReadAll(r)
		if err != nil {
			return nil, storeerrors.ErrBackendError.Wrap(err)
		}
		return out, nil
	default:
		return nil, storeerrors.ErrUnsupportedFormat.WithDetail("compression_method", string(method))
	}
}
