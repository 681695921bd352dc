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

package compression

import (
	"bytes"
	"testing"

	storeerrors "github.com/dftimeline/tlstore/pkg/errors"
)

func TestCompressDecompress_None(t *testing.T) {
	data := []byte("attribute container payload")

	compressed, err := Compress(None, data)
	if err != nil {
		t.Fatalf("Compress(None) error: %v", err)
	}
	if !bytes.Equal(compressed, data) {
		t.Error("None method must pass data through unchanged")
	}

	out, err := Decompress(None, compressed)
	if err != nil {
		t.Fatalf("Decompress(None) error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("round trip through None must return the original bytes")
	}
}

func TestCompressDecompress_Zlib(t *testing.T) {
	data := []byte(`{"timestamp":1700000000000000,"timestamp_desc":"mtime"}`)

	compressed, err := Compress(Zlib, data)
	if err != nil {
		t.Fatalf("Compress(Zlib) error: %v", err)
	}
	if bytes.Equal(compressed, data) {
		t.Error("zlib-compressed output should differ from the input")
	}

	out, err := Decompress(Zlib, compressed)
	if err != nil {
		t.Fatalf("Decompress(Zlib) error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("round trip = %q, want %q", out, data)
	}
}

func TestDecompress_MalformedZlibData(t *testing.T) {
	_, err := Decompress(Zlib, []byte("not zlib data"))
	if err == nil {
		t.Fatal("expected an error decompressing malformed zlib data")
	}
	if !storeerrors.Is(err, storeerrors.ErrBackendError) {
		t.Errorf("expected ErrBackendError, got %v", err)
	}
}

func TestCompress_UnsupportedMethod(t *testing.T) {
	_, err := Compress(Method("gzip"), []byte("x"))
	if !storeerrors.Is(err, storeerrors.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
