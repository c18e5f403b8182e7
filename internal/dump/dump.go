// Copyright (C) 2024 HVM-Go Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package dump writes and reads post-mortem heap snapshots: a flat
// position->cell array, zstd-compressed the way the teacher compresses
// columnar data (ion/zion/compress.go) and checksummed with blake2b the
// way the teacher derives stable content ids elsewhere in the pack.
// Intended for debugging a stuck or runaway reduction, never on the
// hot path.
package dump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

// magic identifies a dumped heap snapshot, mirroring the teacher's
// 4-byte magic-marker convention for framed binary formats.
var magic = [4]byte{'h', 'v', 'm', '1'}

// Snapshot is a flat, position-indexed view of heap cells,
// suitable for diffing two runs of the same reduction across different
// worker counts.
type Snapshot struct {
	Cells []uint64
}

// Write encodes snap as: magic, cell count, blake2b-256 checksum of the
// raw cell bytes, then the zstd-compressed cell bytes.
func Write(w io.Writer, snap Snapshot) error {
	raw := make([]byte, 8*len(snap.Cells))
	for i, c := range snap.Cells {
		binary.LittleEndian.PutUint64(raw[i*8:], c)
	}
	sum := blake2b.Sum256(raw)

	var buf bytes.Buffer
	buf.Write(magic[:])
	var lenField [8]byte
	binary.LittleEndian.PutUint64(lenField[:], uint64(len(snap.Cells)))
	buf.Write(lenField[:])
	buf.Write(sum[:])

	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("dump: new zstd encoder: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return fmt.Errorf("dump: compress snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("dump: close zstd encoder: %w", err)
	}

	_, err = w.Write(buf.Bytes())
	return err
}

// Read decodes a Snapshot previously written by Write, verifying its
// checksum.
func Read(r io.Reader) (Snapshot, error) {
	header := make([]byte, 4+8+32)
	if _, err := io.ReadFull(r, header); err != nil {
		return Snapshot{}, fmt.Errorf("dump: read header: %w", err)
	}
	if !bytes.Equal(header[:4], magic[:]) {
		return Snapshot{}, fmt.Errorf("dump: bad magic %x", header[:4])
	}
	n := binary.LittleEndian.Uint64(header[4:12])
	wantSum := header[12:44]

	dec, err := zstd.NewReader(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("dump: new zstd decoder: %w", err)
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return Snapshot{}, fmt.Errorf("dump: decompress snapshot: %w", err)
	}
	if uint64(len(raw)) != n*8 {
		return Snapshot{}, fmt.Errorf("dump: expected %d cell bytes, got %d", n*8, len(raw))
	}
	gotSum := blake2b.Sum256(raw)
	if !bytes.Equal(gotSum[:], wantSum) {
		return Snapshot{}, fmt.Errorf("dump: checksum mismatch, snapshot is corrupt")
	}

	cells := make([]uint64, n)
	for i := range cells {
		cells[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}
	return Snapshot{Cells: cells}, nil
}
