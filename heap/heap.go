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

// Package heap implements the runtime's memory: a single mmap'd arena
// split into equal per-worker slices (spec.md §4.1), plus the shared
// spin-flag table that guards duplication-node traversal (spec.md §4.2,
// §5). Ownership never overlaps between workers; the only cross-worker
// mutation point is Heap.Subst.
package heap

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/hvm-go/hvmcore/internal/fail"
	"github.com/hvm-go/hvmcore/internal/term"
)

// Heap is the process-wide shared backing store: one mmap'd region of
// numWorkers*memSpace 64-bit cells, plus a parallel array of
// per-position spin flags, one uint32 each (not packed bytes). It never reallocates: workers is fixed at
// construction, matching the teacher's fixed-worker-count VMM design in
// vm/malloc.go.
type Heap struct {
	memSpace uint64 // cells owned by each worker
	workers  int

	region []byte   // mmap'd backing bytes, len == workers*memSpace*8
	cells  []uint64 // unsafe view of region as u64 words

	locks []uint32 // one spin flag per heap position, 0=unlocked 1=locked
}

// New reserves a heap able to address workers*memSpace cells. The region
// is allocated with mmap (anonymous, private) rather than a plain Go
// slice so that growth beyond the configured high-water mark can later
// be guarded with Mprotect, mirroring vm/malloc.go's VMM reservation.
func New(workers int, memSpace uint64) (*Heap, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("hvm: heap needs at least 1 worker, got %d", workers)
	}
	total := uint64(workers) * memSpace
	nbytes := int(total * 8)
	if nbytes <= 0 {
		return nil, fmt.Errorf("hvm: heap size overflow for %d workers * %d words", workers, memSpace)
	}
	region, err := unix.Mmap(-1, 0, nbytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("hvm: mmap %d bytes: %w", nbytes, err)
	}
	cells := unsafe.Slice((*uint64)(unsafe.Pointer(&region[0])), total)
	return &Heap{
		memSpace: memSpace,
		workers:  workers,
		region:   region,
		cells:    cells,
		locks:    make([]uint32, total),
	}, nil
}

// Close releases the mmap'd region. Not required for short-lived runs
// (the process exiting reclaims it), but provided for long-lived hosts
// (tests, servers) that construct many heaps.
func (h *Heap) Close() error {
	if h.region == nil {
		return nil
	}
	err := unix.Munmap(h.region)
	h.region = nil
	h.cells = nil
	return err
}

// MemSpace returns the number of cells owned by each worker.
func (h *Heap) MemSpace() uint64 { return h.memSpace }

// Workers returns the configured worker count.
func (h *Heap) Workers() int { return h.workers }

// Base returns the first position owned by worker tid.
func (h *Heap) Base(tid int) uint64 { return uint64(tid) * h.memSpace }

// Cells returns the raw backing array, every worker's region
// concatenated in tid order. Used by internal/dump to snapshot a run;
// callers must not retain it past a Close.
func (h *Heap) Cells() []uint64 { return h.cells }

// Ask reads the cell at pos with no ordering guarantee. Safe only when
// the caller owns pos (no concurrent writer can be racing).
func (h *Heap) Ask(pos uint64) term.Ptr {
	return term.Ptr(h.cells[pos])
}

// AtomicAsk reads the cell at pos with acquire semantics: it is the read
// half of the subst() release/acquire protocol (spec.md §4.2) and must
// be used whenever pos may be owned by another worker (VAR and DP0/DP1
// targets).
func (h *Heap) AtomicAsk(pos uint64) term.Ptr {
	return term.Ptr(atomic.LoadUint64(&h.cells[pos]))
}

// Link stores p into pos with no ordering guarantee. Safe only for
// positions the calling worker owns exclusively (fresh allocations, or
// cells within the currently-held node being rewritten).
func (h *Heap) Link(pos uint64, p term.Ptr) term.Ptr {
	h.cells[pos] = uint64(p)
	return p
}

// Subst delivers value to the slot a VAR or DP0/DP1 occurrence refers
// to. If the slot currently holds ERA, the binder was never used and
// the value is erased (handed to Collect) instead of stored. Otherwise
// the store uses release semantics so that whichever worker later reads
// this slot via AtomicAsk observes a fully constructed subterm, never a
// partially wired one. This is the *only* way one worker publishes a
// finished subterm into another worker's reachable graph (spec.md §4.2,
// §5).
func (h *Heap) Subst(arena *Arena, slot uint64, value term.Ptr) {
	cur := h.AtomicAsk(slot)
	if cur.Tag() == term.ERA {
		arena.Collect(value)
		return
	}
	atomic.StoreUint64(&h.cells[slot], uint64(value))
}

// TryLock attempts to acquire the spin flag guarding the duplication
// node at pos (always pos of slot 0 of a DUP node). It returns false if
// another worker already holds it; the caller must then abandon the
// traversal and treat the endpoint as a value (spec.md §5).
func (h *Heap) TryLock(pos uint64) bool {
	return atomic.CompareAndSwapUint32(&h.locks[pos], 0, 1)
}

// Unlock releases the spin flag at pos. Must only be called by the
// worker that last succeeded at TryLock(pos).
func (h *Heap) Unlock(pos uint64) {
	atomic.StoreUint32(&h.locks[pos], 0)
}

// DebugCell renders the tag/ext/val of a raw cell, mirroring
// original_source/src/runtime.c's debug_print_lnk.
func (h *Heap) DebugCell(pos uint64) string {
	p := h.Ask(pos)
	return fmt.Sprintf("%s:%x:%x", p.Tag(), p.Ext(), p.Val())
}

// AssertOwnership panics if pos does not fall within worker tid's
// region. Used by tests to check invariant 5 of spec.md §8 ("distinct
// workers never bump into overlapping positions"); Arena.Alloc does its
// own bounds check against MemSpace and does not call it.
func (h *Heap) AssertOwnership(tid int, pos uint64) {
	base := h.Base(tid)
	if pos < base || pos >= base+h.memSpace {
		fail.Assert(false, fmt.Sprintf("position %d is not owned by worker %d (region [%d,%d))", pos, tid, base, base+h.memSpace))
	}
}
