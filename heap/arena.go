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

package heap

import (
	"github.com/hvm-go/hvmcore/internal/fail"
	"github.com/hvm-go/hvmcore/internal/term"
)

// Arena is one worker's private view of a Heap: a bump cursor into its
// owned slice, a per-arity free-list stack, a rewrite-cost counter and a
// monotonic duplication-color source. No field here is ever touched by
// another worker — contention-free allocation is the entire point
// (spec.md §4.1).
type Arena struct {
	Heap *Heap
	Tid  int

	maxArity int
	cursor   uint64
	free     [][]uint64 // free[size] is a LIFO stack of reclaimed positions

	Cost     uint64 // rewrite counter; only the coordinator sums these across workers
	dupColor uint64
}

// NewArena creates a worker's allocator view over h. dupSeed is the
// starting duplication color, conventionally MAX_DUPS*tid/nworkers so
// that independently-seeded workers never pick colliding colors for
// independent DUP nodes (spec.md §4.6).
func NewArena(h *Heap, tid int, maxArity int, dupSeed uint64) *Arena {
	return &Arena{
		Heap:     h,
		Tid:      tid,
		maxArity: maxArity,
		free:     make([][]uint64, maxArity+1),
		dupColor: dupSeed,
	}
}

// Alloc returns a position such that size consecutive cells starting
// there are exclusive to this arena's worker. size 0 returns a sentinel
// position that is never dereferenced. Reclaimed blocks from Free are
// served before bumping the cursor.
func (a *Arena) Alloc(size int) uint64 {
	if size == 0 {
		return 0
	}
	fail.Assert(size <= a.maxArity, "allocation size exceeds configured MaxArity")
	if stack := a.free[size]; len(stack) > 0 {
		loc := stack[len(stack)-1]
		a.free[size] = stack[:len(stack)-1]
		return loc
	}
	if a.cursor+uint64(size) > a.Heap.MemSpace() {
		fail.OutOfHeap(a.Tid, uint64(size), a.Heap.MemSpace()-a.cursor)
	}
	loc := a.Heap.Base(a.Tid) + a.cursor
	a.cursor += uint64(size)
	return loc
}

// Free logically frees a size-cell block starting at loc: it does not
// zero the cells (a "freed" cell may still hold stale pointers — the
// reference implementation leaves garbage rather than risk double-use,
// spec.md §3.4), it just optionally makes loc available for reuse by a
// future Alloc of the same size.
func (a *Arena) Free(loc uint64, size int) {
	if size == 0 || size > a.maxArity {
		return
	}
	a.free[size] = append(a.free[size], loc)
}

// NextColor returns a fresh 24-bit duplication color. Colors are opaque:
// equal colors annihilate at DUP-SUP, distinct colors commute.
func (a *Arena) NextColor() uint64 {
	c := a.dupColor
	a.dupColor++
	return c & 0xFFFFFF
}

// IncCost bumps the rewrite counter. Every rule application calls this
// exactly once.
func (a *Arena) IncCost() { a.Cost++ }

// Cursor returns the current bump-allocation offset within this
// worker's region. Exposed for tests that assert an operation performed
// no allocation (e.g. duplicating a NUM or a nullary CTR).
func (a *Arena) Cursor() uint64 { return a.cursor }

// Collect is the garbage collector hook. Per spec.md §9's Open Question,
// the reference implementation's collect() is a documented no-op: the
// system is designed so no global sweep is necessary, and correctness is
// defined independent of reclamation. This seam exists so a future GC
// pass (recursively freeing the subgraph rooted at an erased term) has
// exactly one call site to fill in; it must never be inlined away.
func (a *Arena) Collect(_ term.Ptr) {
	// Intentionally empty — see the doc comment above and DESIGN.md's
	// Open Question decisions.
}
