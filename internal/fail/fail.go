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

// Package fail holds the runtime's three fatal-abort conditions. None of
// these are recoverable: they indicate a degenerate graph, an exhausted
// heap, or a bug in a user rule implementation. Library code panics
// with a diagnostic message; nothing in this module recovers, so the
// panic ends the process.
package fail

import "fmt"

// OutOfHeap aborts because a worker's allocator could not advance its
// bump cursor past its owned region.
func OutOfHeap(tid int, wanted, have uint64) {
	panic(fmt.Sprintf("hvm: out of heap: worker %d wanted %d more cells, has %d left", tid, wanted, have))
}

// IllegalPointer aborts on a pointer that should be unreachable under
// the invariants of spec.md §3.3 — e.g. a VAR whose target is not a LAM
// binder slot, or a NIL tag reached during reduction.
func IllegalPointer(where string, tag fmt.Stringer) {
	panic(fmt.Sprintf("hvm: illegal pointer in %s: tag=%s", where, tag))
}

// Assert panics with msg if cond is false. Used at the handful of sites
// spec.md §9 calls out as "should assert rather than silently continue".
func Assert(cond bool, msg string) {
	if !cond {
		panic("hvm: assertion failed: " + msg)
	}
}
