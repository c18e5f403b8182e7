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

// Package trace offers an optional, globally-toggled sink that rule
// implementations can write one line to per rewrite fired, useful for
// differential debugging between worker counts (spec.md §8's S2/S5
// scenarios: same reduction, different fork shape, must converge to
// the same rewrite count and result).
package trace

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

var (
	enabled atomic.Bool
	mu      sync.Mutex
	out     io.Writer
)

// Enable directs rule-fired lines to w. Passing a nil w disables
// tracing again.
func Enable(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
	enabled.Store(w != nil)
}

// On reports whether tracing is currently enabled, so hot call sites
// can skip formatting work entirely when it is not.
func On() bool {
	return enabled.Load()
}

// Rule logs that worker tid fired the named rule at heap position
// host. Safe for concurrent callers; a mutex serializes the
// interleaved per-worker lines the way the teacher's single traceout
// writer does.
func Rule(tid int, name string, host uint64) {
	if !enabled.Load() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "worker %d: %-14s @%d\n", tid, name, host)
}
