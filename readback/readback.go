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

// Package readback walks a normalized graph and renders it back to HVM
// source text (spec.md §6). It is a library consumer of the pointers
// the core produces, not an external tool: spec.md's "no readback
// pretty-printer as an external tool" non-goal excludes a standalone
// CLI for it, not the walker itself.
//
// The direction stack that resolves which branch of a superposition to
// print, one per color, is bounded by a configurable MaxColors: a color
// beyond that bound falls back to printing both branches as `<a b>`
// rather than guessing a direction (spec.md §6, and this expansion's
// supplemented-feature note on DIRS_MCAP).
package readback

import (
	"strconv"
	"strings"

	"github.com/hvm-go/hvmcore/heap"
	"github.com/hvm-go/hvmcore/internal/term"
	"github.com/hvm-go/hvmcore/symtab"
)

// DefaultMaxColors mirrors the original's DIRS_MCAP bound on how many
// distinct superposition colors readback can track a direction for.
const DefaultMaxColors = 0x10000

// Walker renders terms reachable from a root pointer into HVM source
// text.
type Walker struct {
	heap      *heap.Heap
	names     *symtab.Table
	maxColors uint64

	dirs []dirStack       // per-color direction stack
	vars map[uint64]int   // lambda binder position -> display index
	next int
}

type dirStack struct {
	stack []int // 0 = take left (DP0 side), 1 = take right (DP1 side)
}

func (d *dirStack) push(v int)  { d.stack = append(d.stack, v) }
func (d *dirStack) pop()        { d.stack = d.stack[:len(d.stack)-1] }
func (d *dirStack) top() (int, bool) {
	if len(d.stack) == 0 {
		return 0, false
	}
	return d.stack[len(d.stack)-1], true
}

// New builds a Walker over h, naming CTR/CAL nodes via names (nil is
// fine: unnamed functions print as "$<id>", matching the original's
// fallback when id_to_name_data has no entry). maxColors of 0 uses
// DefaultMaxColors.
func New(h *heap.Heap, names *symtab.Table, maxColors uint64) *Walker {
	if maxColors == 0 {
		maxColors = DefaultMaxColors
	}
	return &Walker{
		heap:      h,
		names:     names,
		maxColors: maxColors,
		dirs:      make([]dirStack, maxColors),
		vars:      make(map[uint64]int),
	}
}

// String renders the term at root as HVM source text.
func (w *Walker) String(root term.Ptr) string {
	w.collectVars(root, make(map[term.Ptr]bool))
	var b strings.Builder
	w.write(&b, root)
	return b.String()
}

// collectVars walks the graph once to number every still-bound lambda
// argument in first-encounter order, the Go equivalent of the
// original's readback_vars pre-pass (there done with a linear-scan
// Stk; here with a map for O(1) lookup during the main walk).
func (w *Walker) collectVars(t term.Ptr, seen map[term.Ptr]bool) {
	if seen[t] {
		return
	}
	seen[t] = true
	switch t.Tag() {
	case term.LAM:
		argm := w.heap.Ask(t.Loc(0))
		if argm.Tag() != term.ERA {
			w.bindVar(t.Loc(0))
		}
		w.collectVars(w.heap.Ask(t.Loc(1)), seen)
	case term.APP, term.SUP:
		w.collectVars(w.heap.Ask(t.Loc(0)), seen)
		w.collectVars(w.heap.Ask(t.Loc(1)), seen)
	case term.DP0, term.DP1:
		w.collectVars(w.heap.AtomicAsk(t.Loc(2)), seen)
	case term.OP2:
		w.collectVars(w.heap.Ask(t.Loc(0)), seen)
		w.collectVars(w.heap.Ask(t.Loc(1)), seen)
	case term.CTR, term.CAL:
		arity := w.arity(t)
		for i := 0; i < arity; i++ {
			w.collectVars(w.heap.Ask(t.Loc(uint64(i))), seen)
		}
	}
}

func (w *Walker) bindVar(pos uint64) {
	if _, ok := w.vars[pos]; ok {
		return
	}
	w.vars[pos] = w.next
	w.next++
}

func (w *Walker) arity(t term.Ptr) int {
	if w.names == nil {
		return 0
	}
	return w.names.Arity(t.Ext())
}

func (w *Walker) funcName(id uint64) string {
	if w.names != nil {
		if name := w.names.Name(id); name != "" {
			return name
		}
	}
	return "$" + strconv.FormatUint(id, 10)
}

func (w *Walker) write(b *strings.Builder, t term.Ptr) {
	switch t.Tag() {
	case term.LAM:
		b.WriteByte('@')
		argm := w.heap.Ask(t.Loc(0))
		if argm.Tag() == term.ERA {
			b.WriteByte('_')
		} else {
			b.WriteString("x" + strconv.Itoa(w.vars[t.Loc(0)]))
		}
		b.WriteByte(' ')
		w.write(b, w.heap.Ask(t.Loc(1)))

	case term.APP:
		b.WriteByte('(')
		w.write(b, w.heap.Ask(t.Loc(0)))
		b.WriteByte(' ')
		w.write(b, w.heap.Ask(t.Loc(1)))
		b.WriteByte(')')

	case term.SUP:
		col := t.Ext()
		if col < w.maxColors {
			if dir, ok := w.dirs[col].top(); ok {
				if dir == 0 {
					w.write(b, w.heap.Ask(t.Loc(0)))
				} else {
					w.write(b, w.heap.Ask(t.Loc(1)))
				}
				return
			}
		}
		b.WriteByte('<')
		w.write(b, w.heap.Ask(t.Loc(0)))
		b.WriteByte(' ')
		w.write(b, w.heap.Ask(t.Loc(1)))
		b.WriteByte('>')

	case term.DP0, term.DP1:
		col := t.Ext()
		dir := 0
		if t.Tag() == term.DP1 {
			dir = 1
		}
		if col < w.maxColors {
			w.dirs[col].push(dir)
			defer w.dirs[col].pop()
		}
		w.write(b, w.heap.AtomicAsk(t.Loc(2)))

	case term.OP2:
		b.WriteByte('(')
		b.WriteString(term.OpSymbol(t.Ext()))
		b.WriteByte(' ')
		w.write(b, w.heap.Ask(t.Loc(0)))
		b.WriteByte(' ')
		w.write(b, w.heap.Ask(t.Loc(1)))
		b.WriteByte(')')

	case term.NUM:
		b.WriteString(strconv.FormatUint(t.Num(), 10))

	case term.CTR, term.CAL:
		arity := w.arity(t)
		b.WriteByte('(')
		b.WriteString(w.funcName(t.Ext()))
		for i := 0; i < arity; i++ {
			b.WriteByte(' ')
			w.write(b, w.heap.Ask(t.Loc(uint64(i))))
		}
		b.WriteByte(')')

	case term.VAR:
		idx, ok := w.vars[t.Val()]
		if !ok {
			idx = w.next
			w.next++
			w.vars[t.Val()] = idx
		}
		b.WriteString("x" + strconv.Itoa(idx))

	case term.ERA:
		b.WriteByte('*')

	default:
		b.WriteString("<?" + t.Tag().String() + "?>")
	}
}

// String renders root using a fresh one-shot Walker with default
// settings and no name table; a convenience for tests and simple call
// sites that don't need custom naming or color bounds.
func String(h *heap.Heap, root term.Ptr) string {
	return New(h, nil, 0).String(root)
}
