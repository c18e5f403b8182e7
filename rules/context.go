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

// Package rules implements the ten built-in interaction-net rewrite
// rules (spec.md §4.3) and the dispatch contract for user-defined
// function (CAL) rules supplied by the (out-of-scope) front-end.
package rules

import (
	"github.com/hvm-go/hvmcore/heap"
	"github.com/hvm-go/hvmcore/internal/term"
)

// Demand lets a Step0 callback ask the weak-head reducer to descend
// into one of the CAL node's argument positions before pattern matching
// is attempted again — the "pre-reduction demand" of spec.md §4.3. A
// Step0 callback that finds an argument not yet in WHNF calls Need with
// that argument's absolute position instead of (or in addition to, on a
// later call once satisfied) performing a rewrite.
type Demand struct {
	pos   uint64
	asked bool
}

// Need requests that the reducer descend into the node at pos before
// this CAL is revisited.
func (d *Demand) Need(pos uint64) {
	d.pos = pos
	d.asked = true
}

// Asked reports whether Need was called, and the requested position.
func (d *Demand) Asked() (uint64, bool) { return d.pos, d.asked }

// Step0 is a pre-reduction-demand callback: given the host position and
// CAL pointer, it either requests evaluation of a strict argument (via
// Demand.Need), performs an immediate rewrite and returns true, or
// leaves the node alone (returns false, Demand untouched) because every
// argument it needs is already in WHNF and step 1 should run.
type Step0 func(ctx *Context, host uint64, cal term.Ptr, demand *Demand) bool

// Step1 is a rule-matching callback: once arguments are sufficiently
// reduced, it matches patterns and builds the RHS from fresh
// allocations, substituting each bound variable, and returns whether it
// rewrote the node (spec.md §4.3, §6).
type Step1 func(ctx *Context, host uint64, cal term.Ptr) bool

// Step is an alias of Step1, the signature of a rule that never needs
// to demand further reduction. Step0 entries have a different
// signature and cannot use it.
type Step = Step1

// FuncTable is the rule-table contract the compiler supplies: parallel
// arrays indexed by function id.
type FuncTable struct {
	Arity []int
	Name  []string
	Step0 []Step0
	Step1 []Step1
}

// ArityOf returns the arity of a CTR or CAL pointer: Arity indexed by
// the pointer's ext id. Constructors and functions share the one Arity
// slice; an id outside it (or a nil table) has arity 0.
func (ft *FuncTable) ArityOf(p term.Ptr) int {
	id := p.Ext()
	if ft == nil || int(id) >= len(ft.Arity) {
		return 0
	}
	return ft.Arity[id]
}

// NameOf returns the display name for a CTR/CAL id, or "" if unknown.
func (ft *FuncTable) NameOf(id uint64) string {
	if ft == nil || int(id) >= len(ft.Name) {
		return ""
	}
	return ft.Name[id]
}

// Context bundles everything a rule needs: the worker's private arena
// (for Alloc/NextColor/Cost) and the shared heap (for Ask/Link/Subst/
// locks), plus the function table for CAL arity lookups and dispatch.
type Context struct {
	Arena *heap.Arena
	Heap  *heap.Heap
	Funcs *FuncTable
}

// Ari returns the arity of whatever term points at, dispatching to the
// function table for CTR/CAL.
func (c *Context) Ari(t term.Ptr) int {
	switch t.Tag() {
	case term.CTR, term.CAL:
		return c.Funcs.ArityOf(t)
	case term.LAM, term.APP, term.SUP, term.OP2:
		return 2
	case term.DP0, term.DP1:
		return 3
	default:
		return 0
	}
}

// Arg reads the n-th slot of the node term points to.
func (c *Context) Arg(t term.Ptr, n uint64) term.Ptr {
	return c.Heap.Ask(t.Loc(n))
}

// AtomicArg reads the n-th slot of the node term points to with acquire
// semantics, for slots that may be owned by another worker (the binder
// slot of a LAM reached through a VAR, or the endpoint slot of a DUP
// reached through a DP0/DP1).
func (c *Context) AtomicArg(t term.Ptr, n uint64) term.Ptr {
	return c.Heap.AtomicAsk(t.Loc(n))
}
