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

// Package symtab interns constructor and function names into the
// stable small integers that live in a Ptr's 24-bit ext field
// (spec.md §3.2, §6). The front end (out of scope) builds one Table
// while compiling a program; the core only ever reads it through
// rules.FuncTable once compilation is done.
//
// Interning is keyed by SipHash over the name bytes (the same keyed
// hash the teacher uses over column values in vm/interphash.go) rather
// than Go's built-in map hash, so the probing sequence is independent
// of map-randomization seeds and stable across a process's lifetime —
// useful when a dumped heap snapshot (internal/dump) needs to be
// replayed against a freshly-loaded Table and land on the same ids.
package symtab

import (
	"fmt"

	"github.com/dchest/siphash"
	"golang.org/x/exp/slices"
)

// tableKey0/tableKey1 are the fixed SipHash keys used to hash names.
// They need not be secret — collision-resistance, not secrecy, is the
// property this table relies on — so they are simply fixed constants
// rather than randomly generated per process.
const (
	tableKey0 = 0x9ae16a3b2f90404f
	tableKey1 = 0xc2b2ae3d27d4eb4f
)

// entry is one interned symbol.
type entry struct {
	name  string
	arity int
}

// Table maps names to ids and back. Ids are assigned sequentially in
// registration order (matching how the original's compiler emits a
// dense GENERATED_REWRITE_RULES array indexed 0..N-1); the SipHash
// table only accelerates the name->id direction.
type Table struct {
	entries []entry
	byHash  map[uint64][]uint64 // siphash(name) -> candidate ids, probed by exact name comparison
}

// New creates an empty symbol table.
func New() *Table {
	return &Table{byHash: make(map[uint64][]uint64)}
}

func hashName(name string) uint64 {
	return siphash.Hash(tableKey0, tableKey1, []byte(name))
}

// Intern registers name with the given arity and returns its id. If
// name is already registered, Intern returns the existing id and
// ignores arity (the front end is expected never to register the same
// name with two different arities; that is a front-end bug, not a
// runtime condition, so this is silent rather than an error).
func (t *Table) Intern(name string, arity int) uint64 {
	h := hashName(name)
	for _, id := range t.byHash[h] {
		if t.entries[id].name == name {
			return id
		}
	}
	id := uint64(len(t.entries))
	t.entries = append(t.entries, entry{name: name, arity: arity})
	t.byHash[h] = append(t.byHash[h], id)
	return id
}

// Lookup returns the id registered for name, if any.
func (t *Table) Lookup(name string) (uint64, bool) {
	h := hashName(name)
	for _, id := range t.byHash[h] {
		if t.entries[id].name == name {
			return id, true
		}
	}
	return 0, false
}

// Name returns the display name for id, or "" if id is out of range.
func (t *Table) Name(id uint64) string {
	if int(id) >= len(t.entries) {
		return ""
	}
	return t.entries[id].name
}

// Arity returns the registered arity for id, or 0 if id is out of
// range.
func (t *Table) Arity(id uint64) int {
	if int(id) >= len(t.entries) {
		return 0
	}
	return t.entries[id].arity
}

// Len returns how many symbols are registered.
func (t *Table) Len() int { return len(t.entries) }

// Names returns every registered name in deterministic (sorted) order,
// for reproducible debug output and test golden files.
func (t *Table) Names() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.name
	}
	slices.Sort(names)
	return names
}

// ArityTable renders the table as parallel Name/Arity slices indexed by
// id, the shape rules.FuncTable expects once Step0/Step1 callbacks are
// attached by the front end.
func (t *Table) ArityTable() (names []string, arities []int) {
	names = make([]string, len(t.entries))
	arities = make([]int, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.name
		arities[i] = e.arity
	}
	return names, arities
}

// String implements fmt.Stringer for debug logging.
func (t *Table) String() string {
	return fmt.Sprintf("symtab{%d symbols}", len(t.entries))
}
