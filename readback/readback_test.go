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

package readback

import (
	"testing"

	"github.com/hvm-go/hvmcore/heap"
	"github.com/hvm-go/hvmcore/internal/term"
	"github.com/hvm-go/hvmcore/symtab"
)

func TestStringRendersNum(t *testing.T) {
	h, err := heap.New(1, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	got := String(h, term.MkNum(42))
	if got != "42" {
		t.Fatalf("expected %q, got %q", "42", got)
	}
}

func TestStringRendersLambdaWithBoundVar(t *testing.T) {
	h, err := heap.New(1, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	a := heap.NewArena(h, 0, 8, 0)

	lamLoc := a.Alloc(2)
	h.Link(lamLoc+0, term.MkArg(0))
	h.Link(lamLoc+1, term.MkVar(lamLoc))

	got := String(h, term.MkLam(lamLoc))
	if got != "@x0 x0" {
		t.Fatalf("expected %q, got %q", "@x0 x0", got)
	}
}

func TestStringRendersErasedBinderAsUnderscore(t *testing.T) {
	h, err := heap.New(1, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	a := heap.NewArena(h, 0, 8, 0)

	lamLoc := a.Alloc(2)
	h.Link(lamLoc+0, term.MkEra())
	h.Link(lamLoc+1, term.MkNum(9))

	got := String(h, term.MkLam(lamLoc))
	if got != "@_ 9" {
		t.Fatalf("expected %q, got %q", "@_ 9", got)
	}
}

func TestStringRendersCtrWithInternedName(t *testing.T) {
	h, err := heap.New(1, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	a := heap.NewArena(h, 0, 8, 0)

	tab := symtab.New()
	pairID := tab.Intern("Pair", 2)

	ctrLoc := a.Alloc(2)
	h.Link(ctrLoc+0, term.MkNum(1))
	h.Link(ctrLoc+1, term.MkNum(2))

	w := New(h, tab, 0)
	got := w.String(term.MkCtr(pairID, ctrLoc))
	if got != "(Pair 1 2)" {
		t.Fatalf("expected %q, got %q", "(Pair 1 2)", got)
	}
}

func TestStringRendersUnnamedCtrWithDollarFallback(t *testing.T) {
	h, err := heap.New(1, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	got := String(h, term.MkCtr(7, 0))
	if got != "($7)" {
		t.Fatalf("expected %q, got %q", "($7)", got)
	}
}

func TestStringRendersSupWithoutDirection(t *testing.T) {
	h, err := heap.New(1, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	a := heap.NewArena(h, 0, 8, 0)

	supLoc := a.Alloc(2)
	h.Link(supLoc+0, term.MkNum(1))
	h.Link(supLoc+1, term.MkNum(2))

	got := String(h, term.MkSup(5, supLoc))
	if got != "<1 2>" {
		t.Fatalf("expected %q, got %q", "<1 2>", got)
	}
}

func TestStringRendersOp2(t *testing.T) {
	h, err := heap.New(1, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	a := heap.NewArena(h, 0, 8, 0)

	op2Loc := a.Alloc(2)
	h.Link(op2Loc+0, term.MkNum(3))
	h.Link(op2Loc+1, term.MkNum(4))

	got := String(h, term.MkOp2(term.ADD, op2Loc))
	if got != "(+ 3 4)" {
		t.Fatalf("expected %q, got %q", "(+ 3 4)", got)
	}
}
