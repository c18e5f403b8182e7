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

package reduce

import (
	"testing"

	"github.com/hvm-go/hvmcore/heap"
	"github.com/hvm-go/hvmcore/internal/term"
	"github.com/hvm-go/hvmcore/rules"
)

func newTestContext(t *testing.T) (*rules.Context, func()) {
	t.Helper()
	h, err := heap.New(1, 8192)
	if err != nil {
		t.Fatal(err)
	}
	a := heap.NewArena(h, 0, 16, 0)
	ctx := &rules.Context{Arena: a, Heap: h, Funcs: &rules.FuncTable{}}
	return ctx, func() { h.Close() }
}

// TestReduceAppLam drives (\x.x) 42 to weak head normal form and expects
// the NUM 42 at the root.
func TestReduceAppLam(t *testing.T) {
	ctx, done := newTestContext(t)
	defer done()
	h := ctx.Heap
	a := ctx.Arena

	lamLoc := a.Alloc(2)
	h.Link(lamLoc+0, term.MkArg(0))
	h.Link(lamLoc+1, term.MkVar(lamLoc))

	appLoc := a.Alloc(2)
	h.Link(appLoc+0, term.MkLam(lamLoc))
	h.Link(appLoc+1, term.MkNum(42))

	root := a.Alloc(1)
	h.Link(root, term.MkApp(appLoc))

	got := Reduce(ctx, root, 1)
	if got.Tag() != term.NUM || got.Num() != 42 {
		t.Fatalf("expected NUM 42 at whnf, got %v", got)
	}
}

// TestReduceAppLamNested checks that reduction descends through a chain
// of two applications: ((\x.(\y.x)) 7) 9 should reduce to 7 (the outer
// application discards its argument, matching affine/const-function
// behavior once the inner redex fires).
func TestReduceNestedApp(t *testing.T) {
	ctx, done := newTestContext(t)
	defer done()
	h := ctx.Heap
	a := ctx.Arena

	// inner: \y.7  (ignores y)
	innerLam := a.Alloc(2)
	h.Link(innerLam+0, term.MkArg(0))
	h.Link(innerLam+1, term.MkNum(7))

	// outer: \x.(inner lambda), x unused
	outerLam := a.Alloc(2)
	h.Link(outerLam+0, term.MkArg(0))
	h.Link(outerLam+1, term.MkLam(innerLam))

	// app1 = outer 9
	app1 := a.Alloc(2)
	h.Link(app1+0, term.MkLam(outerLam))
	h.Link(app1+1, term.MkNum(9))

	// app2 = app1 3   (applied to inner's unused arg)
	app2 := a.Alloc(2)
	h.Link(app2+0, term.MkApp(app1))
	h.Link(app2+1, term.MkNum(3))

	root := a.Alloc(1)
	h.Link(root, term.MkApp(app2))

	got := Reduce(ctx, root, 1)
	if got.Tag() != term.NUM || got.Num() != 7 {
		t.Fatalf("expected NUM 7, got %v", got)
	}
}

// TestReduceOp2Deep checks that an OP2 node nested under the root is
// entered and closed when slen == 1 (sequential budget), producing the
// summed NUM.
func TestReduceOp2Deep(t *testing.T) {
	ctx, done := newTestContext(t)
	defer done()
	h := ctx.Heap
	a := ctx.Arena

	op2Loc := a.Alloc(2)
	h.Link(op2Loc+0, term.MkNum(3))
	h.Link(op2Loc+1, term.MkNum(4))

	root := a.Alloc(1)
	h.Link(root, term.MkOp2(term.ADD, op2Loc))

	got := Reduce(ctx, root, 1)
	if got.Tag() != term.NUM || got.Num() != 7 {
		t.Fatalf("expected NUM 7, got %v", got)
	}
}

// TestReduceOp2NotEnteredWhenParallelBudget checks that a top-level OP2
// is left alone (not entered) when slen > 1 and the stack is empty —
// the parallel normalizer is expected to fork into its operands itself
// rather than have Reduce do it inline.
func TestReduceOp2NotEnteredWhenParallelBudget(t *testing.T) {
	ctx, done := newTestContext(t)
	defer done()
	h := ctx.Heap
	a := ctx.Arena

	op2Loc := a.Alloc(2)
	h.Link(op2Loc+0, term.MkNum(3))
	h.Link(op2Loc+1, term.MkNum(4))

	root := a.Alloc(1)
	op2 := term.MkOp2(term.ADD, op2Loc)
	h.Link(root, op2)

	got := Reduce(ctx, root, 4)
	if got.Tag() != term.OP2 {
		t.Fatalf("expected OP2 left untouched under parallel budget, got %v", got.Tag())
	}
}

// TestReduceDupLockedFallsBack checks that when a DUP node's lock is
// already held, Reduce treats the DP0 endpoint as an opaque value
// rather than blocking.
func TestReduceDupLockedFallsBack(t *testing.T) {
	ctx, done := newTestContext(t)
	defer done()
	h := ctx.Heap
	a := ctx.Arena

	dupLoc := a.Alloc(3)
	h.Link(dupLoc+0, term.MkArg(0))
	h.Link(dupLoc+1, term.MkArg(0))
	h.Link(dupLoc+2, term.MkNum(5))

	if !h.TryLock(dupLoc) {
		t.Fatal("expected to acquire lock in test setup")
	}
	// Lock is held by "someone else" for the duration of this Reduce call.

	root := a.Alloc(1)
	h.Link(root, term.MkDp0(0, dupLoc))

	got := Reduce(ctx, root, 1)
	if got.Tag() != term.DP0 {
		t.Fatalf("expected DP0 left as a value while locked, got %v", got.Tag())
	}
	h.Unlock(dupLoc)
}

// TestReduceDupSupAnnihilates drives a DP0 endpoint over a SUP of the
// same color through to its delivered value.
func TestReduceDupSupAnnihilates(t *testing.T) {
	ctx, done := newTestContext(t)
	defer done()
	h := ctx.Heap
	a := ctx.Arena

	supLoc := a.Alloc(2)
	h.Link(supLoc+0, term.MkNum(10))
	h.Link(supLoc+1, term.MkNum(20))

	dupLoc := a.Alloc(3)
	h.Link(dupLoc+0, term.MkArg(0))
	h.Link(dupLoc+1, term.MkArg(0))
	h.Link(dupLoc+2, term.MkSup(2, supLoc))

	root := a.Alloc(1)
	h.Link(root, term.MkDp0(2, dupLoc))

	got := Reduce(ctx, root, 1)
	if got.Tag() != term.NUM || got.Num() != 10 {
		t.Fatalf("expected DP0 to resolve to NUM 10, got %v", got)
	}
}
