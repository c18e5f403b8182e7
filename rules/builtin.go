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

package rules

import (
	"github.com/hvm-go/hvmcore/internal/term"
	"github.com/hvm-go/hvmcore/internal/trace"
)

// AppLam implements ((λx.B) A) -> B, x <- A. host holds the APP node;
// app is the APP pointer, lam is the value found in its function slot.
func AppLam(ctx *Context, host uint64, app, lam term.Ptr) {
	trace.Rule(ctx.Arena.Tid, "APP-LAM", host)
	ctx.Arena.IncCost()
	h := ctx.Heap
	body := ctx.Arg(lam, 1)
	h.Link(host, body)
	h.Subst(ctx.Arena, lam.Loc(0), ctx.Arg(app, 1))
}

// AppSup implements ({a b} c) -> {(a c0) (b c1)}, dup c0 c1 = c. host
// holds the APP node; app is the APP pointer, sup is the SUP found in
// its function slot.
func AppSup(ctx *Context, host uint64, app, sup term.Ptr) {
	trace.Rule(ctx.Arena.Tid, "APP-SUP", host)
	ctx.Arena.IncCost()
	h := ctx.Heap
	a := ctx.Arena
	app0 := a.Alloc(2)
	app1 := a.Alloc(2)
	let0 := a.Alloc(3)
	par0 := a.Alloc(2)
	color := sup.Ext()
	h.Link(let0+0, term.MkArg(0))
	h.Link(let0+1, term.MkArg(0))
	h.Link(let0+2, ctx.Arg(app, 1))
	h.Link(app0+1, term.MkDp0(color, let0))
	h.Link(app0+0, ctx.Arg(sup, 0))
	h.Link(app1+0, ctx.Arg(sup, 1))
	h.Link(app1+1, term.MkDp1(color, let0))
	h.Link(par0+0, term.MkApp(app0))
	h.Link(par0+1, term.MkApp(app1))
	h.Link(host, term.MkSup(color, par0))
}

// DupLam implements `dup r s = λx.B`: dup is the DP0/DP1 pointer being
// reduced (whose Val() is the DUP node's base position and whose Ext()
// is its color), lam is the LAM found at dup.Loc(2).
func DupLam(ctx *Context, dup, lam term.Ptr) {
	trace.Rule(ctx.Arena.Tid, "DUP-LAM", dup.Val())
	ctx.Arena.IncCost()
	h := ctx.Heap
	a := ctx.Arena
	color := dup.Ext()
	let0 := a.Alloc(3)
	par0 := a.Alloc(2)
	lam0 := a.Alloc(2)
	lam1 := a.Alloc(2)
	h.Link(let0+0, term.MkArg(0))
	h.Link(let0+1, term.MkArg(0))
	h.Link(let0+2, ctx.Arg(lam, 1))
	h.Link(par0+0, term.MkVar(lam0))
	h.Link(par0+1, term.MkVar(lam1))
	h.Link(lam0+0, term.MkArg(0))
	h.Link(lam0+1, term.MkDp0(color, let0))
	h.Link(lam1+0, term.MkArg(0))
	h.Link(lam1+1, term.MkDp1(color, let0))
	h.Subst(a, dup.Loc(0), term.MkLam(lam0))
	h.Subst(a, dup.Loc(1), term.MkLam(lam1))
	h.Subst(a, lam.Loc(0), term.MkSup(color, par0))
}

// DupSupEqual implements `dup r s = {a b}` when the DUP and SUP colors
// match: annihilation, r <- a, s <- b.
func DupSupEqual(ctx *Context, dup, sup term.Ptr) {
	trace.Rule(ctx.Arena.Tid, "DUP-SUP-EQ", dup.Val())
	ctx.Arena.IncCost()
	h := ctx.Heap
	h.Subst(ctx.Arena, dup.Loc(0), ctx.Arg(sup, 0))
	h.Subst(ctx.Arena, dup.Loc(1), ctx.Arg(sup, 1))
}

// DupSupUnequal implements `dup r s = {a b}` when colors differ:
// commutation. r and s each become a superposition of freshly-created
// duplications of a and b.
func DupSupUnequal(ctx *Context, dup, sup term.Ptr) {
	trace.Rule(ctx.Arena.Tid, "DUP-SUP-NE", dup.Val())
	ctx.Arena.IncCost()
	h := ctx.Heap
	a := ctx.Arena
	dColor := dup.Ext()
	sColor := sup.Ext()
	par0 := a.Alloc(2)
	let0 := a.Alloc(3)
	par1 := a.Alloc(2)
	let1 := a.Alloc(3)
	h.Link(let0+0, term.MkArg(0))
	h.Link(let0+1, term.MkArg(0))
	h.Link(let0+2, ctx.Arg(sup, 0))
	h.Link(let1+0, term.MkArg(0))
	h.Link(let1+1, term.MkArg(0))
	h.Link(let1+2, ctx.Arg(sup, 1))
	h.Link(par1+0, term.MkDp1(dColor, let0))
	h.Link(par1+1, term.MkDp1(dColor, let1))
	h.Link(par0+0, term.MkDp0(dColor, let0))
	h.Link(par0+1, term.MkDp0(dColor, let1))
	h.Subst(a, dup.Loc(0), term.MkSup(sColor, par0))
	h.Subst(a, dup.Loc(1), term.MkSup(sColor, par1))
}

// DupNum implements `dup r s = N`: numbers are freely copyable, no
// allocation needed.
func DupNum(ctx *Context, dup, num term.Ptr) {
	trace.Rule(ctx.Arena.Tid, "DUP-NUM", dup.Val())
	ctx.Arena.IncCost()
	h := ctx.Heap
	h.Subst(ctx.Arena, dup.Loc(0), num)
	h.Subst(ctx.Arena, dup.Loc(1), num)
}

// DupCtr implements `dup r s = (K a1 ... aN)`: each argument gets its
// own DUP, and r/s become constructors of the corresponding endpoints.
// Nullary constructors are shared directly with no allocation.
func DupCtr(ctx *Context, dup, ctr term.Ptr) {
	trace.Rule(ctx.Arena.Tid, "DUP-CTR", dup.Val())
	ctx.Arena.IncCost()
	h := ctx.Heap
	a := ctx.Arena
	color := dup.Ext()
	id := ctr.Ext()
	arity := ctx.Ari(ctr)
	if arity == 0 {
		h.Subst(a, dup.Loc(0), term.MkCtr(id, 0))
		h.Subst(a, dup.Loc(1), term.MkCtr(id, 0))
		return
	}
	ctr0 := a.Alloc(arity)
	ctr1 := a.Alloc(arity)
	for i := 0; i < arity; i++ {
		leti := a.Alloc(3)
		h.Link(leti+0, term.MkArg(0))
		h.Link(leti+1, term.MkArg(0))
		h.Link(leti+2, ctx.Arg(ctr, uint64(i)))
		h.Link(ctr0+uint64(i), term.MkDp0(color, leti))
		h.Link(ctr1+uint64(i), term.MkDp1(color, leti))
	}
	h.Subst(a, dup.Loc(0), term.MkCtr(id, ctr0))
	h.Subst(a, dup.Loc(1), term.MkCtr(id, ctr1))
}

// DupEra implements `dup r s = *`: both endpoints erase.
func DupEra(ctx *Context, dup term.Ptr) {
	trace.Rule(ctx.Arena.Tid, "DUP-ERA", dup.Val())
	ctx.Arena.IncCost()
	h := ctx.Heap
	h.Subst(ctx.Arena, dup.Loc(0), term.MkEra())
	h.Subst(ctx.Arena, dup.Loc(1), term.MkEra())
}

// Op2Num implements (op a b) -> N when both operands are NUM, reducing
// in place under the 60-bit mask. host holds the OP2 node.
func Op2Num(ctx *Context, host uint64, op2, a, b term.Ptr) {
	trace.Rule(ctx.Arena.Tid, "OP2-NUM", host)
	ctx.Arena.IncCost()
	c := term.ApplyOp2(op2.Ext(), a.Num(), b.Num())
	ctx.Heap.Link(host, term.MkNum(c))
}

// Op2Sup implements the OP2-SUP commutation for whichever operand is a
// SUP (supIsLeft means arg0 is the SUP, otherwise arg1 is). host holds the
// OP2 node; other is the non-SUP operand.
func Op2Sup(ctx *Context, host uint64, op2, sup, other term.Ptr, supIsLeft bool) {
	trace.Rule(ctx.Arena.Tid, "OP2-SUP", host)
	ctx.Arena.IncCost()
	h := ctx.Heap
	a := ctx.Arena
	op := op2.Ext()
	color := sup.Ext()
	op20 := a.Alloc(2)
	op21 := a.Alloc(2)
	let0 := a.Alloc(3)
	par0 := a.Alloc(2)
	h.Link(let0+0, term.MkArg(0))
	h.Link(let0+1, term.MkArg(0))
	h.Link(let0+2, other)
	if supIsLeft {
		h.Link(op20+1, term.MkDp0(color, let0))
		h.Link(op20+0, ctx.Arg(sup, 0))
		h.Link(op21+0, ctx.Arg(sup, 1))
		h.Link(op21+1, term.MkDp1(color, let0))
	} else {
		h.Link(op20+0, term.MkDp0(color, let0))
		h.Link(op20+1, ctx.Arg(sup, 0))
		h.Link(op21+1, ctx.Arg(sup, 1))
		h.Link(op21+0, term.MkDp1(color, let0))
	}
	h.Link(par0+0, term.MkOp2(op, op20))
	h.Link(par0+1, term.MkOp2(op, op21))
	h.Link(host, term.MkSup(color, par0))
}

// CalSup implements the call-commutes-through-superposition rule: a
// user-function argument at position n is a SUP, so every *other*
// argument gets duplicated and the call becomes a superposition of two
// calls, one per side of arg n. host holds the CAL node.
func CalSup(ctx *Context, host uint64, cal, argn term.Ptr, n int) {
	trace.Rule(ctx.Arena.Tid, "CAL-SUP", host)
	ctx.Arena.IncCost()
	h := ctx.Heap
	a := ctx.Arena
	arity := ctx.Ari(cal)
	fn := cal.Ext()
	color := argn.Ext()
	fun0 := a.Alloc(arity)
	fun1 := a.Alloc(arity)
	par0 := a.Alloc(2)
	for i := 0; i < arity; i++ {
		if i != n {
			leti := a.Alloc(3)
			argi := ctx.Arg(cal, uint64(i))
			h.Link(fun0+uint64(i), term.MkDp0(color, leti))
			h.Link(fun1+uint64(i), term.MkDp1(color, leti))
			h.Link(leti+0, term.MkArg(0))
			h.Link(leti+1, term.MkArg(0))
			h.Link(leti+2, argi)
		} else {
			h.Link(fun0+uint64(i), ctx.Arg(argn, 0))
			h.Link(fun1+uint64(i), ctx.Arg(argn, 1))
		}
	}
	h.Link(par0+0, term.MkCal(fn, fun0))
	h.Link(par0+1, term.MkCal(fn, fun1))
	h.Link(host, term.MkSup(color, par0))
}
