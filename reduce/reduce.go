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

// Package reduce implements the weak-head reducer: a stack-driven
// descent that rewrites a term until the node at a position is a value
// (spec.md §4.4). The continuation stack holds (host, phase) pairs,
// packed the way original_source/src/runtime.c does it (the phase rides
// along as a marker bit on the stacked host), keeping each frame a
// single machine word.
package reduce

import (
	"github.com/hvm-go/hvmcore/internal/fail"
	"github.com/hvm-go/hvmcore/internal/term"
	"github.com/hvm-go/hvmcore/rules"
)

// descendBit marks a stacked frame as "descend into this position next"
// (pushed when a redex wants to force one of its children before it can
// be inspected). A frame pushed without this bit means "revisit the
// node at this position" (its children are already WHNF; check for a
// redex now).
const descendBit = uint64(1) << 63

// Reduce drives root to weak head normal form and returns the
// (possibly new) pointer stored there once the continuation stack
// empties. slen is the caller's worker-stride budget: it gates how
// eagerly OP2 nodes are entered (spec.md §4.4's OP2 case) so that the
// parallel normalizer can still fan out across an unevaluated OP2 tree.
func Reduce(ctx *rules.Context, root uint64, slen uint64) term.Ptr {
	var stack []uint64
	host := root
	descend := true

	for {
		t := ctx.Heap.Ask(host)

		if descend {
			switch t.Tag() {
			case term.APP:
				stack = append(stack, host)
				host = t.Loc(0)
				continue

			case term.DP0, term.DP1:
				dupLoc := t.Val()
				if !ctx.Heap.TryLock(dupLoc) {
					// Another worker owns this DUP node right now;
					// treat the endpoint as a value and move on. A
					// later pass will retry (spec.md §7).
					break
				}
				slot := uint64(0)
				if t.Tag() == term.DP1 {
					slot = 1
				}
				bound := ctx.AtomicArg(t, slot)
				if bound.Tag() == term.ARG {
					stack = append(stack, host)
					host = t.Loc(2)
					continue
				}
				ctx.Heap.Link(host, bound)
				ctx.Heap.Unlock(dupLoc)
				continue

			case term.VAR:
				bound := ctx.AtomicArg(t, 0)
				if bound.Tag() != term.ARG && bound.Tag() != term.ERA {
					ctx.Heap.Link(host, bound)
					continue
				}

			case term.OP2:
				if slen == 1 || len(stack) > 0 {
					stack = append(stack, host, t.Loc(0)|descendBit)
					host = t.Loc(1)
					continue
				}

			case term.CAL:
				fn := t.Ext()
				if step0 := step0At(ctx.Funcs.Step0, fn); step0 != nil {
					var d rules.Demand
					if step0(ctx, host, t, &d) {
						continue
					}
					if pos, asked := d.Asked(); asked {
						stack = append(stack, host)
						host = pos
						continue
					}
				}
				// No demand pending: go straight to the Step1 revisit.
				if step1At(ctx.Funcs.Step1, fn) != nil {
					descend = false
					continue
				}

			case term.NIL:
				fail.IllegalPointer("reduce/descend", t.Tag())

			default:
				// LAM, SUP, CTR, NUM, FLO, ERA, ARG: values, nothing to do.
			}
		} else {
			switch t.Tag() {
			case term.APP:
				head := ctx.Arg(t, 0)
				switch head.Tag() {
				case term.LAM:
					rules.AppLam(ctx, host, t, head)
					descend = true
					continue
				case term.SUP:
					rules.AppSup(ctx, host, t, head)
				}

			case term.DP0, term.DP1:
				dupLoc := t.Val()
				body := ctx.AtomicArg(t, 2)
				switch body.Tag() {
				case term.LAM:
					rules.DupLam(ctx, t, body)
				case term.SUP:
					if t.Ext() == body.Ext() {
						rules.DupSupEqual(ctx, t, body)
					} else {
						rules.DupSupUnequal(ctx, t, body)
					}
				case term.NUM:
					rules.DupNum(ctx, t, body)
				case term.CTR:
					rules.DupCtr(ctx, t, body)
				case term.ERA:
					rules.DupEra(ctx, t)
				}
				ctx.Heap.Unlock(dupLoc)
				descend = true
				continue

			case term.OP2:
				a := ctx.Arg(t, 0)
				b := ctx.Arg(t, 1)
				switch {
				case a.Tag() == term.NUM && b.Tag() == term.NUM:
					rules.Op2Num(ctx, host, t, a, b)
				case a.Tag() == term.SUP:
					rules.Op2Sup(ctx, host, t, a, b, true)
				case b.Tag() == term.SUP:
					rules.Op2Sup(ctx, host, t, b, a, false)
				}

			case term.CAL:
				fn := t.Ext()
				if step1 := step1At(ctx.Funcs.Step1, fn); step1 != nil && step1(ctx, host, t) {
					descend = true
					continue
				}
			}
		}

		item, ok := pop(&stack)
		if !ok {
			break
		}
		descend = item&descendBit != 0
		host = item &^ descendBit
	}

	return ctx.Heap.Ask(root)
}

func step0At(steps []rules.Step0, id uint64) rules.Step0 {
	if int(id) >= len(steps) {
		return nil
	}
	return steps[id]
}

func step1At(steps []rules.Step1, id uint64) rules.Step1 {
	if int(id) >= len(steps) {
		return nil
	}
	return steps[id]
}

func pop(stack *[]uint64) (uint64, bool) {
	s := *stack
	if len(s) == 0 {
		return 0, false
	}
	v := s[len(s)-1]
	*stack = s[:len(s)-1]
	return v, true
}
