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

// Package normal implements full (not just weak-head) normalization: it
// drives reduce.Reduce at a position, then recurses into every child
// position of the resulting value, optionally forking each child onto
// a separate worker when there is enough thread-space budget left
// (spec.md §4.5, §4.6). Two full passes are required — a first widened
// pass that lets reduce treat under-budget OP2 nodes as suspended
// values so their operands can be normalized in parallel, and a second,
// strictly sequential pass (slen forced to 1) that closes out any OP2
// redexes the first pass left dangling — exactly mirroring
// original_source/src/runtime.c's normal()/normal_go() pair.
package normal

import (
	"github.com/hvm-go/hvmcore/internal/term"
	"github.com/hvm-go/hvmcore/reduce"
	"github.com/hvm-go/hvmcore/rules"
	"github.com/hvm-go/hvmcore/worker"
)

// childLocs lists the positions Go must recurse into once host has
// been reduced to t. LAM/APP/PAR/DP0/DP1 need at most 2; CTR/CAL are
// bounded by the configured MaxArity, so unlike the original's fixed
// 16-slot scratch buffer this has no silent overflow limit.
func childLocs(ctx *rules.Context, t term.Ptr, slen uint64) []uint64 {
	switch t.Tag() {
	case term.LAM:
		return []uint64{t.Loc(1)}
	case term.APP, term.SUP:
		return []uint64{t.Loc(0), t.Loc(1)}
	case term.DP0, term.DP1:
		return []uint64{t.Loc(2)}
	case term.OP2:
		if slen > 1 {
			return []uint64{t.Loc(0), t.Loc(1)}
		}
		return nil
	case term.CTR, term.CAL:
		arity := ctx.Ari(t)
		locs := make([]uint64, arity)
		for i := range locs {
			locs[i] = t.Loc(uint64(i))
		}
		return locs
	default:
		return nil
	}
}

// NewWorkFunc builds the worker.WorkFunc every pool worker runs for
// each forked task, closing over the Seen set shared across the whole
// normalization (spec.md §4.6: forked children must consult the same
// visited set as their forker, not a private one).
func NewWorkFunc(seen *Seen) worker.WorkFunc {
	return func(pool *worker.Pool, ctx *rules.Context, host, sidx, slen uint64) term.Ptr {
		return goAt(pool, ctx, seen, host, sidx, slen)
	}
}

// goAt is the recursive worker: reduce host to whnf, remember it as
// seen, then recurse (and possibly fork) into its children.
func goAt(pool *worker.Pool, ctx *rules.Context, seen *Seen, host, sidx, slen uint64) term.Ptr {
	if seen.Test(host) {
		return ctx.Heap.Ask(host)
	}
	t := reduce.Reduce(ctx, host, slen)
	seen.Mark(host)

	locs := childLocs(ctx, t, slen)
	if len(locs) == 0 {
		return t
	}

	if len(locs) >= 2 && slen >= uint64(len(locs)) {
		space := slen / uint64(len(locs))
		for i := 1; i < len(locs); i++ {
			tid := sidx + uint64(i)*space
			pool.Fork(int(tid), locs[i], tid, space)
		}
		ctx.Heap.Link(locs[0], goAt(pool, ctx, seen, locs[0], sidx, space))
		for i := 1; i < len(locs); i++ {
			tid := sidx + uint64(i)*space
			ctx.Heap.Link(locs[i], pool.Join(int(tid)))
		}
	} else {
		for _, loc := range locs {
			ctx.Heap.Link(loc, goAt(pool, ctx, seen, loc, sidx, slen))
		}
	}

	return t
}

// Run drives host to full normal form using pool's coordinator context,
// fixpointing until a pass spends no further rewrite cost (spec.md
// §4.5). seen must be the same *Seen pool was built with via
// NewWorkFunc. The caller owns pool's lifecycle (built before Run,
// Stop()-ed after).
func Run(pool *worker.Pool, seen *Seen, host, sidx, slen uint64) term.Ptr {
	ctx := pool.Coordinator().Context

	goAt(pool, ctx, seen, host, sidx, slen)

	cost := pool.TotalCost()
	var done term.Ptr
	for {
		seen.Reset()
		done = goAt(pool, ctx, seen, host, 0, 1)
		total := pool.TotalCost()
		if total != cost {
			cost = total
		} else {
			break
		}
	}
	return done
}
