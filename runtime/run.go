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

package runtime

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hvm-go/hvmcore/heap"
	"github.com/hvm-go/hvmcore/internal/term"
	"github.com/hvm-go/hvmcore/normal"
	"github.com/hvm-go/hvmcore/rules"
	"github.com/hvm-go/hvmcore/worker"
)

// Seed builds the initial graph a Run normalizes: the caller
// constructs it against the heap/arena Run hands back via the builder
// callback, and returns the root position to normalize. This mirrors
// the original's ffi_normal contract, where the embedding program
// (the parser/compiler, out of scope here) has already poked the
// initial term into memory before calling normal().
type Seed func(h *heap.Heap, a *heap.Arena) (root uint64)

// Run builds a heap and worker pool per cfg, seeds it by calling build
// against worker 0's arena, and drives it to full normal form. The
// caller owns the returned Heap and must Close it once done reading
// back the result — Run cannot close it itself, since the residual
// term is a position into that heap, not a self-contained value.
func Run(cfg Config, funcs *rules.FuncTable, build Seed) (term.Ptr, *heap.Heap, Stats, error) {
	if err := cfg.Validate(); err != nil {
		return 0, nil, Stats{}, err
	}
	if funcs != nil {
		for id, ar := range funcs.Arity {
			if ar > cfg.MaxArity {
				return 0, nil, Stats{}, fmt.Errorf("hvm: arity %d of id %d exceeds maxArity %d", ar, id, cfg.MaxArity)
			}
		}
	}
	start := time.Now()

	h, err := heap.New(cfg.Workers, cfg.MemSpace)
	if err != nil {
		return 0, nil, Stats{}, err
	}

	seen := normal.NewSeen(uint64(cfg.Workers) * cfg.MemSpace)
	pool := worker.New(h, funcs, cfg.MaxArity, cfg.MaxDups, normal.NewWorkFunc(seen))

	root := build(h, pool.Coordinator().Context.Arena)

	done := normal.Run(pool, seen, root, 0, uint64(cfg.Workers))
	pool.Stop()

	stats := Stats{
		RunID:   uuid.New(),
		Cost:    pool.TotalCost(),
		Size:    pool.TotalSize(),
		Workers: cfg.Workers,
		Elapsed: time.Since(start),
	}
	return done, h, stats, nil
}
