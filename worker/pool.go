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

// Package worker implements the pool of cooperating goroutines that
// drive parallel normalization (spec.md §4.6, §5). Each worker owns a
// heap slice via its own *rules.Context, and exposes a mailbox of two
// condition-variable-guarded fields: has_work (a packed task or an IDLE/
// STOP sentinel) and has_result. There is no shared task queue — work is
// routed by position-derived worker id, matching the teacher's
// single-queue sync.Cond mailbox shape in sorting/thread_pool.go,
// generalized here to one mailbox per worker.
package worker

import (
	"sync"

	"github.com/hvm-go/hvmcore/heap"
	"github.com/hvm-go/hvmcore/internal/term"
	"github.com/hvm-go/hvmcore/rules"
)

// task is a packed (host, start index, stride length) unit of work, the
// Go equivalent of the original's (sidx<<48)|(slen<<32)|host word.
type task struct {
	host, sidx, slen uint64
}

// Handle is one worker's mailbox plus its private reduction context.
// Only the owning goroutine (or, for worker 0, the calling goroutine)
// ever touches Context's Arena; cross-worker communication happens
// exclusively through Heap.Subst and this mailbox.
type Handle struct {
	Tid     int
	Context *rules.Context

	mu         sync.Mutex
	cond       *sync.Cond
	hasWork    bool
	stopped    bool
	work       task
	hasResult  bool
	result     term.Ptr
	resultCond *sync.Cond
}

// WorkFunc is the function every worker goroutine runs for each task it
// receives: drive normalization of host across the given worker-id
// stride. It is supplied by the caller (the normal package) so that
// worker has no dependency on normal, avoiding an import cycle between
// the two packages that cooperate to implement fork/join.
type WorkFunc func(pool *Pool, ctx *rules.Context, host, sidx, slen uint64) term.Ptr

// Pool owns every worker's Handle and the shared heap and function
// table they reduce against.
type Pool struct {
	Heap    *heap.Heap
	Funcs   *rules.FuncTable
	handles []*Handle
	work    WorkFunc
	wg      sync.WaitGroup
}

// New creates a pool of n workers sharing h and funcs, with dup colors
// seeded per worker the way the original seeds
// MAX_DUPS*tid/nworkers, and starts goroutines for workers 1..n-1.
// Worker 0 is the coordinator: it never gets its own goroutine, and the
// caller drives it in-line via normal.Run (spec.md §5: "a single coordinator
// thread ... both drives normalization in-line and acts as a peer").
func New(h *heap.Heap, funcs *rules.FuncTable, maxArity int, maxDups uint64, work WorkFunc) *Pool {
	n := h.Workers()
	p := &Pool{Heap: h, Funcs: funcs, handles: make([]*Handle, n), work: work}
	for tid := 0; tid < n; tid++ {
		seed := maxDups * uint64(tid) / uint64(n)
		arena := heap.NewArena(h, tid, maxArity, seed)
		hd := &Handle{Tid: tid, Context: &rules.Context{Arena: arena, Heap: h, Funcs: funcs}}
		hd.cond = sync.NewCond(&hd.mu)
		hd.resultCond = sync.NewCond(&hd.mu)
		p.handles[tid] = hd
	}
	for tid := 1; tid < n; tid++ {
		p.wg.Add(1)
		go p.loop(p.handles[tid])
	}
	return p
}

// Coordinator returns worker 0's handle, which the caller drives
// in-line rather than through Fork/Join.
func (p *Pool) Coordinator() *Handle { return p.handles[0] }

// Handle returns the tid-th worker's handle.
func (p *Pool) Handle(tid int) *Handle { return p.handles[tid] }

func (p *Pool) loop(h *Handle) {
	defer p.wg.Done()
	for {
		h.mu.Lock()
		for !h.hasWork && !h.stopped {
			h.cond.Wait()
		}
		if h.stopped {
			h.mu.Unlock()
			return
		}
		t := h.work
		h.hasWork = false
		h.mu.Unlock()

		done := p.work(p, h.Context, t.host, t.sidx, t.slen)

		h.mu.Lock()
		h.result = done
		h.hasResult = true
		h.resultCond.Signal()
		h.mu.Unlock()
	}
}

// Fork publishes a task into worker tid's mailbox and wakes it.
func (p *Pool) Fork(tid int, host, sidx, slen uint64) {
	h := p.handles[tid]
	h.mu.Lock()
	h.work = task{host: host, sidx: sidx, slen: slen}
	h.hasWork = true
	h.cond.Signal()
	h.mu.Unlock()
}

// Join waits for worker tid's most recently forked task to complete and
// returns its result.
func (p *Pool) Join(tid int) term.Ptr {
	h := p.handles[tid]
	h.mu.Lock()
	for !h.hasResult {
		h.resultCond.Wait()
	}
	r := h.result
	h.hasResult = false
	h.mu.Unlock()
	return r
}

// Stop asks every non-coordinator worker to exit and waits for them to
// do so. Posted only after every fork has been joined, matching the
// original's worker_stop/ffi_normal teardown ordering.
func (p *Pool) Stop() {
	for tid := 1; tid < len(p.handles); tid++ {
		h := p.handles[tid]
		h.mu.Lock()
		h.stopped = true
		h.cond.Signal()
		h.mu.Unlock()
	}
	p.wg.Wait()
}

// TotalCost sums every worker's rewrite counter.
func (p *Pool) TotalCost() uint64 {
	var total uint64
	for _, h := range p.handles {
		total += h.Context.Arena.Cost
	}
	return total
}

// TotalSize sums every worker's bump-allocated cell count.
func (p *Pool) TotalSize() uint64 {
	var total uint64
	for _, h := range p.handles {
		total += h.Context.Arena.Cursor()
	}
	return total
}
