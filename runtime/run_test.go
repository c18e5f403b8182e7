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
	"testing"

	"github.com/hvm-go/hvmcore/heap"
	"github.com/hvm-go/hvmcore/internal/term"
	"github.com/hvm-go/hvmcore/rules"
)

// buildIdentityApp seeds `(\x.x) 99`.
func buildIdentityApp(h *heap.Heap, a *heap.Arena) uint64 {
	lamLoc := a.Alloc(2)
	h.Link(lamLoc+0, term.MkArg(0))
	h.Link(lamLoc+1, term.MkVar(lamLoc))

	appLoc := a.Alloc(2)
	h.Link(appLoc+0, term.MkLam(lamLoc))
	h.Link(appLoc+1, term.MkNum(99))

	root := a.Alloc(1)
	h.Link(root, term.MkApp(appLoc))
	return root
}

func TestRunSingleWorkerIdentity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.MemSpace = 4096

	done, h, stats, err := Run(cfg, &rules.FuncTable{}, buildIdentityApp)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer h.Close()
	if done.Tag() != term.NUM || done.Num() != 99 {
		t.Fatalf("expected NUM 99, got %v", done)
	}
	if stats.Cost == 0 {
		t.Fatal("expected at least one rewrite to have been counted")
	}
	if stats.Workers != 1 {
		t.Fatalf("expected 1 worker reported, got %d", stats.Workers)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	if _, _, _, err := Run(cfg, &rules.FuncTable{}, buildIdentityApp); err == nil {
		t.Fatal("expected an error for zero workers")
	}
}

func TestRunMultiWorkerSameResultAsSingleWorker(t *testing.T) {
	single := DefaultConfig()
	single.Workers = 1
	single.MemSpace = 8192

	multi := DefaultConfig()
	multi.Workers = 4
	multi.MemSpace = 8192

	d1, h1, _, err := Run(single, &rules.FuncTable{}, buildIdentityApp)
	if err != nil {
		t.Fatalf("single-worker Run: %v", err)
	}
	defer h1.Close()
	d2, h2, _, err := Run(multi, &rules.FuncTable{}, buildIdentityApp)
	if err != nil {
		t.Fatalf("multi-worker Run: %v", err)
	}
	defer h2.Close()
	if d1.Tag() != d2.Tag() || d1.Num() != d2.Num() {
		t.Fatalf("worker count should not affect the result: single=%v multi=%v", d1, d2)
	}
}
