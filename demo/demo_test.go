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

package demo

import (
	"strings"
	"testing"

	"github.com/hvm-go/hvmcore/internal/term"
	"github.com/hvm-go/hvmcore/readback"
	"github.com/hvm-go/hvmcore/rules"
	"github.com/hvm-go/hvmcore/runtime"
	"github.com/hvm-go/hvmcore/symtab"
)

// churchNames registers Z and S in the same order ChurchTwoSquared
// assigns their ids (0 and 1), so readback prints names instead of
// falling back to "$<id>".
func churchNames() *symtab.Table {
	tab := symtab.New()
	tab.Intern("Z", 0)
	tab.Intern("S", 1)
	return tab
}

func TestIdentityReducesToNum42(t *testing.T) {
	cfg := runtime.DefaultConfig()
	cfg.Workers = 1
	cfg.MemSpace = 4096
	build, funcs := Identity()

	done, h, _, err := runtime.Run(cfg, funcs, build)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer h.Close()
	if done.Tag() != term.NUM || done.Num() != 42 {
		t.Fatalf("expected NUM 42, got %v", done)
	}
}

func TestChurchTwoSquaredProducesFourNestedS(t *testing.T) {
	cfg := runtime.DefaultConfig()
	cfg.MemSpace = 1 << 16
	build, funcs, _ := ChurchTwoSquared()

	want := "(S (S (S (S (Z)))))"

	cfg.Workers = 1
	d1, h1, stats1, err := runtime.Run(cfg, funcs, build)
	if err != nil {
		t.Fatalf("single-worker Run: %v", err)
	}
	names := churchNames()
	got1 := readback.New(h1, names, readback.DefaultMaxColors).String(d1)
	h1.Close()
	if got1 != want {
		t.Fatalf("single-worker readback = %q, want %q", got1, want)
	}

	cfg.Workers = 4
	d2, h2, _, err := runtime.Run(cfg, funcs, build)
	if err != nil {
		t.Fatalf("multi-worker Run: %v", err)
	}
	got2 := readback.New(h2, names, readback.DefaultMaxColors).String(d2)
	h2.Close()
	if got2 != want {
		t.Fatalf("multi-worker readback = %q, want %q (differs from single-worker result)", got2, want)
	}
	if stats1.Cost == 0 {
		t.Fatal("expected a nonzero rewrite count")
	}
}

func TestSupCommutationDistributesAddition(t *testing.T) {
	cfg := runtime.DefaultConfig()
	cfg.Workers = 1
	cfg.MemSpace = 4096
	build := SupCommutation()

	done, h, _, err := runtime.Run(cfg, &rules.FuncTable{}, build)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer h.Close()
	if done.Tag() != term.SUP {
		t.Fatalf("expected a residual SUP, got %v", done.Tag())
	}
	got := readback.New(h, nil, readback.DefaultMaxColors).String(done)
	if !strings.Contains(got, "15") || !strings.Contains(got, "25") {
		t.Fatalf("expected the two branches to be 15 and 25, got %q", got)
	}
}

func TestParallelSumTreeMatchesAcrossWorkerCounts(t *testing.T) {
	const depth = 10 // 1024 leaves; keeps the test heap small
	build := ParallelSumTree(depth)

	single := runtime.DefaultConfig()
	single.Workers = 1
	single.MemSpace = 1 << 16

	multi := runtime.DefaultConfig()
	multi.Workers = 8
	multi.MemSpace = 1 << 16

	d1, h1, stats1, err := runtime.Run(single, &rules.FuncTable{}, build)
	if err != nil {
		t.Fatalf("single-worker Run: %v", err)
	}
	defer h1.Close()
	d2, h2, stats2, err := runtime.Run(multi, &rules.FuncTable{}, build)
	if err != nil {
		t.Fatalf("multi-worker Run: %v", err)
	}
	defer h2.Close()
	if d1.Tag() != term.NUM || d1.Num() != 1<<depth {
		t.Fatalf("expected NUM %d, got %v", 1<<depth, d1)
	}
	if d2.Tag() != term.NUM || d2.Num() != d1.Num() {
		t.Fatalf("worker count changed the result: single=%v multi=%v", d1, d2)
	}
	if stats2.Cost != stats1.Cost {
		t.Fatalf("worker count should not change total rewrite cost: single=%d multi=%d", stats1.Cost, stats2.Cost)
	}
}

func TestCalSupCommutationDoublesBothBranches(t *testing.T) {
	cfg := runtime.DefaultConfig()
	cfg.Workers = 1
	cfg.MemSpace = 4096
	build, funcs := CalSupCommutation()

	done, h, _, err := runtime.Run(cfg, funcs, build)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer h.Close()
	if done.Tag() != term.SUP {
		t.Fatalf("expected a residual SUP, got %v", done.Tag())
	}
	got := readback.New(h, nil, readback.DefaultMaxColors).String(done)
	if !strings.Contains(got, "20") || !strings.Contains(got, "40") {
		t.Fatalf("expected the two branches to be 20 and 40, got %q", got)
	}
}

func TestSumArgsBuildsNumLeavesFromCliValues(t *testing.T) {
	cfg := runtime.DefaultConfig()
	cfg.Workers = 1
	cfg.MemSpace = 4096
	build, funcs := SumArgs([]uint64{3, 4, 5})

	done, h, _, err := runtime.Run(cfg, funcs, build)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer h.Close()
	if done.Tag() != term.NUM || done.Num() != 12 {
		t.Fatalf("expected NUM 12, got %v", done)
	}
}

func TestSumArgsWithNoValuesCallsMainWithZeroArity(t *testing.T) {
	cfg := runtime.DefaultConfig()
	cfg.Workers = 1
	cfg.MemSpace = 4096
	build, funcs := SumArgs(nil)

	done, h, _, err := runtime.Run(cfg, funcs, build)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer h.Close()
	if done.Tag() != term.NUM || done.Num() != 0 {
		t.Fatalf("expected NUM 0, got %v", done)
	}
}

func TestErasureNeverStepsIntoDiscardedArgument(t *testing.T) {
	cfg := runtime.DefaultConfig()
	cfg.Workers = 1
	cfg.MemSpace = 4096
	build, funcs, fired := Erasure()

	done, h, _, err := runtime.Run(cfg, funcs, build)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer h.Close()
	if done.Tag() != term.NUM || done.Num() != 7 {
		t.Fatalf("expected NUM 7, got %v", done)
	}
	if *fired {
		t.Fatal("Omega's rule must never be stepped: the application erases its argument")
	}
}
