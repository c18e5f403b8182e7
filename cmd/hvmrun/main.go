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

// Command hvmrun drives the reduction core over one of the built-in
// demo programs (spec.md §8's S1-S6, plus S7's CAL-SUP commutation) and
// prints the normalized result. It exists to exercise runtime.Run end
// to end; a real front-end (parser, compiler) is out of scope, per
// spec.md's Non-goals. Trailing positional arguments are instead
// parsed the way the original's parse_arg/main did: each decimal
// argument becomes a NUM leaf, and the program run is CAL(Main, those
// leaves), mirroring the original C program's `argc <= 1` / `parse_arg`
// branch in main().
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/hvm-go/hvmcore/demo"
	"github.com/hvm-go/hvmcore/heap"
	"github.com/hvm-go/hvmcore/internal/dump"
	"github.com/hvm-go/hvmcore/internal/term"
	"github.com/hvm-go/hvmcore/internal/trace"
	"github.com/hvm-go/hvmcore/readback"
	"github.com/hvm-go/hvmcore/rules"
	"github.com/hvm-go/hvmcore/runtime"
	"github.com/hvm-go/hvmcore/symtab"
)

var (
	dashScenario string
	dashConfig   string
	dashWorkers  int
	dashTrace    bool
	dashDump     string
	printStats   bool
)

func init() {
	flag.StringVar(&dashScenario, "scenario", "identity", "built-in program to run: identity, church2, sup, dupsup, sum, calsup, erasure (ignored if decimal arguments are given)")
	flag.StringVar(&dashConfig, "config", "", "path to a YAML runtime config (overrides the defaults)")
	flag.IntVar(&dashWorkers, "workers", 0, "worker count override (0 keeps whatever -config or the defaults say)")
	flag.BoolVar(&dashTrace, "trace", false, "log every rewrite rule as it fires")
	flag.StringVar(&dashDump, "dump", "", "write a heap snapshot of the result to this path")
	flag.BoolVar(&printStats, "stats", false, "print rewrite cost, heap size and elapsed time")
}

func main() {
	flag.Parse()
	if dashTrace {
		trace.Enable(os.Stderr)
	}

	cfg := runtime.DefaultConfig()
	if dashConfig != "" {
		loaded, err := runtime.LoadConfig(dashConfig)
		if err != nil {
			log.Fatalf("hvmrun: %v", err)
		}
		cfg = loaded
	}
	if dashWorkers > 0 {
		cfg.Workers = dashWorkers
	}

	var (
		build runtime.Seed
		funcs *rules.FuncTable
		names *symtab.Table
	)
	if args := flag.Args(); len(args) > 0 {
		b, f := demo.SumArgs(parseArgs(args))
		build, funcs = runtime.Seed(b), f
	} else {
		b, f, n, err := scenario(dashScenario)
		if err != nil {
			log.Fatalf("hvmrun: %v", err)
		}
		build, funcs, names = b, f, n
	}

	done, h, stats, err := runtime.Run(cfg, funcs, build)
	if err != nil {
		log.Fatalf("hvmrun: run failed: %v", err)
	}
	defer h.Close()

	fmt.Println(readback.New(h, names, cfg.MaxColors).String(done))
	if printStats {
		stats.Report(os.Stdout)
	}

	if dashDump != "" {
		if err := dumpResult(h, dashDump); err != nil {
			log.Fatalf("hvmrun: dump failed: %v", err)
		}
	}
}

func scenario(name string) (runtime.Seed, *rules.FuncTable, *symtab.Table, error) {
	switch name {
	case "identity":
		build, funcs := demo.Identity()
		return runtime.Seed(build), funcs, nil, nil
	case "church2":
		build, funcs, _ := demo.ChurchTwoSquared()
		names := symtab.New()
		names.Intern("Z", 0)
		names.Intern("S", 1)
		return runtime.Seed(build), funcs, names, nil
	case "sup":
		return runtime.Seed(demo.SupCommutation()), &rules.FuncTable{}, nil, nil
	case "dupsup":
		build, funcs := demo.DupSupDifferentColors()
		names := symtab.New()
		names.Intern("Pair", 2)
		return runtime.Seed(build), funcs, names, nil
	case "sum":
		return runtime.Seed(demo.ParallelSumTree(16)), &rules.FuncTable{}, nil, nil
	case "calsup":
		build, funcs := demo.CalSupCommutation()
		names := symtab.New()
		names.Intern("Dbl", 1)
		return runtime.Seed(build), funcs, names, nil
	case "erasure":
		build, funcs, _ := demo.Erasure()
		return runtime.Seed(build), funcs, nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown scenario %q", name)
	}
}

// parseArgs converts every trailing CLI argument to a NUM value,
// mirroring parse_arg in the original: an argument starting with an
// ASCII digit is parsed as decimal (masked to the 60-bit NUM payload),
// anything else — including a leading '-' — becomes 0.
func parseArgs(args []string) []uint64 {
	values := make([]uint64, len(args))
	for i, a := range args {
		values[i] = parseArg(a)
	}
	return values
}

func parseArg(code string) uint64 {
	if len(code) == 0 || code[0] < '0' || code[0] > '9' {
		return 0
	}
	v, err := strconv.ParseUint(code, 10, 64)
	if err != nil {
		// strconv overflowed a 64-bit value the original's strtol would
		// have clamped to LONG_MAX; mask what parsed instead of failing
		// the whole run.
		return v & term.NumMask
	}
	return v & term.NumMask
}

func dumpResult(h *heap.Heap, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return dump.Write(f, dump.Snapshot{Cells: h.Cells()})
}
