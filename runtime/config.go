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

// Package runtime wires the allocator, reducer and parallel normalizer
// into the single entry point a caller uses to run a program to normal
// form (spec.md §6). Config is loadable from YAML, so deployment-time
// tuning (worker count, heap size) doesn't require a recompile.
package runtime

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Config holds every knob the spec leaves open to the host program
// (spec.md §5, §9's Open Question on MAX_ARITY): worker count, heap
// words per worker, starting duplication-color stride, and the maximum
// constructor/function arity the allocator's free-lists are sized for.
type Config struct {
	Workers   int    `json:"workers"`
	MemSpace  uint64 `json:"memSpace"`
	MaxArity  int    `json:"maxArity"`
	MaxDups   uint64 `json:"maxDups"`
	MaxColors uint64 `json:"maxColors"`
}

// DefaultConfig returns reasonable defaults for a single-process run:
// one worker per CPU is left to the caller to decide (Workers defaults
// to 1, matching a safe sequential baseline); callers that want
// parallelism set Workers explicitly or load it from YAML.
func DefaultConfig() Config {
	return Config{
		Workers:   1,
		MemSpace:  1 << 24,
		MaxArity:  16,
		MaxDups:   1 << 24,
		MaxColors: 1 << 16,
	}
}

// LoadConfig reads and validates a YAML config file, starting from
// DefaultConfig for any field the file omits.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("hvm: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("hvm: parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks every field is in a range the allocator and worker
// pool can actually run with. MaxArity in particular must be checked
// at this boundary (spec.md §9's Open Question: the reference
// implementation treats an over-arity node as undefined behavior). This
// checks the MaxArity value itself; Run then rejects a function table
// whose arities exceed it, before any heap is mmap'd.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("hvm: workers must be positive, got %d", c.Workers)
	}
	if c.MemSpace == 0 {
		return fmt.Errorf("hvm: memSpace must be positive")
	}
	if c.MaxArity <= 0 || c.MaxArity > 1<<16 {
		return fmt.Errorf("hvm: maxArity must be in (0, 65536], got %d", c.MaxArity)
	}
	return nil
}
