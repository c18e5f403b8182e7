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
	"io"
	"time"

	"github.com/google/uuid"
)

// Stats reports on one Run: total rewrite cost, cells allocated, wall
// time, and a UUID run id so repeated benchmark runs can be correlated
// in logs (spec.md §8's S5 parallel-sum scenario is the primary
// consumer: the same program run at several worker counts should
// report identical Cost, letting a caller diff Stats across RunIDs).
type Stats struct {
	RunID   uuid.UUID
	Cost    uint64
	Size    uint64
	Workers int
	Elapsed time.Duration
}

// Report writes a human-readable summary to w, the same
// fmt.Fprintf-to-an-io.Writer reporting style the teacher's CLI tools
// use instead of a logging framework.
func (s Stats) Report(w io.Writer) {
	fmt.Fprintf(w, "run %s: %d rewrites, %d cells, %d workers, %s\n",
		s.RunID, s.Cost, s.Size, s.Workers, s.Elapsed)
}
