// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownSnapshot is returned when rolling back to an id that is not on
	// the current lineage: never issued, discarded by an earlier rollback, or
	// finalized by a commit.
	ErrUnknownSnapshot = errors.New("history: snapshot not on current lineage")
	// ErrBrokenChain is returned when a run handed back to the pool is not contiguous.
	ErrBrokenChain = errors.New("history: broken record chain")
	// ErrKeyNotFound is returned when updating a key that was never materialized.
	ErrKeyNotFound = errors.New("history: key not found")
	// ErrAllocatorExhausted is the cause carried by a FatalError when the allocator refuses.
	ErrAllocatorExhausted = errors.New("history: allocator exhausted")
)

// FatalError aborts the whole execution. It is raised by panic and must not
// be recovered inside the cache.
type FatalError struct {
	Cause error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("history: fatal: %v", e.Cause)
}

func (e *FatalError) Unwrap() error { return e.Cause }
