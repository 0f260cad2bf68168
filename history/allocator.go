// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import "github.com/pkg/errors"

// Allocator hands out backing capacity for pool records.
// Alloc is called before a pool grows its arena by n records.
type Allocator interface {
	Alloc(n int) error
}

type unbounded struct{}

func (unbounded) Alloc(int) error { return nil }

// Unbounded returns an allocator that never refuses.
func Unbounded() Allocator { return unbounded{} }

// Budget is a block-scoped allocator with a fixed record budget.
// It may be shared by every pool of a block.
type Budget struct {
	limit int
	used  int
}

// Limited creates a budget allowing up to limit records in total.
func Limited(limit int) *Budget {
	return &Budget{limit: limit}
}

// Alloc implements Allocator.
func (b *Budget) Alloc(n int) error {
	if b.used+n > b.limit {
		return errors.Wrapf(ErrAllocatorExhausted, "budget %d, used %d, requested %d", b.limit, b.used, n)
	}
	b.used += n
	return nil
}

// Used returns the number of records handed out.
func (b *Budget) Used() int { return b.used }
