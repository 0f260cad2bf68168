// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import (
	"fmt"

	"github.com/pkg/errors"
)

// SnapshotID marks a point in the write history of a Map.
// The value 0 is reserved for the original value of every key.
type SnapshotID uint64

// Link addresses a record inside a Pool. The zero Link points to nothing.
type Link struct {
	idx uint32 // 1-based slot in the arena
	gen uint32
}

// IsNil returns whether the link points to nothing.
func (l Link) IsNil() bool { return l.idx == 0 }

func (l Link) String() string {
	if l.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%d@%d", l.idx, l.gen)
}

type record[V any] struct {
	at    SnapshotID
	value V
	prev  Link
	gen   uint32
}

// PoolStats describes the occupancy of a Pool.
type PoolStats struct {
	Allocated int    // records backed by the arena
	Free      int    // records parked on the freelist
	Reused    uint64 // allocations served from the freelist
}

// Pool is an arena of version records with an intrusive freelist.
// A removed run of records is handed back in one splice, and later
// allocations drain the freelist before asking the Allocator for more.
type Pool[V any] struct {
	alloc   Allocator
	records []record[V] // slot 0 is never used
	free    Link
	stats   PoolStats
}

// NewPool creates a pool drawing new capacity from alloc.
func NewPool[V any](alloc Allocator) *Pool[V] {
	if alloc == nil {
		alloc = Unbounded()
	}
	return &Pool[V]{
		alloc:   alloc,
		records: make([]record[V], 1),
	}
}

// Stats returns the current occupancy.
func (p *Pool[V]) Stats() PoolStats {
	return p.stats
}

// create returns a record holding value, linked to prev and stamped with at.
// It panics with a *FatalError if the allocator refuses to grow the arena.
func (p *Pool[V]) create(value V, prev Link, at SnapshotID) Link {
	if !p.free.IsNil() {
		l := p.free
		r := &p.records[l.idx]
		p.free = r.prev

		r.gen++
		r.at, r.value, r.prev = at, value, prev

		p.stats.Free--
		p.stats.Reused++
		return Link{l.idx, r.gen}
	}

	if err := p.alloc.Alloc(1); err != nil {
		panic(&FatalError{Cause: errors.Wrap(err, "grow record pool")})
	}
	p.records = append(p.records, record[V]{at: at, value: value, prev: prev})
	p.stats.Allocated++
	return Link{uint32(len(p.records) - 1), 0}
}

// get resolves a link. A stale or dangling link means the chain bookkeeping
// is corrupted, so it panics.
func (p *Pool[V]) get(l Link) *record[V] {
	if l.IsNil() || int(l.idx) >= len(p.records) {
		panic(fmt.Sprintf("history: dangling link %v", l))
	}
	r := &p.records[l.idx]
	if r.gen != l.gen {
		panic(fmt.Sprintf("history: stale link %v, record generation %d", l, r.gen))
	}
	return r
}

// reuse parks the contiguous run last -> ... -> first on the freelist.
// first must be reachable from last by following prev links.
func (p *Pool[V]) reuse(last, first Link) error {
	n := 0
	for cur := last; ; n++ {
		if cur.IsNil() || n >= len(p.records) {
			return errors.Wrapf(ErrBrokenChain, "%v not reachable from %v", first, last)
		}
		if cur == first {
			n++
			break
		}
		cur = p.get(cur).prev
	}

	// drop references so parked records don't pin values
	var zero V
	for cur := last; cur != first; cur = p.records[cur.idx].prev {
		p.records[cur.idx].value = zero
	}
	p.records[first.idx].value = zero

	p.records[first.idx].prev = p.free
	p.free = last
	p.stats.Free += n
	return nil
}
