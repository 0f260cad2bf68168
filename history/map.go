// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/btree"
	"github.com/pkg/errors"
)

const btreeDegree = 32

// Map keeps an ordered set of keys, each with its own version chain, and
// lets callers snapshot, roll back and commit across all of them.
//
// Rollback and commit only visit keys recorded in the write journal since
// the relevant boundary, so their cost follows the work done rather than
// the number of keys held.
type Map[K comparable, V any] struct {
	chains  *btree.BTreeG[*entry[K, V]]
	pool    *Pool[V]
	current SnapshotID // stamp given to new records
	lineage []frame    // live snapshots since the last commit, ascending
	journal []K        // key of every record created since the last commit
}

type entry[K comparable, V any] struct {
	key   K
	chain chain[V]
}

type frame struct {
	id   SnapshotID
	mark int // journal length when the snapshot was taken
}

// Stats describes a Map.
type Stats struct {
	Keys  int
	Depth int
	Pool  PoolStats
}

// New creates an empty map ordered by less. Records are drawn from alloc.
func New[K comparable, V any](less func(a, b K) bool, alloc Allocator) *Map[K, V] {
	return &Map[K, V]{
		chains: btree.NewG(btreeDegree, func(a, b *entry[K, V]) bool {
			return less(a.key, b.key)
		}),
		pool:    NewPool[V](alloc),
		current: 1,
	}
}

func (m *Map[K, V]) lookup(key K) (*entry[K, V], bool) {
	return m.chains.Get(&entry[K, V]{key: key})
}

// Get returns the current value of key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	e, ok := m.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.chain.current(m.pool), true
}

// Has returns whether key was ever materialized.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.lookup(key)
	return ok
}

// GetOrInsert returns the current value of key. An unseen key is materialized
// with the original value supplied by fetch; errors from fetch are returned
// untouched and leave the map unchanged.
func (m *Map[K, V]) GetOrInsert(key K, fetch func() (V, error)) (V, error) {
	if e, ok := m.lookup(key); ok {
		return e.chain.current(m.pool), nil
	}
	v, err := fetch()
	if err != nil {
		var zero V
		return zero, err
	}
	m.chains.ReplaceOrInsert(&entry[K, V]{key: key, chain: newChain(m.pool, v)})
	return v, nil
}

// Update applies f to a copy of the current value of key and stores the
// result. The first write after a snapshot creates one record; later writes
// before the next snapshot overwrite that record. If f fails nothing changes.
func (m *Map[K, V]) Update(key K, f func(v *V) error) error {
	e, ok := m.lookup(key)
	if !ok {
		return ErrKeyNotFound
	}

	head := m.pool.get(e.chain.head)
	v := head.value
	if err := f(&v); err != nil {
		return err
	}

	if head.at == m.current {
		head.value = v
		return nil
	}
	e.chain.addRecord(m.pool.create(v, e.chain.head, m.current))
	m.journal = append(m.journal, key)
	return nil
}

// Snapshot returns a new id marking the current state. Writes made after it
// are discarded by Rollback(id).
func (m *Map[K, V]) Snapshot() SnapshotID {
	id := m.current
	m.current++
	m.lineage = append(m.lineage, frame{id: id, mark: len(m.journal)})
	return id
}

// Depth returns the number of live snapshots since the last commit.
func (m *Map[K, V]) Depth() int {
	return len(m.lineage)
}

// Rollback reverts every key to its value at snapshot id. Snapshots taken
// after id are discarded; id itself stays valid.
func (m *Map[K, V]) Rollback(id SnapshotID) error {
	i := sort.Search(len(m.lineage), func(i int) bool {
		return m.lineage[i].id >= id
	})
	if i == len(m.lineage) || m.lineage[i].id != id {
		return errors.Wrapf(ErrUnknownSnapshot, "rollback to %d", id)
	}

	mark := m.lineage[i].mark
	for _, key := range m.journal[mark:] {
		e, ok := m.lookup(key)
		if !ok {
			return errors.Wrapf(ErrKeyNotFound, "journaled key %v", key)
		}
		if err := e.chain.rollback(m.pool, id); err != nil {
			return err
		}
	}
	clear(m.journal[mark:])
	m.journal = m.journal[:mark]
	m.lineage = m.lineage[:i+1]
	return nil
}

// Commit collapses the history of every key written since the last commit
// to a single before/after pair and invalidates all issued snapshots.
//
// Committing while snapshots are still pending is not an error: a snapshot
// that is never rolled back has its frame's writes kept, so Commit resolves
// every pending snapshot as kept. Rolling back to any of them afterwards
// fails with ErrUnknownSnapshot.
func (m *Map[K, V]) Commit() error {
	seen := mapset.NewThreadUnsafeSetWithSize[K](len(m.journal))
	for _, key := range m.journal {
		if !seen.Add(key) {
			continue
		}
		e, ok := m.lookup(key)
		if !ok {
			return errors.Wrapf(ErrKeyNotFound, "journaled key %v", key)
		}
		if err := e.chain.commit(m.pool); err != nil {
			return err
		}
	}
	clear(m.journal)
	m.journal = m.journal[:0]
	m.lineage = m.lineage[:0]
	// records of the next transaction never share a stamp with committed ones
	m.current++
	return nil
}

// Range calls fn for each key in [from, to) in ascending order until fn
// returns false.
func (m *Map[K, V]) Range(from, to K, fn func(key K, value V) bool) {
	m.chains.AscendRange(&entry[K, V]{key: from}, &entry[K, V]{key: to}, func(e *entry[K, V]) bool {
		return fn(e.key, e.chain.current(m.pool))
	})
}

// AscendFrom calls fn for each key >= from in ascending order until fn
// returns false.
func (m *Map[K, V]) AscendFrom(from K, fn func(key K, value V) bool) {
	m.chains.AscendGreaterOrEqual(&entry[K, V]{key: from}, func(e *entry[K, V]) bool {
		return fn(e.key, e.chain.current(m.pool))
	})
}

// Diff calls fn in key order with the original and current value of every
// key written during the map's lifetime. Keys only read are skipped.
func (m *Map[K, V]) Diff(fn func(key K, initial, current V) bool) {
	m.chains.Ascend(func(e *entry[K, V]) bool {
		initial, current, ok := e.chain.initialAndCurrent(m.pool)
		if !ok {
			return true
		}
		return fn(e.key, initial, current)
	})
}

// DiffSinceCommit calls fn, in first-write order, with the value before the
// current transaction and the current value of every key written since the
// last commit.
func (m *Map[K, V]) DiffSinceCommit(fn func(key K, before, current V) bool) {
	seen := mapset.NewThreadUnsafeSetWithSize[K](len(m.journal))
	for _, key := range m.journal {
		if !seen.Add(key) {
			continue
		}
		e, ok := m.lookup(key)
		if !ok {
			continue
		}
		before, current, ok := e.chain.sinceCommit(m.pool)
		if !ok {
			continue
		}
		if !fn(key, before, current) {
			return
		}
	}
}

// Stats returns the size of the map.
func (m *Map[K, V]) Stats() Stats {
	return Stats{
		Keys:  m.chains.Len(),
		Depth: len(m.lineage),
		Pool:  m.pool.Stats(),
	}
}
