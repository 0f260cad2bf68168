// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package record

import (
	"github.com/vechain/statecache/history"
)

// Record is a cached value together with its appearance and metadata.
// Values are copied on every write, so V and M should be treated as
// immutable once stored: replace slices rather than mutating them.
type Record[V, M any] struct {
	Appearance Appearance
	Value      V
	Meta       M
}

// Fetcher loads the original value of a key. exists is false when the
// source has no value, in which case the record starts Unset.
type Fetcher[V, M any] func() (value V, meta M, exists bool, err error)

// Cache is a revertible cache of records.
type Cache[K comparable, V, M any] struct {
	m *history.Map[K, Record[V, M]]
}

// New creates an empty cache ordered by less.
func New[K comparable, V, M any](less func(a, b K) bool, alloc history.Allocator) *Cache[K, V, M] {
	return &Cache[K, V, M]{
		m: history.New[K, Record[V, M]](less, alloc),
	}
}

// Get returns the record of a key already in the cache.
func (c *Cache[K, V, M]) Get(key K) (Record[V, M], bool) {
	return c.m.Get(key)
}

// GetOrFetch returns the record of key, loading it through fetch on first access.
func (c *Cache[K, V, M]) GetOrFetch(key K, fetch Fetcher[V, M]) (Record[V, M], error) {
	return c.m.GetOrInsert(key, func() (Record[V, M], error) {
		v, meta, exists, err := fetch()
		if err != nil {
			return Record[V, M]{}, err
		}
		rec := Record[V, M]{Appearance: Unset, Value: v, Meta: meta}
		if exists {
			rec.Appearance = Retrieved
		}
		return rec, nil
	})
}

// Update applies f to the value and metadata of key. On success the record
// becomes Updated, unless it is Deconstructed, which is kept. If f fails,
// value, metadata and appearance are left untouched and f's error is returned.
func (c *Cache[K, V, M]) Update(key K, f func(v *V, meta *M) error) error {
	return c.m.Update(key, func(rec *Record[V, M]) error {
		if err := f(&rec.Value, &rec.Meta); err != nil {
			return err
		}
		if rec.Appearance != Deconstructed {
			rec.Appearance = Updated
		}
		return nil
	})
}

// UpdateMetadata applies f to the metadata of key only. Appearance is kept.
func (c *Cache[K, V, M]) UpdateMetadata(key K, f func(meta *M) error) error {
	return c.m.Update(key, func(rec *Record[V, M]) error {
		return f(&rec.Meta)
	})
}

// Transition moves key to the given appearance, rejecting illegal changes.
func (c *Cache[K, V, M]) Transition(key K, to Appearance) error {
	return c.m.Update(key, func(rec *Record[V, M]) error {
		if err := checkTransition(rec.Appearance, to); err != nil {
			return err
		}
		rec.Appearance = to
		return nil
	})
}

// Deconstruct marks key destroyed after applying f to its value and metadata.
// Only Retrieved or Updated records may be destroyed.
func (c *Cache[K, V, M]) Deconstruct(key K, f func(v *V, meta *M) error) error {
	return c.m.Update(key, func(rec *Record[V, M]) error {
		if err := checkTransition(rec.Appearance, Deconstructed); err != nil {
			return err
		}
		if f != nil {
			if err := f(&rec.Value, &rec.Meta); err != nil {
				return err
			}
		}
		rec.Appearance = Deconstructed
		return nil
	})
}

// Unset undoes the creation of key.
func (c *Cache[K, V, M]) Unset(key K) error {
	return c.Transition(key, Unset)
}

// Snapshot returns an id to roll back to.
func (c *Cache[K, V, M]) Snapshot() history.SnapshotID {
	return c.m.Snapshot()
}

// Rollback reverts every record to its state at id.
func (c *Cache[K, V, M]) Rollback(id history.SnapshotID) error {
	return c.m.Rollback(id)
}

// Commit finalizes the history written so far.
func (c *Cache[K, V, M]) Commit() error {
	return c.m.Commit()
}

// Range calls fn for records with keys in [from, to).
func (c *Cache[K, V, M]) Range(from, to K, fn func(key K, rec Record[V, M]) bool) {
	c.m.Range(from, to, fn)
}

// AscendFrom calls fn for records with keys >= from, in order, until fn
// returns false.
func (c *Cache[K, V, M]) AscendFrom(from K, fn func(key K, rec Record[V, M]) bool) {
	c.m.AscendFrom(from, fn)
}

// Diff calls fn with the original and current record of every written key.
func (c *Cache[K, V, M]) Diff(fn func(key K, initial, current Record[V, M]) bool) {
	c.m.Diff(fn)
}

// DiffSinceCommit calls fn with the record before the current transaction
// and the current record of every key written since the last commit.
func (c *Cache[K, V, M]) DiffSinceCommit(fn func(key K, before, current Record[V, M]) bool) {
	c.m.DiffSinceCommit(fn)
}

// Stats returns the size of the underlying history.
func (c *Cache[K, V, M]) Stats() history.Stats {
	return c.m.Stats()
}
