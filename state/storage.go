// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/vechain/statecache/history"
	"github.com/vechain/statecache/record"
	"github.com/vechain/statecache/thor"
)

// TxID numbers the transactions of a block. It marks warm/cold boundaries.
type TxID uint32

// SlotKey addresses a storage slot.
type SlotKey struct {
	Addr thor.Address
	Key  thor.Bytes32
}

// Less orders slots by address, then key, so the slots of an account are adjacent.
func (k SlotKey) Less(o SlotKey) bool {
	if c := k.Addr.Compare(o.Addr); c != 0 {
		return c < 0
	}
	return k.Key.Compare(o.Key) < 0
}

// SlotMeta is kept alongside each slot.
type SlotMeta struct {
	LastAccessTx TxID
}

// StorageCache caches contract storage slots.
type StorageCache struct {
	cache *record.Cache[SlotKey, thor.Bytes32, SlotMeta]
	src   Source
	tx    TxID
}

func newStorageCache(src Source, alloc history.Allocator, tx TxID) *StorageCache {
	return &StorageCache{
		cache: record.New[SlotKey, thor.Bytes32, SlotMeta](SlotKey.Less, alloc),
		src:   src,
		tx:    tx,
	}
}

func (c *StorageCache) load(k SlotKey) (record.Record[thor.Bytes32, SlotMeta], error) {
	return c.cache.GetOrFetch(k, func() (thor.Bytes32, SlotMeta, bool, error) {
		metricSourceReads().AddWithLabel(1, map[string]string{"kind": "storage"})
		v, ok, err := c.src.Storage(k.Addr, k.Key)
		if err != nil {
			return thor.Bytes32{}, SlotMeta{}, false, &Error{err}
		}
		return v, SlotMeta{}, ok, nil
	})
}

// Get returns the value of a slot and whether it was already accessed in
// the current transaction. The access mark is reverted with its frame.
func (c *StorageCache) Get(addr thor.Address, key thor.Bytes32) (value thor.Bytes32, warm bool, err error) {
	k := SlotKey{addr, key}
	rec, err := c.load(k)
	if err != nil {
		return thor.Bytes32{}, false, err
	}
	if rec.Meta.LastAccessTx == c.tx {
		return rec.Value, true, nil
	}
	if err := c.cache.UpdateMetadata(k, func(m *SlotMeta) error {
		m.LastAccessTx = c.tx
		return nil
	}); err != nil {
		return thor.Bytes32{}, false, err
	}
	return rec.Value, false, nil
}

// Set writes a slot and reports whether it was warm before the write.
func (c *StorageCache) Set(addr thor.Address, key, value thor.Bytes32) (warm bool, err error) {
	k := SlotKey{addr, key}
	rec, err := c.load(k)
	if err != nil {
		return false, err
	}
	warm = rec.Meta.LastAccessTx == c.tx
	return warm, c.cache.Update(k, func(v *thor.Bytes32, m *SlotMeta) error {
		*v = value
		m.LastAccessTx = c.tx
		return nil
	})
}

// ClearAddress zeroes every cached slot of addr. Slots never loaded are not
// visited, so it is only complete for accounts created in this block.
func (c *StorageCache) ClearAddress(addr thor.Address) error {
	var keys []SlotKey
	c.cache.AscendFrom(SlotKey{Addr: addr}, func(k SlotKey, rec record.Record[thor.Bytes32, SlotMeta]) bool {
		if k.Addr != addr {
			return false
		}
		if !rec.Value.IsZero() {
			keys = append(keys, k)
		}
		return true
	})
	for _, k := range keys {
		if err := c.cache.Update(k, func(v *thor.Bytes32, _ *SlotMeta) error {
			*v = thor.Bytes32{}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *StorageCache) snapshot() history.SnapshotID { return c.cache.Snapshot() }

func (c *StorageCache) rollback(id history.SnapshotID) error { return c.cache.Rollback(id) }

// beginNewTx commits the history of the current transaction and returns the
// number of slots whose value it changed.
func (c *StorageCache) beginNewTx(tx TxID) (int, error) {
	changed := 0
	c.cache.DiffSinceCommit(func(_ SlotKey, before, current record.Record[thor.Bytes32, SlotMeta]) bool {
		if before.Value != current.Value {
			changed++
		}
		return true
	})
	if err := c.cache.Commit(); err != nil {
		return 0, err
	}
	c.tx = tx
	return changed, nil
}

// changes calls fn, in slot order, for every slot whose value differs from
// its value at block start.
func (c *StorageCache) changes(fn func(k SlotKey, value thor.Bytes32) error) (err error) {
	c.cache.Diff(func(k SlotKey, initial, current record.Record[thor.Bytes32, SlotMeta]) bool {
		if initial.Value == current.Value {
			return true
		}
		err = fn(k, current.Value)
		return err == nil
	})
	return
}

func (c *StorageCache) stats() history.Stats { return c.cache.Stats() }
