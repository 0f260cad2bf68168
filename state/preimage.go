// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"

	"github.com/vechain/statecache/cache"
	"github.com/vechain/statecache/history"
	"github.com/vechain/statecache/record"
	"github.com/vechain/statecache/thor"
)

// DefaultContentCacheSize is the capacity of the content cache shared by
// states created without one.
const DefaultContentCacheSize = 4096

// ContentCache holds preimage contents across blocks.
type ContentCache = cache.LRU[thor.Bytes32, []byte]

// NewContentCache creates a content cache holding up to size preimages.
func NewContentCache(size int) (*ContentCache, error) {
	return cache.NewLRU[thor.Bytes32, []byte](size)
}

var sharedContents, _ = NewContentCache(DefaultContentCacheSize)

type noMeta struct{}

// PreimageCache caches content addressed blobs such as bytecode.
type PreimageCache struct {
	cache    *record.Cache[thor.Bytes32, []byte, noMeta]
	src      Source
	contents *ContentCache
}

func lessHash(a, b thor.Bytes32) bool { return a.Compare(b) < 0 }

func newPreimageCache(src Source, alloc history.Allocator, contents *ContentCache) *PreimageCache {
	return &PreimageCache{
		cache:    record.New[thor.Bytes32, []byte, noMeta](lessHash, alloc),
		src:      src,
		contents: contents,
	}
}

func (c *PreimageCache) load(hash thor.Bytes32) (record.Record[[]byte, noMeta], error) {
	return c.cache.GetOrFetch(hash, func() ([]byte, noMeta, bool, error) {
		content, ok, err := c.contents.GetOrLoad(hash, func(h thor.Bytes32) ([]byte, bool, error) {
			metricSourceReads().AddWithLabel(1, map[string]string{"kind": "preimage"})
			return c.src.Preimage(h)
		})
		if err != nil {
			return nil, noMeta{}, false, &Error{err}
		}
		return content, noMeta{}, ok, nil
	})
}

// Get returns the content of hash. The returned slice must not be modified.
func (c *PreimageCache) Get(hash thor.Bytes32) ([]byte, bool, error) {
	rec, err := c.load(hash)
	if err != nil {
		return nil, false, err
	}
	if rec.Appearance == record.Unset {
		return nil, false, nil
	}
	return rec.Value, true, nil
}

// Insert adds content and returns its hash. Known content is left as is.
func (c *PreimageCache) Insert(content []byte) (thor.Bytes32, error) {
	hash := thor.Keccak256(content)
	rec, err := c.load(hash)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if rec.Appearance != record.Unset {
		return hash, nil
	}
	return hash, c.cache.Update(hash, func(v *[]byte, _ *noMeta) error {
		*v = bytes.Clone(content)
		return nil
	})
}

func (c *PreimageCache) snapshot() history.SnapshotID { return c.cache.Snapshot() }

func (c *PreimageCache) rollback(id history.SnapshotID) error { return c.cache.Rollback(id) }

func (c *PreimageCache) beginNewTx() (int, error) {
	added := 0
	c.cache.DiffSinceCommit(func(_ thor.Bytes32, before, current record.Record[[]byte, noMeta]) bool {
		if before.Appearance == record.Unset && current.Appearance == record.Updated {
			added++
		}
		return true
	})
	return added, c.cache.Commit()
}

// changes calls fn, in hash order, for every preimage added in the block.
func (c *PreimageCache) changes(fn func(hash thor.Bytes32, content []byte) error) (err error) {
	c.cache.Diff(func(hash thor.Bytes32, initial, current record.Record[[]byte, noMeta]) bool {
		if initial.Appearance != record.Unset || current.Appearance != record.Updated {
			return true
		}
		err = fn(hash, current.Value)
		return err == nil
	})
	return
}

func (c *PreimageCache) stats() history.Stats { return c.cache.Stats() }
