// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache provides the bounded content caches that outlive a block.
package cache

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// LRU is a typed, size bounded least-recently-used cache that counts its
// hits and misses. It is safe for concurrent use.
type LRU[K comparable, V any] struct {
	cache *lru.Cache
	stats Stats
}

// NewLRU creates an LRU holding at most maxSize entries. maxSize must be > 0.
func NewLRU[K comparable, V any](maxSize int) (*LRU[K, V], error) {
	c, err := lru.New(maxSize)
	if err != nil {
		return nil, errors.Wrap(err, "new lru")
	}
	return &LRU[K, V]{cache: c}, nil
}

// Get returns the cached value for key.
func (l *LRU[K, V]) Get(key K) (V, bool) {
	if v, ok := l.cache.Get(key); ok {
		l.stats.Hit()
		return v.(V), true
	}
	l.stats.Miss()
	var zero V
	return zero, false
}

// Contains reports presence without touching recency or stats.
func (l *LRU[K, V]) Contains(key K) bool {
	return l.cache.Contains(key)
}

// Add inserts or refreshes key. It reports whether an entry was evicted.
func (l *LRU[K, V]) Add(key K, value V) bool {
	return l.cache.Add(key, value)
}

// Len returns the number of cached entries.
func (l *LRU[K, V]) Len() int {
	return l.cache.Len()
}

// Loader loads the value of a missed key. ok is false when the key does not
// exist upstream; such keys are not cached.
type Loader[K comparable, V any] func(key K) (value V, ok bool, err error)

// GetOrLoad returns the cached value, falling back to load on a miss.
func (l *LRU[K, V]) GetOrLoad(key K, load Loader[K, V]) (V, bool, error) {
	if v, ok := l.Get(key); ok {
		return v, true, nil
	}
	v, ok, err := load(key)
	if err != nil || !ok {
		var zero V
		return zero, false, err
	}
	l.cache.Add(key, v)
	return v, true, nil
}

// Stats returns the hit/miss counters.
func (l *LRU[K, V]) Stats() *Stats {
	return &l.stats
}
