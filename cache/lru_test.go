// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLRUInvalidSize(t *testing.T) {
	_, err := NewLRU[string, []byte](0)
	assert.Error(t, err)
}

func TestLRUEviction(t *testing.T) {
	c, err := NewLRU[int, string](2)
	require.NoError(t, err)

	assert.False(t, c.Add(1, "a"))
	assert.False(t, c.Add(2, "b"))
	_, _ = c.Get(1)
	assert.True(t, c.Add(3, "c"))

	assert.True(t, c.Contains(1))
	assert.False(t, c.Contains(2))
	assert.Equal(t, 2, c.Len())
}

func TestGetOrLoad(t *testing.T) {
	c, err := NewLRU[string, []byte](4)
	require.NoError(t, err)

	calls := 0
	load := func(key string) ([]byte, bool, error) {
		calls++
		switch key {
		case "missing":
			return nil, false, nil
		case "broken":
			return nil, false, errors.New("disk gone")
		}
		return []byte(key), true, nil
	}

	v, ok, err := c.GetOrLoad("code", load)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("code"), v)

	v, ok, err = c.GetOrLoad("code", load)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("code"), v)
	assert.Equal(t, 1, calls)

	_, ok, err = c.GetOrLoad("missing", load)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, c.Contains("missing"))

	_, _, err = c.GetOrLoad("broken", load)
	assert.EqualError(t, err, "disk gone")
	assert.False(t, c.Contains("broken"))

	_, hit, miss := c.Stats().Stats()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(3), miss)
}
