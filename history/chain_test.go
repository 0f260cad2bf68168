// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func push(p *Pool[string], c *chain[string], v string, at SnapshotID) {
	c.addRecord(p.create(v, c.head, at))
}

func TestChainRollback(t *testing.T) {
	p := NewPool[string](nil)
	c := newChain(p, "orig")

	push(p, &c, "a", 1)
	push(p, &c, "b", 2)
	push(p, &c, "c", 3)

	require.NoError(t, c.rollback(p, 3))
	assert.Equal(t, "c", c.current(p), "no-op when head is not newer")

	require.NoError(t, c.rollback(p, 1))
	assert.Equal(t, "a", c.current(p))
	assert.Equal(t, 2, p.Stats().Free)

	require.NoError(t, c.rollback(p, 0))
	assert.Equal(t, "orig", c.current(p))
	assert.Equal(t, c.initial, c.first)
	assert.False(t, c.written())

	_, _, ok := c.initialAndCurrent(p)
	assert.False(t, ok)
}

func TestChainCommit(t *testing.T) {
	p := NewPool[string](nil)
	c := newChain(p, "orig")

	require.NoError(t, c.commit(p))
	assert.Equal(t, 0, p.Stats().Free)

	push(p, &c, "a", 1)
	require.NoError(t, c.commit(p))
	assert.Equal(t, 0, p.Stats().Free, "single record is kept as is")
	assert.Equal(t, c.initial, c.first)

	push(p, &c, "b", 3)
	push(p, &c, "c", 4)
	push(p, &c, "d", 5)
	before, cur, ok := c.sinceCommit(p)
	require.True(t, ok)
	assert.Equal(t, "a", before)
	assert.Equal(t, "d", cur)

	require.NoError(t, c.commit(p))
	assert.Equal(t, 3, p.Stats().Free)
	assert.Equal(t, c.initial, p.get(c.head).prev)

	initial, cur, ok := c.initialAndCurrent(p)
	require.True(t, ok)
	assert.Equal(t, "orig", initial)
	assert.Equal(t, "d", cur)

	_, _, ok = c.sinceCommit(p)
	assert.False(t, ok)
}
