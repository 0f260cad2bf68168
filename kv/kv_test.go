// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMem(t *testing.T) *LevelDB {
	db, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLevelDB(t *testing.T) {
	db := newMem(t)

	_, err := db.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	has, err := db.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, db.Delete([]byte("k")))
	has, err = db.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBatch(t *testing.T) {
	db := newMem(t)

	b := db.NewBatch()
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Put([]byte("b"), []byte("2")))
	require.NoError(t, b.Delete([]byte("a")))
	assert.Equal(t, 3, b.Len())

	has, _ := db.Has([]byte("b"))
	assert.False(t, has)

	require.NoError(t, b.Write())
	assert.Equal(t, 0, b.Len())

	has, _ = db.Has([]byte("a"))
	assert.False(t, has)
	v, err := db.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestBucket(t *testing.T) {
	db := newMem(t)

	accounts := Bucket("a")
	slots := Bucket("s")

	require.NoError(t, accounts.NewPutter(db).Put([]byte("x"), []byte("acc")))
	require.NoError(t, slots.NewPutter(db).Put([]byte("x"), []byte("slot")))

	v, err := accounts.NewGetter(db).Get([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("acc"), v)

	v, err = db.Get([]byte("sx"))
	require.NoError(t, err)
	assert.Equal(t, []byte("slot"), v)

	_, err = Bucket("p").NewGetter(db).Get([]byte("x"))
	assert.True(t, Bucket("p").NewGetter(db).IsNotFound(err))

	require.NoError(t, slots.NewPutter(db).Delete([]byte("x")))
	has, err := slots.NewGetter(db).Has([]byte("x"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPersistentReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	db, err := New(path, Options{})
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = New(path, Options{ReadOnly: true})
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}
