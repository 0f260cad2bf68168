// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/statecache/acc"
	"github.com/vechain/statecache/diff"
	"github.com/vechain/statecache/kv"
	"github.com/vechain/statecache/thor"
)

func newStore(t *testing.T) *kv.LevelDB {
	db, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// seed writes accounts and slots straight into the store of a new source.
func seed(t *testing.T, accounts map[thor.Address]acc.Properties, slots map[SlotKey]thor.Bytes32) *KVSource {
	src := NewKVSource(newStore(t))
	sink := src.NewSink()
	for addr, p := range accounts {
		require.NoError(t, sink.Account(addr, &diff.AccountDiff{Kind: diff.Full, Full: p}))
	}
	for k, v := range slots {
		require.NoError(t, sink.Slot(k.Addr, k.Key, v))
	}
	require.NoError(t, sink.Write())
	return src
}

func newState(t *testing.T, src Source) *State {
	contents, err := NewContentCache(16)
	require.NoError(t, err)
	return New(src, Options{Contents: contents})
}

func props(nonce, balance uint64) acc.Properties {
	p := acc.Properties{Nonce: nonce}
	p.Balance.SetUint64(balance)
	return p
}

func word(b ...byte) thor.Bytes32 {
	return thor.BytesToBytes32(b)
}

func addr(b byte) thor.Address {
	var a thor.Address
	a[len(a)-1] = b
	return a
}

func balanceOf(t *testing.T, st *State, a thor.Address) uint64 {
	p, _, err := st.Accounts().Get(a)
	require.NoError(t, err)
	return p.Balance.Uint64()
}

func slotOf(t *testing.T, st *State, a thor.Address, key thor.Bytes32) thor.Bytes32 {
	v, _, err := st.Storage().Get(a, key)
	require.NoError(t, err)
	return v
}
