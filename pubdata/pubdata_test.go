// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pubdata

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/statecache/diff"
	"github.com/vechain/statecache/thor"
)

var (
	addr = thor.MustParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	key  = thor.BytesToBytes32([]byte{0x01})
)

func partial() *diff.AccountDiff {
	return &diff.AccountDiff{
		Kind: diff.Partial,
		Deltas: []diff.Delta{
			{Field: diff.FieldNonce, Op: diff.OpAdd, Magnitude: *uint256.NewInt(1)},
			{Field: diff.FieldBalance, Op: diff.OpSub, Magnitude: *uint256.NewInt(0x1000)},
		},
	}
}

func TestWriterLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Account(addr, &diff.AccountDiff{Kind: diff.Empty}))
	assert.Zero(t, buf.Len())

	require.NoError(t, w.Account(addr, partial()))
	want := append([]byte{TagAccount}, addr[:]...)
	want = append(want, byte(diff.Partial), 5, 0x01, 0x01, 0xc2, 0x10, 0x00)
	assert.Equal(t, want, buf.Bytes())

	buf.Reset()
	require.NoError(t, w.Slot(addr, key, thor.BytesToBytes32([]byte{0xab, 0xcd})))
	want = append([]byte{TagSlot}, addr[:]...)
	want = append(want, key[:]...)
	want = append(want, 2, 0xab, 0xcd)
	assert.Equal(t, want, buf.Bytes())

	assert.Equal(t, int64(1+20+1+1+5+1+20+32+1+2), w.Written())
}

func TestWriterRead(t *testing.T) {
	content := bytes.Repeat([]byte("contract code "), 64)
	hash := thor.Keccak256(content)

	src := &Collector{}
	require.NoError(t, src.Account(addr, partial()))
	require.NoError(t, src.Slot(addr, key, thor.Bytes32{}))
	require.NoError(t, src.Slot(addr, thor.Bytes32{}, thor.BytesToBytes32([]byte{0x07})))
	require.NoError(t, src.Preimage(hash, content))

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, src.Replay(w))
	assert.Less(t, buf.Len(), len(content), "preimages are compressed")

	got := &Collector{}
	require.NoError(t, Read(&buf, got))
	assert.Equal(t, src, got)
}

func TestReadMalformed(t *testing.T) {
	assert.Error(t, Read(bytes.NewReader([]byte{0x09}), &Collector{}))
	assert.Error(t, Read(bytes.NewReader([]byte{TagSlot, 0x01}), &Collector{}))

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Preimage(thor.Bytes32{}, []byte("abc")))
	truncated := buf.Bytes()[:buf.Len()-1]
	assert.Error(t, Read(bytes.NewReader(truncated), &Collector{}))

	// small block claiming an oversized content
	block := binary.AppendUvarint(nil, maxEntrySize+1)
	stream := append([]byte{TagPreimage}, make([]byte, 32)...)
	stream = binary.AppendUvarint(stream, uint64(len(block)))
	stream = append(stream, block...)
	err := Read(bytes.NewReader(stream), &Collector{})
	assert.ErrorContains(t, err, "content length")
}

func TestWriterSkipsNoopPartial(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Account(addr, &diff.AccountDiff{Kind: diff.Partial}))
	assert.Zero(t, buf.Len())
	assert.Zero(t, w.Written())
}

type failingSink struct {
	Collector
	err error
}

func (f *failingSink) Slot(thor.Address, thor.Bytes32, thor.Bytes32) error { return f.err }

func TestTee(t *testing.T) {
	a, b := &Collector{}, &Collector{}
	sink := Tee(a, b)

	require.NoError(t, sink.Account(addr, partial()))
	require.NoError(t, sink.Slot(addr, key, key))
	require.NoError(t, sink.Preimage(key, []byte{1}))
	assert.Equal(t, a, b)
	assert.Len(t, a.Slots, 1)

	boom := errors.New("boom")
	c := &Collector{}
	sink = Tee(&failingSink{err: boom}, c)
	assert.Equal(t, boom, sink.Slot(addr, key, key))
	assert.Empty(t, c.Slots)
}
