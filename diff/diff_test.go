// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package diff_test

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/statecache/acc"
	"github.com/vechain/statecache/diff"
	"github.com/vechain/statecache/record"
	"github.com/vechain/statecache/thor"
)

func props(nonce uint64, balance uint64) *acc.Properties {
	p := &acc.Properties{Nonce: nonce}
	p.Balance.SetUint64(balance)
	return p
}

func TestAccountKinds(t *testing.T) {
	tests := []struct {
		name          string
		before, after record.Appearance
		want          diff.Kind
	}{
		{"new account", record.Unset, record.Updated, diff.Full},
		{"created and destroyed", record.Unset, record.Deconstructed, diff.Full},
		{"written", record.Retrieved, record.Updated, diff.Partial},
		{"written in earlier tx", record.Updated, record.Updated, diff.Partial},
		{"read only", record.Retrieved, record.Retrieved, diff.Empty},
		{"destroyed", record.Retrieved, record.Deconstructed, diff.Partial},
	}
	for _, tt := range tests {
		d, err := diff.Account(tt.before, tt.after, props(1, 10), props(2, 5))
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, d.Kind, tt.name)
	}
}

func TestAccountUndefined(t *testing.T) {
	pairs := [][2]record.Appearance{
		{record.Updated, record.Deconstructed},
		{record.Retrieved, record.Unset},
		{record.Deconstructed, record.Deconstructed},
		{record.Updated, record.Retrieved},
	}
	for _, p := range pairs {
		_, err := diff.Account(p[0], p[1], props(0, 0), props(0, 0))
		assert.True(t, errors.Is(err, diff.ErrUndefinedTransition), "%v -> %v", p[0], p[1])
	}
}

func TestEncodedSize(t *testing.T) {
	full, err := diff.Account(record.Unset, record.Updated, props(0, 0), props(1, 1))
	require.NoError(t, err)
	assert.Equal(t, acc.EncodedSize, full.EncodedSize())
	assert.Len(t, full.Encode(nil), acc.EncodedSize)

	empty, err := diff.Account(record.Retrieved, record.Retrieved, props(1, 1), props(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.EncodedSize())
	assert.Empty(t, empty.Encode(nil))

	// nonce +1, balance untouched
	nonceOnly, err := diff.Account(record.Retrieved, record.Updated, props(1, 500), props(2, 500))
	require.NoError(t, err)
	require.Len(t, nonceOnly.Deltas, 1)
	assert.Equal(t, 1+1, nonceOnly.EncodedSize())
	assert.Equal(t, []byte{0x01, 0x01}, nonceOnly.Encode(nil))

	// nonce +1, balance -0x1_0000 (3 bytes)
	both, err := diff.Account(record.Retrieved, record.Updated, props(1, 0x10000+7), props(2, 7))
	require.NoError(t, err)
	require.Len(t, both.Deltas, 2)
	assert.Equal(t, 2+1+3, both.EncodedSize())
	assert.Equal(t, []byte{0x01, 0x01, 0xc3, 0x01, 0x00, 0x00}, both.Encode(nil))

	// written but unchanged
	same, err := diff.Account(record.Retrieved, record.Updated, props(3, 3), props(3, 3))
	require.NoError(t, err)
	assert.Equal(t, diff.Partial, same.Kind)
	assert.Equal(t, 0, same.EncodedSize())
}

func TestDestroyedPublishesBalanceOnly(t *testing.T) {
	before := props(4, 100)
	after := props(9, 0)
	d, err := diff.Account(record.Retrieved, record.Deconstructed, before, after)
	require.NoError(t, err)
	require.Len(t, d.Deltas, 1)
	assert.Equal(t, diff.FieldBalance, d.Deltas[0].Field)
	assert.Equal(t, diff.OpSub, d.Deltas[0].Op)
	assert.Equal(t, 2, d.EncodedSize())
}

func TestCodeChangeFallsBackToFull(t *testing.T) {
	before := props(0, 10)
	after := props(1, 10)
	after.BytecodeHash = thor.Keccak256([]byte{0x60, 0x00})
	after.BytecodeLen = 2

	d, err := diff.Account(record.Retrieved, record.Updated, before, after)
	require.NoError(t, err)
	assert.Equal(t, diff.Full, d.Kind)
	assert.Equal(t, *after, d.Full)
}

func TestApply(t *testing.T) {
	allOnes := new(uint256.Int).SetAllOne()
	big := &acc.Properties{Nonce: 1 << 40}
	big.Balance.Set(allOnes)

	cases := [][2]*acc.Properties{
		{props(0, 0), props(1, 1)},
		{props(10, 1000), props(3, 1)},
		{big, props(0, 0)},
		{props(0, 0), big},
	}
	for _, c := range cases {
		d, err := diff.Account(record.Retrieved, record.Updated, c[0], c[1])
		require.NoError(t, err)
		got, err := d.Apply(c[0])
		require.NoError(t, err)
		assert.Equal(t, *c[1], got)
		assert.Len(t, d.Encode(nil), d.EncodedSize())
	}
}

func TestApplyOutOfRange(t *testing.T) {
	sub := func(field diff.Field, n uint64) *diff.AccountDiff {
		return &diff.AccountDiff{Kind: diff.Partial, Deltas: []diff.Delta{
			{Field: field, Op: diff.OpSub, Magnitude: *uint256.NewInt(n)},
		}}
	}
	add := func(field diff.Field, m *uint256.Int) *diff.AccountDiff {
		return &diff.AccountDiff{Kind: diff.Partial, Deltas: []diff.Delta{
			{Field: field, Op: diff.OpAdd, Magnitude: *m},
		}}
	}
	maxNonce := &acc.Properties{Nonce: math.MaxUint64}
	maxBalance := &acc.Properties{}
	maxBalance.Balance.SetAllOne()

	cases := []struct {
		name   string
		before *acc.Properties
		d      *diff.AccountDiff
	}{
		{"nonce underflow", props(2, 0), sub(diff.FieldNonce, 3)},
		{"balance underflow", props(0, 5), sub(diff.FieldBalance, 6)},
		{"nonce overflow", maxNonce, add(diff.FieldNonce, uint256.NewInt(1))},
		{"balance overflow", maxBalance, add(diff.FieldBalance, uint256.NewInt(1))},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.d.Apply(c.before)
			assert.Error(t, err)
		})
	}

	got, err := sub(diff.FieldBalance, 5).Apply(props(0, 5))
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
}

func TestIsNoop(t *testing.T) {
	d, err := diff.Account(record.Retrieved, record.Updated, props(1, 7), props(1, 7))
	require.NoError(t, err)
	assert.Equal(t, diff.Partial, d.Kind)
	assert.True(t, d.IsNoop())

	assert.True(t, (&diff.AccountDiff{Kind: diff.Empty}).IsNoop())
	assert.False(t, (&diff.AccountDiff{Kind: diff.Full}).IsNoop())

	d, err = diff.Account(record.Retrieved, record.Updated, props(1, 7), props(2, 7))
	require.NoError(t, err)
	assert.False(t, d.IsNoop())
}

func TestDecode(t *testing.T) {
	before := props(3, 500)
	after := props(4, 20)

	d, err := diff.Account(record.Retrieved, record.Updated, before, after)
	require.NoError(t, err)

	decoded, err := diff.Decode(d.Kind, d.Encode(nil))
	require.NoError(t, err)
	assert.Equal(t, d, decoded)

	full, err := diff.Account(record.Unset, record.Updated, before, after)
	require.NoError(t, err)
	decoded, err = diff.Decode(diff.Full, full.Encode(nil))
	require.NoError(t, err)
	assert.Equal(t, *after, decoded.Full)

	_, err = diff.Decode(diff.Partial, []byte{0x82, 0x01})
	assert.Error(t, err)
	_, err = diff.Decode(diff.Partial, []byte{0x80})
	assert.Error(t, err)
	_, err = diff.Decode(diff.Empty, []byte{0x00})
	assert.Error(t, err)
	_, err = diff.Decode(diff.Kind(9), nil)
	assert.Error(t, err)
}
