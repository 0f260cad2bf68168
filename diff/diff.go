// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package diff decides how an account change is published.
//
// A change is described by the appearance and properties of the account
// before and after. New accounts are published in full, written accounts as
// signed per-field deltas of nonce and balance, and read-only touches not at
// all.
package diff

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/statecache/acc"
	"github.com/vechain/statecache/record"
)

// ErrUndefinedTransition is returned for appearance pairs with no defined
// encoding. It indicates a bug in the caller, not bad input.
var ErrUndefinedTransition = errors.New("diff: undefined appearance transition")

// Kind is the encoding chosen for an account change.
type Kind uint8

const (
	// Empty publishes nothing.
	Empty Kind = iota
	// Partial publishes per-field deltas.
	Partial
	// Full publishes every field.
	Full
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Partial:
		return "partial"
	case Full:
		return "full"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Field identifies a delta-encoded account field.
type Field uint8

const (
	FieldNonce Field = iota
	FieldBalance
)

// Op is the sign of a delta.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
)

const (
	fieldBit = 0x80
	opBit    = 0x40
	maxWidth = 32
)

// Delta is the change of a single field.
type Delta struct {
	Field     Field
	Op        Op
	Magnitude uint256.Int
}

// Width returns the minimal number of bytes holding the magnitude.
func (d *Delta) Width() int {
	return (d.Magnitude.BitLen() + 7) / 8
}

func (d *Delta) tag() byte {
	t := byte(d.Width())
	if d.Field == FieldBalance {
		t |= fieldBit
	}
	if d.Op == OpSub {
		t |= opBit
	}
	return t
}

// AccountDiff is the published form of an account change.
type AccountDiff struct {
	Kind   Kind
	Full   acc.Properties // set when Kind is Full
	Deltas []Delta        // set when Kind is Partial; zero deltas are omitted
}

// IsNoop reports whether applying d changes nothing: an Empty diff, or a
// Partial one whose writes cancelled out.
func (d *AccountDiff) IsNoop() bool {
	return d.Kind == Empty || (d.Kind == Partial && len(d.Deltas) == 0)
}

// EncodedSize returns the number of bytes Encode appends.
func (d *AccountDiff) EncodedSize() int {
	switch d.Kind {
	case Full:
		return acc.EncodedSize
	case Partial:
		n := 0
		for i := range d.Deltas {
			n += 1 + d.Deltas[i].Width()
		}
		return n
	}
	return 0
}

// Encode appends the encoding of d to buf. A partial diff is written as one
// tag byte per field followed by the big-endian magnitude.
func (d *AccountDiff) Encode(buf []byte) []byte {
	switch d.Kind {
	case Full:
		return d.Full.Encode(buf)
	case Partial:
		for i := range d.Deltas {
			delta := &d.Deltas[i]
			b32 := delta.Magnitude.Bytes32()
			buf = append(buf, delta.tag())
			buf = append(buf, b32[maxWidth-delta.Width():]...)
		}
	}
	return buf
}

// Decode parses the encoding of a diff of the given kind.
func Decode(kind Kind, data []byte) (*AccountDiff, error) {
	d := &AccountDiff{Kind: kind}
	switch kind {
	case Empty:
		if len(data) != 0 {
			return nil, errors.New("diff: trailing bytes after empty diff")
		}
	case Full:
		p, err := acc.Decode(data)
		if err != nil {
			return nil, err
		}
		d.Full = *p
	case Partial:
		for len(data) > 0 {
			tag := data[0]
			width := int(tag &^ (fieldBit | opBit))
			if width == 0 || width > maxWidth || len(data) < 1+width {
				return nil, errors.Errorf("diff: malformed delta tag %#x", tag)
			}
			delta := Delta{Field: FieldNonce, Op: OpAdd}
			if tag&fieldBit != 0 {
				delta.Field = FieldBalance
			}
			if tag&opBit != 0 {
				delta.Op = OpSub
			}
			delta.Magnitude.SetBytes(data[1 : 1+width])
			d.Deltas = append(d.Deltas, delta)
			data = data[1+width:]
		}
	default:
		return nil, errors.Errorf("diff: unknown kind %d", kind)
	}
	return d, nil
}

// Apply returns the properties obtained by applying d to before.
func (d *AccountDiff) Apply(before *acc.Properties) (acc.Properties, error) {
	switch d.Kind {
	case Empty:
		return *before, nil
	case Full:
		return d.Full, nil
	}

	after := *before
	for i := range d.Deltas {
		delta := &d.Deltas[i]
		switch delta.Field {
		case FieldNonce:
			if !delta.Magnitude.IsUint64() {
				return acc.Properties{}, errors.New("diff: nonce delta out of range")
			}
			m := delta.Magnitude.Uint64()
			if delta.Op == OpAdd {
				if after.Nonce+m < after.Nonce {
					return acc.Properties{}, errors.New("diff: nonce overflow")
				}
				after.Nonce += m
			} else {
				if after.Nonce < m {
					return acc.Properties{}, errors.New("diff: nonce underflow")
				}
				after.Nonce -= m
			}
		case FieldBalance:
			var overflow bool
			if delta.Op == OpAdd {
				_, overflow = after.Balance.AddOverflow(&after.Balance, &delta.Magnitude)
			} else {
				_, overflow = after.Balance.SubOverflow(&after.Balance, &delta.Magnitude)
			}
			if overflow {
				return acc.Properties{}, errors.New("diff: balance out of range")
			}
		}
	}
	return after, nil
}

// Account chooses the encoding for an account going from before to after.
//
//	(Unset, *)                   Full
//	(*, Updated)                 Partial, or Full if code or versioning changed
//	(Retrieved, Retrieved)       Empty
//	(Retrieved, Deconstructed)   Partial, balance only
//
// Any other pair yields ErrUndefinedTransition.
func Account(beforeApp, afterApp record.Appearance, before, after *acc.Properties) (*AccountDiff, error) {
	switch {
	case beforeApp == record.Unset:
		return &AccountDiff{Kind: Full, Full: *after}, nil
	case afterApp == record.Updated:
		if !before.SameShape(after) {
			return &AccountDiff{Kind: Full, Full: *after}, nil
		}
		d := &AccountDiff{Kind: Partial}
		d.addDelta(FieldNonce, uint256.NewInt(before.Nonce), uint256.NewInt(after.Nonce))
		d.addDelta(FieldBalance, &before.Balance, &after.Balance)
		return d, nil
	case beforeApp == record.Retrieved && afterApp == record.Retrieved:
		return &AccountDiff{Kind: Empty}, nil
	case beforeApp == record.Retrieved && afterApp == record.Deconstructed:
		d := &AccountDiff{Kind: Partial}
		d.addDelta(FieldBalance, &before.Balance, &after.Balance)
		return d, nil
	}
	return nil, errors.Wrapf(ErrUndefinedTransition, "%v -> %v", beforeApp, afterApp)
}

func (d *AccountDiff) addDelta(field Field, before, after *uint256.Int) {
	delta := Delta{Field: field}
	switch before.Cmp(after) {
	case 0:
		return
	case -1:
		delta.Op = OpAdd
		delta.Magnitude.Sub(after, before)
	default:
		delta.Op = OpSub
		delta.Magnitude.Sub(before, after)
	}
	d.Deltas = append(d.Deltas, delta)
}
