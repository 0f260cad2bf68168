// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package acc

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/statecache/thor"
)

// EncodedSize is the fixed width of an encoded Properties.
const EncodedSize = 8 + 8 + 32 + 32 + 32 + 4 + 4 + 4

// Properties are the per-account fields kept by the state.
type Properties struct {
	VersioningData         uint64
	Nonce                  uint64
	ObservableBytecodeHash thor.Bytes32
	Balance                uint256.Int
	BytecodeHash           thor.Bytes32
	BytecodeLen            uint32
	ArtifactsLen           uint32
	ObservableBytecodeLen  uint32
}

// IsEmpty returns if an account is empty: no nonce, no balance and no code.
func (p *Properties) IsEmpty() bool {
	return p.Nonce == 0 && p.Balance.IsZero() && p.BytecodeHash.IsZero()
}

// HasCode returns whether bytecode is deployed.
func (p *Properties) HasCode() bool {
	return !p.BytecodeHash.IsZero()
}

// SameShape reports whether p and o differ at most in nonce and balance.
func (p *Properties) SameShape(o *Properties) bool {
	return p.VersioningData == o.VersioningData &&
		p.ObservableBytecodeHash == o.ObservableBytecodeHash &&
		p.BytecodeHash == o.BytecodeHash &&
		p.BytecodeLen == o.BytecodeLen &&
		p.ArtifactsLen == o.ArtifactsLen &&
		p.ObservableBytecodeLen == o.ObservableBytecodeLen
}

// Encode appends the fixed-width encoding of p to buf.
func (p *Properties) Encode(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint64(buf, p.VersioningData)
	buf = binary.BigEndian.AppendUint64(buf, p.Nonce)
	buf = append(buf, p.ObservableBytecodeHash[:]...)
	balance := p.Balance.Bytes32()
	buf = append(buf, balance[:]...)
	buf = append(buf, p.BytecodeHash[:]...)
	buf = binary.BigEndian.AppendUint32(buf, p.BytecodeLen)
	buf = binary.BigEndian.AppendUint32(buf, p.ArtifactsLen)
	buf = binary.BigEndian.AppendUint32(buf, p.ObservableBytecodeLen)
	return buf
}

// Decode parses the fixed-width encoding produced by Encode.
func Decode(data []byte) (*Properties, error) {
	if len(data) != EncodedSize {
		return nil, errors.Errorf("acc: invalid encoded length %d", len(data))
	}
	var p Properties
	p.VersioningData = binary.BigEndian.Uint64(data)
	p.Nonce = binary.BigEndian.Uint64(data[8:])
	copy(p.ObservableBytecodeHash[:], data[16:48])
	p.Balance.SetBytes32(data[48:80])
	copy(p.BytecodeHash[:], data[80:112])
	p.BytecodeLen = binary.BigEndian.Uint32(data[112:])
	p.ArtifactsLen = binary.BigEndian.Uint32(data[116:])
	p.ObservableBytecodeLen = binary.BigEndian.Uint32(data[120:])
	return &p, nil
}
