// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// Keccak256 computes keccak-256 checksum for given data.
// It's the content hash used to address preimages.
func Keccak256(data ...[]byte) Bytes32 {
	return Bytes32(crypto.Keccak256Hash(data...))
}

// EmptyKeccak256 is the keccak-256 of empty content.
var EmptyKeccak256 = Keccak256()
