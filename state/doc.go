// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state is the block-scoped, revertible view of accounts, storage
// slots and preimages used while executing transactions.
//
//	          [ State ]
//	    /         |          \
//	[ accounts ] [ storage ] [ preimages ]   record.Cache each
//	    \         |          /
//	      [ Source ] (+ shared content LRU for preimages)
//
// Values are loaded lazily from the Source on first access. Call frames take
// a Checkpoint and revert to it on failure; BeginNewTx finalizes the
// previous transaction so no revert can cross it. At block end Finalize
// publishes the net changes of the block to a pubdata.Sink.
package state
