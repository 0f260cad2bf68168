// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pkg/errors"

	"github.com/vechain/statecache/diff"
	"github.com/vechain/statecache/history"
	"github.com/vechain/statecache/log"
	"github.com/vechain/statecache/pubdata"
	"github.com/vechain/statecache/thor"
)

var logger = log.WithContext("pkg", "state")

// Options configures a State.
type Options struct {
	// PoolLimit caps the number of history records allocated in the block,
	// across all caches. Zero means unbounded. Exceeding it panics with a
	// *history.FatalError.
	PoolLimit int
	// Contents is the preimage content cache shared across blocks. Nil
	// selects a process wide default.
	Contents *ContentCache
}

// DefaultOptions is an unbounded state sharing the default content cache.
var DefaultOptions = Options{}

// Checkpoint marks a point to revert to.
type Checkpoint struct {
	storage, accounts, preimages history.SnapshotID
}

// Stats summarizes the history held by a State.
type Stats struct {
	Storage, Accounts, Preimages history.Stats
}

// Records returns the number of history records allocated in total.
func (s Stats) Records() int {
	return s.Storage.Pool.Allocated + s.Accounts.Pool.Allocated + s.Preimages.Pool.Allocated
}

// State is the revertible world state of a single block.
type State struct {
	tx        TxID
	contents  *ContentCache
	storage   *StorageCache
	accounts  *AccountCache
	preimages *PreimageCache
}

// New creates the state of a block over src. The first transaction is
// started implicitly.
func New(src Source, opts Options) *State {
	alloc := history.Unbounded()
	if opts.PoolLimit > 0 {
		alloc = history.Limited(opts.PoolLimit)
	}
	contents := opts.Contents
	if contents == nil {
		contents = sharedContents
	}

	const firstTx TxID = 1
	return &State{
		tx:        firstTx,
		contents:  contents,
		storage:   newStorageCache(src, alloc, firstTx),
		accounts:  newAccountCache(src, alloc, firstTx),
		preimages: newPreimageCache(src, alloc, contents),
	}
}

// Tx returns the current transaction.
func (s *State) Tx() TxID { return s.tx }

// Storage returns the storage slot cache.
func (s *State) Storage() *StorageCache { return s.storage }

// Accounts returns the account cache.
func (s *State) Accounts() *AccountCache { return s.accounts }

// Preimages returns the preimage cache.
func (s *State) Preimages() *PreimageCache { return s.preimages }

// BeginNewTx finalizes the current transaction and starts the next one.
// Checkpoints taken before are no longer valid.
func (s *State) BeginNewTx() error {
	next := s.tx + 1

	slots, err := s.storage.beginNewTx(next)
	if err != nil {
		return errors.Wrap(err, "commit storage")
	}
	accounts, err := s.accounts.beginNewTx(next)
	if err != nil {
		return errors.Wrap(err, "commit accounts")
	}
	preimages, err := s.preimages.beginNewTx()
	if err != nil {
		return errors.Wrap(err, "commit preimages")
	}

	metricTxWrittenKeys().Observe(int64(slots + accounts + preimages))
	metricPoolRecords().Set(int64(s.Stats().Records()))
	logger.Debug("tx finalized", "tx", s.tx, "slots", slots, "accounts", accounts, "preimages", preimages)

	s.tx = next
	return nil
}

// NewCheckpoint marks the current state of all caches.
func (s *State) NewCheckpoint() Checkpoint {
	return Checkpoint{
		storage:   s.storage.snapshot(),
		accounts:  s.accounts.snapshot(),
		preimages: s.preimages.snapshot(),
	}
}

// RevertTo undoes every change made after cp was taken. cp stays valid;
// checkpoints taken after it do not.
func (s *State) RevertTo(cp Checkpoint) error {
	if err := s.rollback(cp); err != nil {
		metricRevertFailures().Add(1)
		logger.Warn("revert rejected", "tx", s.tx, "err", err)
		return err
	}
	metricReverts().Add(1)
	return nil
}

func (s *State) rollback(cp Checkpoint) error {
	if err := s.storage.rollback(cp.storage); err != nil {
		return err
	}
	if err := s.accounts.rollback(cp.accounts); err != nil {
		return err
	}
	return s.preimages.rollback(cp.preimages)
}

// atomically runs f, undoing its partial writes if it fails.
func (s *State) atomically(f func() error) error {
	cp := s.NewCheckpoint()
	if err := f(); err != nil {
		if rerr := s.rollback(cp); rerr != nil {
			return rerr
		}
		return err
	}
	return nil
}

// Exists reports whether addr holds a live, non-empty account.
func (s *State) Exists(addr thor.Address) (bool, error) {
	return s.accounts.Exists(addr)
}

// SetCode deploys code at addr and records the code as a preimage.
// Nothing is recorded if either write fails.
func (s *State) SetCode(addr thor.Address, code []byte) error {
	return s.atomically(func() error {
		if _, err := s.accounts.SetCode(addr, code); err != nil {
			return err
		}
		if len(code) > 0 {
			if _, err := s.preimages.Insert(code); err != nil {
				return err
			}
		}
		return nil
	})
}

// Deconstruct sweeps the balance of addr to beneficiary, and destroys the
// account together with its storage if it was deployed in the current
// transaction.
func (s *State) Deconstruct(addr, beneficiary thor.Address) error {
	return s.atomically(func() error {
		destroyed, err := s.accounts.Deconstruct(addr, beneficiary)
		if err != nil || !destroyed {
			return err
		}
		return s.storage.ClearAddress(addr)
	})
}

// Finalize publishes the net changes of the block: account diffs in address
// order, changed slots in slot order, then new preimages in hash order.
// Published preimages are added to the shared content cache.
func (s *State) Finalize(sink pubdata.Sink) error {
	var nAccounts, nSlots, nPreimages int64
	if err := s.accounts.changes(func(addr thor.Address, d *diff.AccountDiff) error {
		if !d.IsNoop() {
			nAccounts++
		}
		return sink.Account(addr, d)
	}); err != nil {
		return errors.Wrap(err, "publish accounts")
	}
	if err := s.storage.changes(func(k SlotKey, value thor.Bytes32) error {
		nSlots++
		return sink.Slot(k.Addr, k.Key, value)
	}); err != nil {
		return errors.Wrap(err, "publish storage")
	}
	if err := s.preimages.changes(func(hash thor.Bytes32, content []byte) error {
		nPreimages++
		if err := sink.Preimage(hash, content); err != nil {
			return err
		}
		s.contents.Add(hash, content)
		return nil
	}); err != nil {
		return errors.Wrap(err, "publish preimages")
	}

	metricPublished().AddWithLabel(nAccounts, map[string]string{"kind": "account"})
	metricPublished().AddWithLabel(nSlots, map[string]string{"kind": "slot"})
	metricPublished().AddWithLabel(nPreimages, map[string]string{"kind": "preimage"})
	logger.Debug("block finalized", "accounts", nAccounts, "slots", nSlots, "preimages", nPreimages)
	return nil
}

// Stats returns the history statistics of every cache.
func (s *State) Stats() Stats {
	return Stats{
		Storage:   s.storage.stats(),
		Accounts:  s.accounts.stats(),
		Preimages: s.preimages.stats(),
	}
}
