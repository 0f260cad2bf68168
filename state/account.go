// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/vechain/statecache/acc"
	"github.com/vechain/statecache/diff"
	"github.com/vechain/statecache/history"
	"github.com/vechain/statecache/record"
	"github.com/vechain/statecache/thor"
)

// AccountMeta is kept alongside each account.
type AccountMeta struct {
	LastAccessTx TxID
	DeployedInTx TxID
}

type accountRecord = record.Record[acc.Properties, AccountMeta]

// AccountCache caches account properties.
type AccountCache struct {
	cache *record.Cache[thor.Address, acc.Properties, AccountMeta]
	src   Source
	tx    TxID
}

func lessAddress(a, b thor.Address) bool { return a.Compare(b) < 0 }

func newAccountCache(src Source, alloc history.Allocator, tx TxID) *AccountCache {
	return &AccountCache{
		cache: record.New[thor.Address, acc.Properties, AccountMeta](lessAddress, alloc),
		src:   src,
		tx:    tx,
	}
}

func (c *AccountCache) load(addr thor.Address) (accountRecord, error) {
	return c.cache.GetOrFetch(addr, func() (acc.Properties, AccountMeta, bool, error) {
		metricSourceReads().AddWithLabel(1, map[string]string{"kind": "account"})
		p, ok, err := c.src.Account(addr)
		if err != nil {
			return acc.Properties{}, AccountMeta{}, false, &Error{err}
		}
		return p, AccountMeta{}, ok, nil
	})
}

// Get returns the properties of addr and whether it was already accessed in
// the current transaction.
func (c *AccountCache) Get(addr thor.Address) (p acc.Properties, warm bool, err error) {
	rec, err := c.load(addr)
	if err != nil {
		return acc.Properties{}, false, err
	}
	if rec.Meta.LastAccessTx == c.tx {
		return rec.Value, true, nil
	}
	if err := c.cache.UpdateMetadata(addr, func(m *AccountMeta) error {
		m.LastAccessTx = c.tx
		return nil
	}); err != nil {
		return acc.Properties{}, false, err
	}
	return rec.Value, false, nil
}

// Exists reports whether addr holds a live, non-empty account. It does not
// mark the account accessed.
func (c *AccountCache) Exists(addr thor.Address) (bool, error) {
	rec, err := c.load(addr)
	if err != nil {
		return false, err
	}
	return rec.Appearance != record.Deconstructed && !rec.Value.IsEmpty(), nil
}

// update loads addr and applies f atomically, marking the account accessed.
func (c *AccountCache) update(addr thor.Address, f func(p *acc.Properties, m *AccountMeta) error) error {
	if _, err := c.load(addr); err != nil {
		return err
	}
	return c.cache.Update(addr, func(p *acc.Properties, m *AccountMeta) error {
		m.LastAccessTx = c.tx
		return f(p, m)
	})
}

// IncrementNonce bumps the nonce of addr by one.
func (c *AccountCache) IncrementNonce(addr thor.Address) error {
	return c.update(addr, func(p *acc.Properties, _ *AccountMeta) error {
		if p.Nonce == math.MaxUint64 {
			return ErrNonceOverflow
		}
		p.Nonce++
		return nil
	})
}

// AddBalance credits amount to addr.
func (c *AccountCache) AddBalance(addr thor.Address, amount *uint256.Int) error {
	return c.update(addr, func(p *acc.Properties, _ *AccountMeta) error {
		if _, overflow := p.Balance.AddOverflow(&p.Balance, amount); overflow {
			return ErrBalanceOverflow
		}
		return nil
	})
}

// SubBalance debits amount from addr.
func (c *AccountCache) SubBalance(addr thor.Address, amount *uint256.Int) error {
	return c.update(addr, func(p *acc.Properties, _ *AccountMeta) error {
		if p.Balance.Lt(amount) {
			return ErrInsufficientBalance
		}
		p.Balance.Sub(&p.Balance, amount)
		return nil
	})
}

// Transfer moves amount from one account to another. Either both balances
// change or neither does.
func (c *AccountCache) Transfer(from, to thor.Address, amount *uint256.Int) error {
	id := c.cache.Snapshot()
	if err := c.SubBalance(from, amount); err != nil {
		return err
	}
	if err := c.AddBalance(to, amount); err != nil {
		if rerr := c.cache.Rollback(id); rerr != nil {
			return rerr
		}
		return err
	}
	return nil
}

// SetCode deploys code at addr and returns its hash. Empty code clears it.
func (c *AccountCache) SetCode(addr thor.Address, code []byte) (thor.Bytes32, error) {
	var hash thor.Bytes32
	if len(code) > 0 {
		hash = thor.Keccak256(code)
	}
	return hash, c.update(addr, func(p *acc.Properties, m *AccountMeta) error {
		p.BytecodeHash = hash
		p.BytecodeLen = uint32(len(code))
		p.ObservableBytecodeHash = hash
		p.ObservableBytecodeLen = uint32(len(code))
		m.DeployedInTx = c.tx
		return nil
	})
}

// Deconstruct sweeps the balance of addr to beneficiary. The account itself
// is destroyed only when it was deployed in the current transaction; the
// result reports whether it was. An account already destroyed in this
// transaction only has its balance swept again. On error nothing changes.
func (c *AccountCache) Deconstruct(addr, beneficiary thor.Address) (destroyed bool, err error) {
	rec, err := c.load(addr)
	if err != nil {
		return false, err
	}
	id := c.cache.Snapshot()
	defer func() {
		if err != nil {
			if rerr := c.cache.Rollback(id); rerr != nil {
				err = rerr
			}
			destroyed = false
		}
	}()

	if beneficiary != addr && !rec.Value.Balance.IsZero() {
		balance := rec.Value.Balance
		if err := c.Transfer(addr, beneficiary, &balance); err != nil {
			return false, err
		}
	}
	if rec.Appearance == record.Deconstructed {
		return true, nil
	}
	if rec.Meta.DeployedInTx != c.tx {
		return false, nil
	}
	return true, c.cache.Deconstruct(addr, func(p *acc.Properties, m *AccountMeta) error {
		*p = acc.Properties{}
		m.LastAccessTx = c.tx
		return nil
	})
}

func (c *AccountCache) snapshot() history.SnapshotID { return c.cache.Snapshot() }

func (c *AccountCache) rollback(id history.SnapshotID) error { return c.cache.Rollback(id) }

func (c *AccountCache) beginNewTx(tx TxID) (int, error) {
	changed := 0
	c.cache.DiffSinceCommit(func(_ thor.Address, before, current accountRecord) bool {
		if before.Appearance != current.Appearance || before.Value != current.Value {
			changed++
		}
		return true
	})
	if err := c.cache.Commit(); err != nil {
		return 0, err
	}
	c.tx = tx
	return changed, nil
}

// changes calls fn, in address order, with the published diff of every
// account written during the block.
func (c *AccountCache) changes(fn func(addr thor.Address, d *diff.AccountDiff) error) (err error) {
	c.cache.Diff(func(addr thor.Address, initial, current accountRecord) bool {
		// touched but never brought into existence
		if current.Appearance == record.Unset {
			return true
		}
		var d *diff.AccountDiff
		if d, err = diff.Account(initial.Appearance, current.Appearance, &initial.Value, &current.Value); err != nil {
			return false
		}
		err = fn(addr, d)
		return err == nil
	})
	return
}

func (c *AccountCache) stats() history.Stats { return c.cache.Stats() }
