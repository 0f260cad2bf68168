// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pubdata receives the state changes of a block that have to be
// published.
package pubdata

import (
	"github.com/vechain/statecache/diff"
	"github.com/vechain/statecache/thor"
)

// Sink receives published changes. Accounts and slots arrive in key order,
// preimages in hash order.
type Sink interface {
	Account(addr thor.Address, d *diff.AccountDiff) error
	Slot(addr thor.Address, key, value thor.Bytes32) error
	Preimage(hash thor.Bytes32, content []byte) error
}

// AccountEntry is a collected account change.
type AccountEntry struct {
	Addr thor.Address
	Diff *diff.AccountDiff
}

// SlotEntry is a collected storage change.
type SlotEntry struct {
	Addr  thor.Address
	Key   thor.Bytes32
	Value thor.Bytes32
}

// PreimageEntry is a collected new preimage.
type PreimageEntry struct {
	Hash    thor.Bytes32
	Content []byte
}

// Collector keeps everything it receives in memory.
type Collector struct {
	Accounts  []AccountEntry
	Slots     []SlotEntry
	Preimages []PreimageEntry
}

var _ Sink = (*Collector)(nil)

func (c *Collector) Account(addr thor.Address, d *diff.AccountDiff) error {
	c.Accounts = append(c.Accounts, AccountEntry{addr, d})
	return nil
}

func (c *Collector) Slot(addr thor.Address, key, value thor.Bytes32) error {
	c.Slots = append(c.Slots, SlotEntry{addr, key, value})
	return nil
}

func (c *Collector) Preimage(hash thor.Bytes32, content []byte) error {
	c.Preimages = append(c.Preimages, PreimageEntry{hash, content})
	return nil
}

// Replay sends everything collected to another sink.
func (c *Collector) Replay(to Sink) error {
	for _, a := range c.Accounts {
		if err := to.Account(a.Addr, a.Diff); err != nil {
			return err
		}
	}
	for _, s := range c.Slots {
		if err := to.Slot(s.Addr, s.Key, s.Value); err != nil {
			return err
		}
	}
	for _, p := range c.Preimages {
		if err := to.Preimage(p.Hash, p.Content); err != nil {
			return err
		}
	}
	return nil
}

type tee []Sink

// Tee returns a sink forwarding to every sink in turn, stopping at the first error.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

func (t tee) Account(addr thor.Address, d *diff.AccountDiff) error {
	for _, s := range t {
		if err := s.Account(addr, d); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Slot(addr thor.Address, key, value thor.Bytes32) error {
	for _, s := range t {
		if err := s.Slot(addr, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Preimage(hash thor.Bytes32, content []byte) error {
	for _, s := range t {
		if err := s.Preimage(hash, content); err != nil {
			return err
		}
	}
	return nil
}
