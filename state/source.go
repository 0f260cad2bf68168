// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/statecache/acc"
	"github.com/vechain/statecache/diff"
	"github.com/vechain/statecache/kv"
	"github.com/vechain/statecache/pubdata"
	"github.com/vechain/statecache/thor"
)

// Source supplies the values of keys not yet seen in the current block.
// ok is false when the key has no value.
type Source interface {
	Account(addr thor.Address) (p acc.Properties, ok bool, err error)
	Storage(addr thor.Address, key thor.Bytes32) (value thor.Bytes32, ok bool, err error)
	Preimage(hash thor.Bytes32) (content []byte, ok bool, err error)
}

const (
	accountBucket  = kv.Bucket("a")
	storageBucket  = kv.Bucket("s")
	preimageBucket = kv.Bucket("p")
)

// KVSource is a Source reading a kv store. Accounts are kept in their fixed
// encoding, slots as rlp strings without leading zeros, preimages raw.
type KVSource struct {
	store     kv.Store
	accounts  kv.Getter
	storage   kv.Getter
	preimages kv.Getter
}

var _ Source = (*KVSource)(nil)

// NewKVSource creates a source on store.
func NewKVSource(store kv.Store) *KVSource {
	return &KVSource{
		store:     store,
		accounts:  accountBucket.NewGetter(store),
		storage:   storageBucket.NewGetter(store),
		preimages: preimageBucket.NewGetter(store),
	}
}

func slotKey(addr thor.Address, key thor.Bytes32) []byte {
	return append(addr.Bytes(), key[:]...)
}

func (s *KVSource) get(g kv.Getter, key []byte) ([]byte, bool, error) {
	data, err := g.Get(key)
	if err != nil {
		if g.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (s *KVSource) Account(addr thor.Address) (acc.Properties, bool, error) {
	data, ok, err := s.get(s.accounts, addr.Bytes())
	if err != nil || !ok {
		return acc.Properties{}, false, err
	}
	p, err := acc.Decode(data)
	if err != nil {
		return acc.Properties{}, false, errors.Wrapf(err, "decode account %v", addr)
	}
	return *p, true, nil
}

func (s *KVSource) Storage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, bool, error) {
	raw, ok, err := s.get(s.storage, slotKey(addr, key))
	if err != nil || !ok {
		return thor.Bytes32{}, false, err
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, false, errors.Wrapf(err, "decode slot %v/%v", addr, key)
	}
	if kind == rlp.List || len(content) > 32 {
		return thor.Bytes32{}, false, errors.Errorf("decode slot %v/%v: not a word", addr, key)
	}
	return thor.BytesToBytes32(content), true, nil
}

func (s *KVSource) Preimage(hash thor.Bytes32) ([]byte, bool, error) {
	return s.get(s.preimages, hash[:])
}

// KVSink writes published changes back into the store of a KVSource. Writes
// are buffered in a batch until Write.
type KVSink struct {
	src       *KVSource
	batch     kv.Batch
	accounts  kv.Putter
	storage   kv.Putter
	preimages kv.Putter
	// pending account values, so a second diff of the same account in one
	// batch applies on top of the first
	pending map[thor.Address]acc.Properties
}

var _ pubdata.Sink = (*KVSink)(nil)

// NewSink creates a sink writing into the source's store.
func (s *KVSource) NewSink() *KVSink {
	batch := s.store.NewBatch()
	return &KVSink{
		src:       s,
		batch:     batch,
		accounts:  accountBucket.NewPutter(batch),
		storage:   storageBucket.NewPutter(batch),
		preimages: preimageBucket.NewPutter(batch),
		pending:   make(map[thor.Address]acc.Properties),
	}
}

func (k *KVSink) Account(addr thor.Address, d *diff.AccountDiff) error {
	before, ok := k.pending[addr]
	if !ok {
		var err error
		if before, _, err = k.src.Account(addr); err != nil {
			return err
		}
	}
	after, err := d.Apply(&before)
	if err != nil {
		return err
	}
	k.pending[addr] = after
	if after.IsEmpty() {
		return k.accounts.Delete(addr.Bytes())
	}
	return k.accounts.Put(addr.Bytes(), after.Encode(nil))
}

func (k *KVSink) Slot(addr thor.Address, key, value thor.Bytes32) error {
	if value.IsZero() {
		return k.storage.Delete(slotKey(addr, key))
	}
	raw, err := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	if err != nil {
		return err
	}
	return k.storage.Put(slotKey(addr, key), raw)
}

func (k *KVSink) Preimage(hash thor.Bytes32, content []byte) error {
	return k.preimages.Put(hash[:], content)
}

// Write flushes the batch.
func (k *KVSink) Write() error {
	if err := k.batch.Write(); err != nil {
		return errors.Wrap(err, "write state changes")
	}
	clear(k.pending)
	return nil
}
