// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/statecache/acc"
	"github.com/vechain/statecache/diff"
	"github.com/vechain/statecache/state"
	"github.com/vechain/statecache/thor"
)

// Scenario is a block to replay: the accounts and slots present before it,
// and the operations of each transaction.
type Scenario struct {
	Genesis      Genesis       `yaml:"genesis"`
	Transactions []Transaction `yaml:"transactions"`
}

type Genesis struct {
	Accounts []GenesisAccount `yaml:"accounts"`
	Storage  []GenesisSlot    `yaml:"storage"`
}

type GenesisAccount struct {
	Address thor.Address  `yaml:"address"`
	Nonce   uint64        `yaml:"nonce"`
	Balance string        `yaml:"balance"`
	Code    hexutil.Bytes `yaml:"code"`
}

type GenesisSlot struct {
	Address thor.Address `yaml:"address"`
	Key     thor.Bytes32 `yaml:"key"`
	Value   thor.Bytes32 `yaml:"value"`
}

type Transaction struct {
	Ops []Op `yaml:"ops"`
}

// Op is a single state operation. Which fields are read depends on Op.Op.
type Op struct {
	Op          string        `yaml:"op"`
	Address     thor.Address  `yaml:"address"`
	From        thor.Address  `yaml:"from"`
	To          thor.Address  `yaml:"to"`
	Beneficiary thor.Address  `yaml:"beneficiary"`
	Key         thor.Bytes32  `yaml:"key"`
	Value       thor.Bytes32  `yaml:"value"`
	Amount      string        `yaml:"amount"`
	Code        hexutil.Bytes `yaml:"code"`
	Name        string        `yaml:"name"`
}

func loadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open scenario")
	}
	defer f.Close()
	return decodeScenario(f)
}

func decodeScenario(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	return &s, nil
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrapf(err, "amount %q", s)
	}
	return v, nil
}

// seed writes the genesis accounts and slots into the source's store.
func (s *Scenario) seed(src *state.KVSource) error {
	sink := src.NewSink()
	for _, a := range s.Genesis.Accounts {
		balance, err := parseAmount(a.Balance)
		if err != nil {
			return errors.Wrapf(err, "genesis account %v", a.Address)
		}
		p := acc.Properties{Nonce: a.Nonce, Balance: *balance}
		if len(a.Code) > 0 {
			hash := thor.Keccak256(a.Code)
			p.BytecodeHash, p.ObservableBytecodeHash = hash, hash
			p.BytecodeLen, p.ObservableBytecodeLen = uint32(len(a.Code)), uint32(len(a.Code))
			if err := sink.Preimage(hash, a.Code); err != nil {
				return err
			}
		}
		if err := sink.Account(a.Address, &diff.AccountDiff{Kind: diff.Full, Full: p}); err != nil {
			return err
		}
	}
	for _, slot := range s.Genesis.Storage {
		if err := sink.Slot(slot.Address, slot.Key, slot.Value); err != nil {
			return err
		}
	}
	return sink.Write()
}

// isTxFailure reports errors that abort the transaction but not the block.
func isTxFailure(err error) bool {
	return errors.Is(err, state.ErrInsufficientBalance) ||
		errors.Is(err, state.ErrBalanceOverflow) ||
		errors.Is(err, state.ErrNonceOverflow)
}

// run replays the transactions on st. A transaction whose operation fails
// with a domain error is reverted as a whole.
func (s *Scenario) run(st *state.State) error {
	for i, tx := range s.Transactions {
		if i > 0 {
			if err := st.BeginNewTx(); err != nil {
				return err
			}
		}
		start := st.NewCheckpoint()
		frames := make(map[string]state.Checkpoint)
		for j, op := range tx.Ops {
			err := op.apply(st, frames)
			if err == nil {
				continue
			}
			if !isTxFailure(err) {
				return errors.Wrapf(err, "tx %d op %d (%s)", i, j, op.Op)
			}
			logger.Warn("tx reverted", "tx", i, "op", j, "err", err)
			if err := st.RevertTo(start); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

func (op *Op) apply(st *state.State, frames map[string]state.Checkpoint) error {
	switch op.Op {
	case "checkpoint":
		frames[op.Name] = st.NewCheckpoint()
		return nil
	case "revert":
		cp, ok := frames[op.Name]
		if !ok {
			return errors.Errorf("unknown checkpoint %q", op.Name)
		}
		return st.RevertTo(cp)
	case "increment-nonce":
		return st.Accounts().IncrementNonce(op.Address)
	case "set-storage":
		_, err := st.Storage().Set(op.Address, op.Key, op.Value)
		return err
	case "get-storage":
		v, warm, err := st.Storage().Get(op.Address, op.Key)
		if err == nil {
			logger.Debug("storage", "addr", op.Address, "key", op.Key, "value", v, "warm", warm)
		}
		return err
	case "set-code":
		return st.SetCode(op.Address, op.Code)
	case "deconstruct":
		return st.Deconstruct(op.Address, op.Beneficiary)
	}

	amount, err := parseAmount(op.Amount)
	if err != nil {
		return err
	}
	switch op.Op {
	case "add-balance":
		return st.Accounts().AddBalance(op.Address, amount)
	case "sub-balance":
		return st.Accounts().SubBalance(op.Address, amount)
	case "transfer":
		return st.Accounts().Transfer(op.From, op.To, amount)
	}
	return errors.Errorf("unknown op %q", op.Op)
}
