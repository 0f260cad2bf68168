// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pubdata

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/vechain/statecache/diff"
	"github.com/vechain/statecache/thor"
)

// maxEntrySize bounds length prefixes read from the stream.
const maxEntrySize = 16 << 20

// Read decodes a stream produced by Writer and replays it into to.
func Read(r io.Reader, to Sink) error {
	br := bufio.NewReader(r)
	for {
		tag, err := br.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read tag")
		}
		switch tag {
		case TagAccount:
			err = readAccount(br, to)
		case TagSlot:
			err = readSlot(br, to)
		case TagPreimage:
			err = readPreimage(br, to)
		default:
			err = errors.Errorf("unknown tag %#x", tag)
		}
		if err != nil {
			return err
		}
	}
}

func readSized(br *bufio.Reader) ([]byte, error) {
	size, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, err
	}
	if size > maxEntrySize {
		return nil, errors.Errorf("entry too large: %d", size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(br, data); err != nil {
		return nil, err
	}
	return data, nil
}

func readAccount(br *bufio.Reader, to Sink) error {
	var addr thor.Address
	if _, err := io.ReadFull(br, addr[:]); err != nil {
		return errors.Wrap(err, "read account")
	}
	kind, err := br.ReadByte()
	if err != nil {
		return errors.Wrap(err, "read account")
	}
	data, err := readSized(br)
	if err != nil {
		return errors.Wrap(err, "read account")
	}
	d, err := diff.Decode(diff.Kind(kind), data)
	if err != nil {
		return errors.Wrapf(err, "decode account %v", addr)
	}
	return to.Account(addr, d)
}

func readSlot(br *bufio.Reader, to Sink) error {
	var (
		addr thor.Address
		key  thor.Bytes32
	)
	if _, err := io.ReadFull(br, addr[:]); err != nil {
		return errors.Wrap(err, "read slot")
	}
	if _, err := io.ReadFull(br, key[:]); err != nil {
		return errors.Wrap(err, "read slot")
	}
	n, err := br.ReadByte()
	if err != nil {
		return errors.Wrap(err, "read slot")
	}
	if n > 32 {
		return errors.Errorf("read slot: value length %d", n)
	}
	var value thor.Bytes32
	if _, err := io.ReadFull(br, value[32-int(n):]); err != nil {
		return errors.Wrap(err, "read slot")
	}
	return to.Slot(addr, key, value)
}

func readPreimage(br *bufio.Reader, to Sink) error {
	var hash thor.Bytes32
	if _, err := io.ReadFull(br, hash[:]); err != nil {
		return errors.Wrap(err, "read preimage")
	}
	compressed, err := readSized(br)
	if err != nil {
		return errors.Wrap(err, "read preimage")
	}
	n, err := snappy.DecodedLen(compressed)
	if err != nil {
		return errors.Wrapf(err, "decompress preimage %v", hash)
	}
	if n > maxEntrySize {
		return errors.Errorf("read preimage: content length %d", n)
	}
	content, err := snappy.Decode(nil, compressed)
	if err != nil {
		return errors.Wrapf(err, "decompress preimage %v", hash)
	}
	return to.Preimage(hash, content)
}
