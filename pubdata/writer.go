// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pubdata

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/vechain/statecache/diff"
	"github.com/vechain/statecache/thor"
)

// Entry tags of the serialized stream.
const (
	TagAccount  byte = 0x01
	TagSlot     byte = 0x02
	TagPreimage byte = 0x03
)

// Writer serializes published changes to a byte stream.
//
//	account:  0x01 | addr[20] | kind[1] | uvarint(size) | diff
//	slot:     0x02 | addr[20] | key[32] | len[1] | value without leading zeros
//	preimage: 0x03 | hash[32] | uvarint(len) | snappy(content)
//
// Empty account diffs are not written.
type Writer struct {
	w       io.Writer
	buf     []byte
	written int64
}

var _ Sink = (*Writer)(nil)

// NewWriter creates a writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.written
}

func (w *Writer) flush(what string) error {
	n, err := w.w.Write(w.buf)
	w.written += int64(n)
	w.buf = w.buf[:0]
	return errors.Wrapf(err, "write %s", what)
}

// Account writes d. Diffs that change nothing are not written.
func (w *Writer) Account(addr thor.Address, d *diff.AccountDiff) error {
	if d.IsNoop() {
		return nil
	}
	w.buf = append(w.buf, TagAccount)
	w.buf = append(w.buf, addr[:]...)
	w.buf = append(w.buf, byte(d.Kind))
	w.buf = binary.AppendUvarint(w.buf, uint64(d.EncodedSize()))
	w.buf = d.Encode(w.buf)
	return w.flush("account")
}

func (w *Writer) Slot(addr thor.Address, key, value thor.Bytes32) error {
	trimmed := bytes.TrimLeft(value[:], "\x00")
	w.buf = append(w.buf, TagSlot)
	w.buf = append(w.buf, addr[:]...)
	w.buf = append(w.buf, key[:]...)
	w.buf = append(w.buf, byte(len(trimmed)))
	w.buf = append(w.buf, trimmed...)
	return w.flush("slot")
}

func (w *Writer) Preimage(hash thor.Bytes32, content []byte) error {
	compressed := snappy.Encode(nil, content)
	w.buf = append(w.buf, TagPreimage)
	w.buf = append(w.buf, hash[:]...)
	w.buf = binary.AppendUvarint(w.buf, uint64(len(compressed)))
	w.buf = append(w.buf, compressed...)
	return w.flush("preimage")
}
