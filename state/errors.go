// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrBalanceOverflow     = errors.New("state: balance overflow")
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	ErrNonceOverflow       = errors.New("state: nonce overflow")
)

// Error is the error caused by a failure of the underlying source.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// IsSourceError reports whether err was caused by the source rather than by
// the cache itself.
func IsSourceError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
