// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package record

import "github.com/pkg/errors"

// Appearance tells what happened to a cached value.
type Appearance uint8

const (
	// Unset means the value did not exist at its source, or its creation was undone.
	Unset Appearance = iota
	// Retrieved means the value was loaded and only read.
	Retrieved
	// Updated means the value was written.
	Updated
	// Deconstructed means the value was explicitly destroyed.
	Deconstructed
)

// ErrIllegalTransition is returned when an appearance change is not allowed.
var ErrIllegalTransition = errors.New("record: illegal appearance transition")

func (a Appearance) String() string {
	switch a {
	case Unset:
		return "unset"
	case Retrieved:
		return "retrieved"
	case Updated:
		return "updated"
	case Deconstructed:
		return "deconstructed"
	}
	return "invalid"
}

// canBecome reports whether a may change to b.
func (a Appearance) canBecome(b Appearance) bool {
	switch b {
	case Unset:
		return true
	case Retrieved:
		return a == Unset || a == Retrieved
	case Updated:
		return a == Unset || a == Retrieved || a == Updated
	case Deconstructed:
		return a == Retrieved || a == Updated
	}
	return false
}

func checkTransition(from, to Appearance) error {
	if !from.canBecome(to) {
		return errors.Wrapf(ErrIllegalTransition, "%v -> %v", from, to)
	}
	return nil
}
