// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

// CountingAllocator records every request for fresh records.
type CountingAllocator struct {
	Calls   int
	Records int
}

func (a *CountingAllocator) Alloc(n int) error {
	a.Calls++
	a.Records += n
	return nil
}
