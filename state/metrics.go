// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/vechain/statecache/metrics"

var (
	metricSourceReads    = metrics.LazyLoadCounterVec("source_reads_count", []string{"kind"})
	metricReverts        = metrics.LazyLoadCounter("reverts_count")
	metricRevertFailures = metrics.LazyLoadCounter("revert_failures_count")
	metricTxWrittenKeys  = metrics.LazyLoadHistogram("tx_written_keys", []int64{0, 1, 4, 16, 64, 256, 1024, 4096})
	metricPoolRecords    = metrics.LazyLoadGauge("pool_records")
	metricPublished      = metrics.LazyLoadCounterVec("published_count", []string{"kind"})
)
