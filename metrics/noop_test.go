// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	metrics = defaultNoopMetrics()

	assert.Nil(t, HTTPHandler())

	for _, m := range []any{
		Counter("count"),
		CounterVec("countVec", []string{"cache"}),
		Gauge("gauge"),
		Histogram("hist", BucketBytes),
	} {
		assert.IsType(t, &noopMeters{}, m)
	}

	assert.NotPanics(t, func() {
		Counter("count").Add(1)
		CounterVec("countVec", []string{"cache"}).AddWithLabel(1, map[string]string{"unknown": "label"})
		Gauge("gauge").Set(3)
		Histogram("hist", nil).Observe(10)
	})
}
