// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/statecache/log"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:   "datadir",
		Usage:  "directory of the state db, in memory if empty",
		EnvVar: "STATECACHE_DATADIR",
	}
	scenarioFlag = cli.StringFlag{
		Name:  "scenario",
		Usage: "path of the YAML scenario to run",
	}
	outFlag = cli.StringFlag{
		Name:  "out",
		Usage: "write the serialized published data to this file",
	}
	commitFlag = cli.BoolFlag{
		Name:  "commit",
		Usage: "write published changes back into the state db",
	}
	poolLimitFlag = cli.IntFlag{
		Name:  "pool-limit",
		Usage: "maximum history records per block, 0 for unbounded",
	}
	verbosityFlag = cli.IntFlag{
		Name:   "verbosity",
		Value:  log.LegacyLevelInfo,
		Usage:  "log verbosity (0-5)",
		EnvVar: "STATECACHE_VERBOSITY",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-log",
		Usage: "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:   "enable-metrics",
		Usage:  "serve prometheus metrics until interrupted",
		EnvVar: "STATECACHE_ENABLE_METRICS",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:   "metrics-addr",
		Value:  "localhost:2112",
		Usage:  "metrics service listening address",
		EnvVar: "STATECACHE_METRICS_ADDR",
	}
)
