// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// statecache replays a block scenario against a state db and prints the
// data the block publishes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/statecache/diff"
	"github.com/vechain/statecache/kv"
	"github.com/vechain/statecache/log"
	"github.com/vechain/statecache/metrics"
	"github.com/vechain/statecache/pubdata"
	"github.com/vechain/statecache/state"
)

var (
	version   string
	gitCommit string

	logger = log.WithContext("pkg", "main")
)

func openStore(dir string) (kv.Store, error) {
	if dir == "" {
		return kv.NewMem()
	}
	return kv.New(dir, kv.Options{})
}

func run(ctx *cli.Context) error {
	log.Init(os.Stderr, ctx.Int(verbosityFlag.Name), ctx.Bool(jsonLogsFlag.Name))

	path := ctx.String(scenarioFlag.Name)
	if path == "" {
		return errors.New("missing -" + scenarioFlag.Name)
	}
	scenario, err := loadScenario(path)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return errors.Wrap(err, "start metrics server")
		}
		defer closeFunc()
		log.Info("metrics server started", "url", url)
	}

	store, err := openStore(ctx.String(dataDirFlag.Name))
	if err != nil {
		return err
	}
	defer store.Close()

	var out io.Writer = io.Discard
	if name := ctx.String(outFlag.Name); name != "" {
		f, err := os.Create(name)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		defer f.Close()
		out = f
	}

	res, err := replay(scenario, store, replayOptions{
		poolLimit: ctx.Int(poolLimitFlag.Name),
		commit:    ctx.Bool(commitFlag.Name),
		out:       out,
	})
	if err != nil {
		return err
	}
	printChanges(os.Stdout, res.published)
	log.Info("block replayed",
		"txs", len(scenario.Transactions),
		"records", res.stats.Records(),
		"bytes", res.written)

	if ctx.Bool(enableMetricsFlag.Name) {
		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log.Info("serving metrics until interrupted")
		<-sigCtx.Done()
	}
	return nil
}

type replayOptions struct {
	poolLimit int
	commit    bool
	out       io.Writer
}

type replayResult struct {
	published *pubdata.Collector
	stats     state.Stats
	written   int64
}

// replay seeds store with the scenario genesis, runs its transactions and
// publishes the block.
func replay(scenario *Scenario, store kv.Store, opts replayOptions) (*replayResult, error) {
	src := state.NewKVSource(store)
	if err := scenario.seed(src); err != nil {
		return nil, errors.Wrap(err, "seed genesis")
	}

	st := state.New(src, state.Options{PoolLimit: opts.poolLimit})
	if err := scenario.run(st); err != nil {
		return nil, err
	}

	var (
		collected = &pubdata.Collector{}
		writer    = pubdata.NewWriter(opts.out)
		sinks     = []pubdata.Sink{collected, writer}
		kvSink    *state.KVSink
	)
	if opts.commit {
		kvSink = src.NewSink()
		sinks = append(sinks, kvSink)
	}
	if err := st.Finalize(pubdata.Tee(sinks...)); err != nil {
		return nil, err
	}
	if kvSink != nil {
		if err := kvSink.Write(); err != nil {
			return nil, err
		}
	}
	return &replayResult{published: collected, stats: st.Stats(), written: writer.Written()}, nil
}

func printChanges(w io.Writer, c *pubdata.Collector) {
	for _, a := range c.Accounts {
		if a.Diff.IsNoop() {
			continue
		}
		switch a.Diff.Kind {
		case diff.Full:
			fmt.Fprintf(w, "account  %v full nonce=%d balance=%v code=%v\n",
				a.Addr, a.Diff.Full.Nonce, a.Diff.Full.Balance.Dec(), a.Diff.Full.BytecodeHash.AbbrevString())
		case diff.Partial:
			fmt.Fprintf(w, "account  %v partial", a.Addr)
			for _, d := range a.Diff.Deltas {
				field := "nonce"
				if d.Field == diff.FieldBalance {
					field = "balance"
				}
				sign := "+"
				if d.Op == diff.OpSub {
					sign = "-"
				}
				fmt.Fprintf(w, " %s%s%s", field, sign, d.Magnitude.Dec())
			}
			fmt.Fprintln(w)
		}
	}
	for _, s := range c.Slots {
		fmt.Fprintf(w, "slot     %v %v = %v\n", s.Addr, s.Key, s.Value)
	}
	for _, p := range c.Preimages {
		fmt.Fprintf(w, "preimage %v %d bytes\n", p.Hash, len(p.Content))
	}
}

func main() {
	versionMeta := "release"
	if gitCommit == "" {
		versionMeta = "dev"
	}
	app := cli.App{
		Version: fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta),
		Name:    "statecache",
		Usage:   "replay a block scenario through the revertible state cache",
		Flags: []cli.Flag{
			dataDirFlag,
			scenarioFlag,
			outFlag,
			commitFlag,
			poolLimitFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logger.Error("statecache failed", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
