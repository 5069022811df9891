// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/coredb/coredb/config"
	"github.com/coredb/coredb/dataset"
	"github.com/coredb/coredb/eviction"
	"github.com/coredb/coredb/lazyfree"
	"github.com/coredb/coredb/notify"
	"github.com/coredb/coredb/sentinel"
	"github.com/coredb/coredb/xlog"
)

const evictionPollInterval = 100 * time.Millisecond

func newServeCmd() *cobra.Command {
	var (
		configPath     string
		databases      int
		reclaimWorkers int
		enableSentinel bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the keyspace daemon until signaled to stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, databases, reclaimWorkers, enableSentinel)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "/etc/coredbd/coredbd.conf", "directive file path")
	cmd.Flags().IntVar(&databases, "databases", 16, "number of logical databases")
	cmd.Flags().IntVar(&reclaimWorkers, "reclaim-workers", 4, "lazy reclaimer worker pool size")
	cmd.Flags().BoolVar(&enableSentinel, "sentinel", false, "run the HA supervisor alongside the keyspace")

	return cmd
}

func runServe(ctx context.Context, configPath string, databases, reclaimWorkers int, enableSentinel bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := xlog.New()

	file, err := config.Load(afero.NewOsFs(), configPath)
	if err != nil {
		return err
	}

	registry := dataset.NewRegistry(databases)
	stats := dataset.NewMemoryStats(registry)
	broker := notify.NewBroker()
	reclaimer := lazyfree.NewReclaimer(reclaimWorkers, log.With("component", "lazyfree"))

	evictionCfg := loadEvictionConfig(file)
	engine := eviction.NewEngine(evictionCfg, registry, stats, reclaimer, broker, log.With("component", "eviction"))

	var sup *sentinel.Supervisor
	if enableSentinel {
		sup, err = newSupervisorFromConfig(file, broker, log.With("component", "sentinel"))
		if err != nil {
			return err
		}
	}

	log.Info("coredbd: serving", "databases", databases, "sentinel", enableSentinel)

	evictionTicker := time.NewTicker(evictionPollInterval)
	defer evictionTicker.Stop()

	var sentinelTicker *time.Ticker
	if sup != nil {
		sentinelTicker = time.NewTicker(sentinel.PingPeriod)
		defer sentinelTicker.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("coredbd: shutting down")
			return reclaimer.Close()
		case <-evictionTicker.C:
			if err := engine.FreeIfNeeded(); err != nil {
				log.Warn("coredbd: eviction pass failed", "err", err)
			}
		case now := <-sentinelTickerChan(sentinelTicker):
			sup.Tick(now)
		}
	}
}

// sentinelTickerChan returns t's channel, or a nil channel (which blocks
// forever in a select) when sentinel supervision isn't running.
func sentinelTickerChan(t *time.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func loadEvictionConfig(file *config.File) *eviction.Config {
	cfg := eviction.NewConfig()
	if args, ok := file.Get(config.MaxMemory); ok && len(args) > 0 {
		if n, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			_ = cfg.SetMaxMemory(n)
		}
	}
	if args, ok := file.Get(config.MaxMemoryPolicy); ok && len(args) > 0 {
		_ = cfg.SetPolicy(args[0])
	}
	_ = cfg.SetSamples(file.GetInt(config.MaxMemorySamples, cfg.Samples()))
	_ = cfg.SetLFULogFactor(file.GetInt(config.LFULogFactor, cfg.LFULogFactor()))
	_ = cfg.SetLFUDecayTime(file.GetInt(config.LFUDecayTime, cfg.LFUDecayTime()))
	if args, ok := file.Get(config.LazyFreeLazyEviction); ok && len(args) > 0 {
		cfg.SetLazyFreeOnEviction(args[0] == "yes" || args[0] == "true")
	}
	return cfg
}

func newSupervisorFromConfig(file *config.File, broker *notify.Broker, log xlog.Logger) (*sentinel.Supervisor, error) {
	cs := sentinel.NewConfigStore(file, log)

	myID, err := cs.LoadMyID()
	if err != nil {
		myID, err = sentinel.GenerateRunID()
		if err != nil {
			return nil, err
		}
		cs.SetMyID(myID)
	}

	sc := sentinel.DefaultSupervisorConfig()
	if args, ok := file.Get(config.DownAfterMilliseconds); ok && len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			sc.DownAfter = time.Duration(n) * time.Millisecond
		}
	}
	if n := file.GetInt(config.ParallelSyncs, sc.ParallelSyncs); n > 0 {
		sc.ParallelSyncs = n
	}

	sup := sentinel.NewSupervisor(myID, "0.0.0.0", 26379, sc, cs, broker, log)

	for _, args := range file.GetAll(config.SentinelMonitor) {
		if len(args) < 4 {
			continue
		}
		name, host := args[0], args[1]
		port, err := strconv.Atoi(args[2])
		if err != nil {
			continue
		}
		quorum, err := strconv.Atoi(args[3])
		if err != nil {
			continue
		}
		sup.Monitor(name, host, port, quorum)
	}

	sup.SetCurrentEpoch(cs.LoadCurrentEpoch())
	return sup, nil
}
