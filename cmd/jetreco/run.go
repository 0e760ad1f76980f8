package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/banshee-data/jetreco/internal/db"
	"github.com/banshee-data/jetreco/internal/jets/l2geometry"
	"github.com/banshee-data/jetreco/internal/jets/monitor"
	"github.com/banshee-data/jetreco/internal/jets/pipeline"
	"github.com/banshee-data/jetreco/internal/jets/source"
	"github.com/banshee-data/jetreco/internal/jets/storage/sqlite"
	"github.com/banshee-data/jetreco/internal/monitoring"
)

// CMS ring range used for plots when no geometry is loaded.
const (
	defaultIetaMin = -41
	defaultIetaMax = 41
)

type runOptions struct {
	config          configFlags
	geometry        string
	dbPath          string
	plotDir         string
	outPath         string
	listen          string
	lcioCollections map[string]string
	statsInterval   time.Duration
}

type runSummary struct {
	Files  int
	Events int
	Failed int
	Jets   int
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <events.json|events.slcio>...",
		Short: "Reconstruct jets for every event in the given files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := runProducer(cmd.Context(), opts, args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d events from %d files: %d jets, %d failed\n",
				sum.Events, sum.Files, sum.Jets, sum.Failed)
			return nil
		},
	}
	opts.config.register(cmd)
	cmd.Flags().StringVarP(&opts.geometry, "geometry", "g", geometryCMS,
		`tower geometry: "cms", "none" or a snapshot file written by "jetreco geometry"`)
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "store products in this SQLite database")
	cmd.Flags().StringVar(&opts.plotDir, "plot", "", "write pedestal, rho and jet pt plots to this directory")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "write products as JSON lines to this file")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "serve /metrics and /healthz on this address while running")
	cmd.Flags().StringToStringVar(&opts.lcioCollections, "lcio-collections", nil,
		"LCIO collection names by label, e.g. particleFlow=PandoraPFOs")
	cmd.Flags().DurationVar(&opts.statsInterval, "stats-interval", 10*time.Second, "ops log interval for throughput stats (0 disables)")
	return cmd
}

func runProducer(ctx context.Context, opts runOptions, files []string) (runSummary, error) {
	var sum runSummary

	fileCfg, err := opts.config.load()
	if err != nil {
		return sum, err
	}
	cfg, err := pipeline.ProducerConfigFrom(fileCfg)
	if err != nil {
		return sum, err
	}
	snap, err := loadGeometry(opts.geometry)
	if err != nil {
		return sum, err
	}

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	cache := l2geometry.NewIndexCache()
	producer, err := pipeline.NewProducer(cfg,
		pipeline.WithMetrics(metrics),
		pipeline.WithIndexCache(cache),
	)
	if err != nil {
		return sum, err
	}

	// The store goes first: Tee stops at the first failing sink, so an
	// event the store rejects is not counted, plotted or written out.
	var sinks []pipeline.Sink
	var store *sqlite.JetStore

	if opts.dbPath != "" {
		database, err := db.NewDB(opts.dbPath)
		if err != nil {
			return sum, err
		}
		defer database.Close()
		store = sqlite.NewJetStore(database.DB)
		sinks = append(sinks, store)
	}
	stats := monitor.NewProductionStats()
	sinks = append(sinks, stats)

	var plotter *monitor.Plotter
	if opts.plotDir != "" {
		ietaMin, ietaMax := defaultIetaMin, defaultIetaMax
		if snap != nil {
			if index, err := cache.Index(snap); err == nil {
				ietaMin, ietaMax = index.IetaMin, index.IetaMax
			}
		}
		plotter = monitor.NewPlotter(ietaMin, ietaMax)
		sinks = append(sinks, plotter)
	}

	if opts.outPath != "" {
		f, err := os.Create(opts.outPath)
		if err != nil {
			return sum, fmt.Errorf("create %s: %w", opts.outPath, err)
		}
		defer f.Close()
		sinks = append(sinks, newJSONLinesSink(f))
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	if opts.listen != "" {
		router := monitor.NewRouter(monitor.RouterConfig{
			Gatherer: reg,
			Store:    store,
			Stats:    stats,
			PlotDir:  opts.plotDir,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveHTTP(ctx, opts.listen, router); err != nil {
				monitoring.Opsf("http server: %v", err)
			}
		}()
	}
	if opts.statsInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.Run(ctx, opts.statsInterval)
		}()
	}

	setup := source.StaticSetup{Snapshot: snap}
	sink := monitor.Tee(sinks...)

	for _, path := range files {
		events, err := source.ReadFile(path, opts.lcioCollections)
		if err != nil {
			return sum, err
		}
		sum.Files++
		monitoring.Diagf("read %d events from %s", len(events), path)

		for _, ev := range events {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			sum.Events++
			products, err := producer.Produce(ev, setup, sink)
			if err != nil {
				sum.Failed++
				monitoring.Opsf("event %s: %v", ev.ID(), err)
				continue
			}
			sum.Jets += len(products.Jets)
		}
	}

	if plotter != nil {
		if err := plotter.Save(monitor.PlotPath(opts.plotDir, cfg.Instance)); err != nil {
			return sum, err
		}
	}
	return sum, nil
}
