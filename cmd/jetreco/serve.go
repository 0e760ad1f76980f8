package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/banshee-data/jetreco/internal/db"
	"github.com/banshee-data/jetreco/internal/jets/monitor"
	"github.com/banshee-data/jetreco/internal/jets/storage/sqlite"
)

func newServeCmd() *cobra.Command {
	var dbPath, listen, plotDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored products and process metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := db.NewDB(dbPath)
			if err != nil {
				return err
			}
			defer database.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			router := monitor.NewRouter(monitor.RouterConfig{
				Gatherer: reg,
				Store:    sqlite.NewJetStore(database.DB),
				PlotDir:  plotDir,
			})
			return serveHTTP(cmd.Context(), listen, router)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "jets.db", "path to the SQLite product database")
	cmd.Flags().StringVar(&listen, "listen", ":8080", "listen address")
	cmd.Flags().StringVar(&plotDir, "plots", "", `serve plots written by "jetreco run --plot" from this directory`)
	return cmd
}
