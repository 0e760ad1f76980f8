package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/banshee-data/jetreco/internal/monitoring"
	"github.com/banshee-data/jetreco/internal/version"
)

type logFlags struct {
	verbose bool
	trace   bool
	quiet   bool
}

// writers maps the flags onto the three log streams. Ops goes to stderr
// unless quiet; diag needs verbose; trace needs trace.
func (f logFlags) writers(stderr io.Writer) monitoring.LogWriters {
	var w monitoring.LogWriters
	if !f.quiet {
		w.Ops = stderr
	}
	if f.verbose || f.trace {
		w.Diag = stderr
	}
	if f.trace {
		w.Trace = stderr
	}
	return w
}

func newRootCmd() *cobra.Command {
	var logs logFlags

	root := &cobra.Command{
		Use:           "jetreco",
		Short:         "Jet reconstruction with pileup offset correction",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			monitoring.SetLogWriters(logs.writers(cmd.ErrOrStderr()))
		},
	}
	root.SetVersionTemplate(version.Banner())

	root.PersistentFlags().BoolVarP(&logs.verbose, "verbose", "v", false, "enable the diagnostic log stream")
	root.PersistentFlags().BoolVar(&logs.trace, "trace", false, "enable per-candidate trace logging (implies --verbose)")
	root.PersistentFlags().BoolVarP(&logs.quiet, "quiet", "q", false, "silence the ops log stream")

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newGeometryCmd())
	root.AddCommand(newConfigCmd())
	return root
}
