package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/jetreco/internal/jets/l2geometry"
	"github.com/banshee-data/jetreco/internal/jets/source"
)

const (
	geometryCMS  = "cms"
	geometryNone = "none"
)

// loadGeometry resolves the --geometry flag: the built-in CMS tower grid,
// no geometry, or a snapshot file.
func loadGeometry(name string) (l2geometry.Snapshot, error) {
	switch name {
	case geometryNone, "":
		return nil, nil
	case geometryCMS:
		return l2geometry.NewCMSTowerGrid(1), nil
	}
	snap, err := source.LoadGeometry(name)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func newGeometryCmd() *cobra.Command {
	var out string
	var identity uint64

	cmd := &cobra.Command{
		Use:   "geometry",
		Short: "Write the CMS calorimeter tower grid as a geometry snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := l2geometry.NewCMSTowerGrid(identity)
			index, err := l2geometry.BuildTowerIndex(snap)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := source.WriteGeometry(w, snap); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d towers in %d rings (ieta %d..%d) to %s\n",
					index.Len(), len(index.Rings()), index.IetaMin, index.IetaMax, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().Uint64Var(&identity, "identity", 1, "snapshot identity")
	return cmd
}
