package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/jetreco/internal/config"
)

type configFlags struct {
	path   string
	preset string
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "config", "c", "", "producer configuration file (.json, .yaml or .toml)")
	cmd.Flags().StringVar(&f.preset, "preset", "",
		fmt.Sprintf("parameter block applied under the config file (%s)", strings.Join(config.PresetNames(), ", ")))
}

// load resolves the producer configuration. The preset is the base and the
// file overrides it. Without either, the canonical defaults file is used
// when it can be found.
func (f *configFlags) load() (*config.ProducerConfig, error) {
	base := config.EmptyProducerConfig()
	if f.preset != "" {
		p, err := config.Preset(f.preset)
		if err != nil {
			return nil, err
		}
		base = p
	}

	path := f.path
	if path == "" {
		if f.preset != "" {
			return base, base.Validate()
		}
		if _, err := os.Stat(config.DefaultConfigPath); err != nil {
			return base, nil
		}
		path = config.DefaultConfigPath
	}

	file, err := config.LoadProducerConfig(path)
	if err != nil {
		return nil, err
	}
	merged := config.Merge(base, file)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return merged, nil
}

func newConfigCmd() *cobra.Command {
	var flags configFlags
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective producer configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), cfg, format)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml or toml")
	return cmd
}

func writeConfig(w io.Writer, cfg *config.ProducerConfig, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(cfg)
	case "toml":
		return toml.NewEncoder(w).Encode(cfg)
	}
	return fmt.Errorf("unknown format %q", format)
}
