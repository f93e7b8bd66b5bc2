package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navflow/internal/config"
	"github.com/vango-dev/navflow/internal/errors"
)

func configCmd() *cobra.Command {
	var (
		configPath string
		initFile   bool
		asYAML     bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration navflow serve would run with, as JSON.

With --init, write the default configuration to navflow.json (or
navflow.yaml with --yaml) in the config directory instead.

Examples:
  navflow config
  navflow config --config ./deploy
  navflow config --init --yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if initFile {
				return writeDefaultConfig(cmd, configPath, asYAML)
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", ".", "Config directory or file")
	cmd.Flags().BoolVar(&initFile, "init", false, "Write a default configuration file")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "With --init, write navflow.yaml")

	return cmd
}

func writeDefaultConfig(cmd *cobra.Command, dir string, asYAML bool) error {
	if existing, ok := config.Find(dir); ok {
		return errors.New("N004").
			WithDetail(existing + " already exists").
			WithSuggestion("Edit the existing file or remove it first")
	}

	name := config.ConfigFileName
	if asYAML {
		name = config.YAMLConfigFileName
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.New("N005").Wrap(err)
	}

	path := filepath.Join(dir, name)
	if err := config.Default().SaveTo(path); err != nil {
		return err
	}
	success(cmd, "Wrote %s", path)
	return nil
}
