package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults and the --config file are applied.
With --write the same YAML is saved to a file, which is a starting point for a
project config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(config)
			if err != nil {
				return fmt.Errorf("while encoding config: %w", err)
			}
			if target, _ := cmd.Flags().GetString("write"); target != "" {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists: %s", target)
				}
				return os.WriteFile(target, data, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringP("write", "w", "", "Write the configuration to this file instead of printing it")
	return cmd
}
