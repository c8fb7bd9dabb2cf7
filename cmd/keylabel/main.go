package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lewtec/keylabel/annotation"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "keylabel",
		Short: "Label keypoints on image folders",
		Long: strings.TrimSpace(`
Match image folders against keypoint annotation files, edit keypoints in a
session and export them to COCO, YOLO, Pascal VOC or statistics reports.
    `),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logrus.SetOutput(cmd.ErrOrStderr())
			levelName, _ := cmd.Flags().GetString("log-level")
			level, err := logrus.ParseLevel(levelName)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			logrus.SetLevel(level)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("lang", "", "Language of status messages, overrides the config")

	rootCmd.AddCommand(
		newScanCmd(),
		newResolveCmd(),
		newExportCmd(),
		newSessionCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// loadConfig reads the --config file and applies the --lang override
func loadConfig(cmd *cobra.Command) (*annotation.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	config, err := annotation.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		config.Language = lang
	}
	return config, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Fatalf("Error executing command: %v", err)
		os.Exit(1)
	}
}
