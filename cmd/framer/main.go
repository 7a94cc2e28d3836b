// Package main is the framer command: live composition guidance from the
// camera, and offline analysis of still frames.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/framer/internal/config"
	"github.com/ayusman/framer/internal/log"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "framer",
	Short:         "Real-time composition guidance",
	Long:          "framer watches the camera, finds the subject and tells you where to point so the shot follows the selected composition rule.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if err := loaded.Validate(); err != nil {
			return err
		}

		cfg = loaded
		log.Init(cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Path to the JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// defaultConfigPath returns ~/.framer/config.json.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "framer.json"
	}
	return home + "/.framer/config.json"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
