// Package cli wires the classroom commands: the chat TUI, the bundled
// dev backend and topic utilities.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/config"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/logging"
)

var (
	configFile string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "classroom",
	Short:         "Classroom assistant chat client",
	Long:          "Terminal chat client for the classroom assistant, with a bundled development backend.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.LoadDefault()
		}
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logCfg := logging.Config{
			Level:        cfg.Logging.Level,
			Format:       cfg.Logging.Format,
			Output:       os.Stderr,
			EnableCaller: cfg.Logging.EnableCaller,
		}
		if cfg.Logging.File != "" {
			f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			logCfg.Output = f
		}
		logging.Init(logCfg)

		return cfg.EnsureDirectories()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default entrypoint: launch the chat screen.
		return runChat()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override: debug|info|warn|error")
}

// Execute runs the CLI.
func Execute(version string) error {
	rootCmd.Version = version
	return rootCmd.Execute()
}
