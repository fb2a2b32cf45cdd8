package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codepilot/internal/config"
	"codepilot/internal/logging"
)

var (
	// Global flags
	workspace  string
	configPath string
	debug      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pilot",
	Short: "codepilot - codebase-aware coding assistant",
	Long: `codepilot is an interactive coding assistant built around a
content-addressed codebase index.

It extracts code chunks from the workspace, routes each task to an
appropriately sized model, and lets the model work through tools:
searching the index, reading and editing files, and running commands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}
			workspace = wd
		}

		path := configPath
		if path == "" {
			path = config.DefaultPath(workspace)
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if debug {
			cfg.Logging.Debug = true
		}

		return logging.Initialize(workspace, cfg.Logging.Debug)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: <workspace>/.pilot/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(clearCmd)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
