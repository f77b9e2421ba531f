package main

import (
	"context"
	"fmt"
	"os"

	"github.com/harunnryd/apprentice/internal/config"
	"github.com/harunnryd/apprentice/internal/logger"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "apprentice",
	Short: "Cloud CLI assistant",
	Long: `Apprentice turns requests into gcloud, aws or az commands.
Every command is shown and confirmed before it runs.`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd.Flags())
		if err != nil {
			return err
		}

		logger.Setup(cfg.LogLevel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDialogue(cmd.Context(), cfg)
	},
}

func Execute() {
	signals := NewSignalHandler(context.Background())
	signals.Start()

	err := rootCmd.ExecuteContext(signals.Context())
	signals.Stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())
}
