package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/harunnryd/apprentice/internal/config"
	"github.com/harunnryd/apprentice/internal/logger"
	"github.com/harunnryd/apprentice/internal/pathutil"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed templates/config.yaml
var embeddedDefaultConfig []byte

const defaultConfigName = ".apprentice.yaml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Inspect or create the Apprentice configuration file.`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Dump fully resolved configuration",
	Long:  `Display the configuration after the file, its context, environment variables and flags are merged. The API key is masked.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfigView(cmd.OutOrStdout(), cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration",
	Long:  `Create a default configuration file at $HOME/.apprentice.yaml if it doesn't exist.`,
	Args:  cobra.NoArgs,
	// Skips config loading so init also works over a broken file.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Setup(config.DefaultLogLevel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path, err := pathutil.InHome(defaultConfigName)
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		written, err := initConfig(path, force)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !written {
			fmt.Fprintf(out, "Config already exists at %s\n", path)
			fmt.Fprintln(out, "Use 'apprentice config view' to see current configuration.")
			fmt.Fprintln(out, "To reinitialize, run 'apprentice config init --force'.")
			return nil
		}

		fmt.Fprintf(out, "Initialized config at %s\n", path)
		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintln(out, "1. Set OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY")
		fmt.Fprintln(out, "2. Pick a context with default_context or --context")
		fmt.Fprintln(out, "3. Run 'apprentice config view' to verify your configuration")
		return nil
	},
}

func writeConfigView(w io.Writer, c *config.Config) error {
	if c == nil {
		return fmt.Errorf("config is not loaded")
	}

	if c.Path != "" {
		fmt.Fprintf(w, "# file: %s\n", c.Path)
	}
	if c.Context != "" {
		fmt.Fprintf(w, "# context: %s\n", c.Context)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.Masked()); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// initConfig writes the template to path. It reports false when a file is
// already there and force is not set.
func initConfig(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		if !force {
			return false, nil
		}
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(embeddedDefaultConfig)); err != nil {
		return false, fmt.Errorf("failed to write config to %s: %w", path, err)
	}
	return true, nil
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
