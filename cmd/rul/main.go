// rul predicts diesel particulate filter remaining useful life for a fleet.
//
// Usage:
//
//	rul run [--source database|simulated] [--format table|markdown|json|yaml]
//	rul serve
//	rul migrate
//	rul generate [--vehicles N] [--days D] [--seed S]
//	rul predict --vin <VIN> [--as-of <date>]
//	rul user create --username <name> --password <password>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rul",
	Short: "DPF remaining useful life analytics",
	Long: "rul labels historical DPF maintenance, extracts leakage-free sensor features,\n" +
		"trains an explainable linear model and flags vehicles at risk.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded

		logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
		logger.SetOutput(cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
