package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/trainload/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Long: `Validates the configuration after every layer is applied: defaults, the
user config file, ./trainload.yaml, .env and TRAINLOAD_* variables.

This checks:
- batch size is between 1 and 500
- delays and timeouts are not negative
- collection names are set
- the store driver is known and has what it needs
- the input encoding and delimiter are usable`,
		Example: `  # Validate current configuration
  trainload config validate

  # Validate and show detailed information
  trainload config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.GetGlobalConfig()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("✅ Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}
	return nil
}

func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	if cfg.Path() != "" {
		cmd.Printf("  Config file: %s\n", cfg.Path())
	}
	cmd.Printf("  Store driver: %s\n", cfg.Store.Driver)
	cmd.Printf("  Collections: %s, %s\n", cfg.Upload.Collection, cfg.Upload.LogCollection)
	cmd.Printf("  Batch size: %d\n", cfg.Upload.BatchSize)
	cmd.Printf("  Input: %s (%s)\n", cfg.Input.Path, cfg.Input.Encoding)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		cmd.Printf("  Log file: %s\n", cfg.Logging.File)
	}
}
