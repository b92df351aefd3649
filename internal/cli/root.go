package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/trainload/internal/config"
	"github.com/rshade/trainload/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root command for the trainload CLI. It loads
// configuration, sets up logging and registers the upload, stations, split
// and config commands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "trainload",
		Short:         "Upload railway timetable CSVs to a document store",
		Long:          "trainload: load a timetable CSV, clean it, and write it in atomic batches to Firestore or another document store",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadLayered(cfgPath)
			if err != nil {
				return err
			}
			config.SetGlobalConfig(cfg)

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (default $TRAINLOAD_CONFIG or ~/.trainload/config.yaml)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "", "log format: console or json")
	cmd.AddCommand(NewUploadCmd(), NewStationsCmd(), NewSplitCmd(), newConfigCmd())

	return cmd
}

const rootCmdExample = `  # Upload train_data.csv to Firestore using ./firebase-service-account-key.json
  trainload upload

  # Upload another file in batches of 200 with a pause between commits
  trainload upload stops.csv --batch-size 200 --batch-delay 100ms

  # Check the input and batching without writing anything
  trainload upload --dry-run

  # Read the CSV from Cloud Storage and write to Postgres
  trainload upload gs://rail-exports/train_data.csv --driver postgres

  # Derive the stations and stationDistances collections
  trainload stations train_data.csv

  # Split a large CSV into 10,000-row chunk files
  trainload split train_data.csv --chunk-size 10000

  # Write a default configuration file
  trainload config init`

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd(), NewConfigShowCmd())
	return cmd
}
