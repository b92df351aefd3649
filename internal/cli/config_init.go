package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/trainload/internal/config"
)

// NewConfigInitCmd creates the config init command, which writes a
// configuration file holding the defaults.
func NewConfigInitCmd() *cobra.Command {
	var (
		force   bool
		project bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values at
~/.trainload/config.yaml, $TRAINLOAD_CONFIG or the path given by --config.
Use --project to write ./trainload.yaml instead; it is merged over the user
configuration when trainload runs from this directory.`,
		Example: `  # Create the user configuration
  trainload config init

  # Create a project overlay in the current directory
  trainload config init --project

  # Overwrite an existing configuration
  trainload config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := initTarget(cmd, project)
			if err != nil {
				return err
			}
			return initConfig(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().BoolVar(&project, "project", false, "write ./"+config.ProjectFileName+" instead of the user config")

	return cmd
}

func initTarget(cmd *cobra.Command, project bool) (string, error) {
	if project {
		return config.ProjectFileName, nil
	}
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	return config.DefaultConfigPath()
}

func initConfig(cmd *cobra.Command, path string, force bool) error {
	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return errors.New("configuration file already exists, use --force to overwrite")
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cannot access config path %s: %w", path, err)
		}
	}

	if err := config.New().Save(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", path)
	return nil
}
