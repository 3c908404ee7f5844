package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ptrack/pkg/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings to the configuration file",
	Long: `Write the effective settings (file, environment and defaults) to the
configuration file. The API key is never written; keep it in the environment
or a .env file. An existing file is backed up first and only replaced with
--force.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the most recent configuration backup",
	Args:  cobra.NoArgs,
	RunE:  runConfigRestore,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath(cfgFile)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configRestoreCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := config.SaveConfig(*cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", color.CyanString(path))
	return nil
}

func runConfigRestore(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath(cfgFile)
	if err != nil {
		return err
	}
	if err := config.RestoreLastBackup(path); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration restored at %s\n", color.CyanString(path))
	return nil
}
