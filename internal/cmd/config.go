package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/commitcoach/commitcoach/internal/pkg/ai"
	"github.com/commitcoach/commitcoach/internal/pkg/config"
	"github.com/commitcoach/commitcoach/internal/pkg/ui"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CommitCoach configuration",
		Long: `Manage CommitCoach configuration settings.

Use subcommands to initialize, view, or modify configuration values.
Configuration is stored in ~/.commitcoach/config.yaml by default.`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigListCmd())

	return configCmd
}

func newConfigInitCmd() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long: `Create a new configuration file at ~/.commitcoach/config.yaml with default values.

The file is created with permissions 0600 (user read/write only).
With --interactive a short wizard asks for the default style and proxy server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			mgr, err := config.NewManager(configPath)
			if err != nil {
				return fmt.Errorf("failed to create config manager: %w", err)
			}

			if interactive {
				return ui.RunInteractiveSetup(mgr)
			}

			if err := mgr.Init(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at %s\n", mgr.GetConfigPath())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Answer a few questions instead of writing defaults")

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value by key.

Supports nested keys using dot notation.

Examples:
  commitcoach config set server.url https://proxy.example.com
  commitcoach config set commit.style casual
  commitcoach config set server.timeout 30s
  commitcoach config set ui.color_enabled false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]

			if err := validateSetting(key, value); err != nil {
				return err
			}

			configPath, _ := cmd.Flags().GetString("config")
			mgr, err := config.NewManager(configPath)
			if err != nil {
				return fmt.Errorf("failed to create config manager: %w", err)
			}

			if !mgr.ConfigExists() {
				return fmt.Errorf("config file not found. Run 'commitcoach config init' first")
			}

			if err := mgr.Set(key, value); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// validateSetting rejects values the commit command would refuse later.
func validateSetting(key, value string) error {
	switch key {
	case "commit.style":
		_, err := ai.ParseStyle(value)
		return err
	case "server.url":
		return ui.ValidateServerURL(value)
	}
	return nil
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			mgr, err := config.NewManager(configPath)
			if err != nil {
				return fmt.Errorf("failed to create config manager: %w", err)
			}

			printSettings(cmd.OutOrStdout(), "", mgr.List())
			return nil
		},
	}
}

// printSettings prints nested settings in key order, indenting each level.
func printSettings(w io.Writer, indent string, settings map[string]interface{}) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch v := settings[key].(type) {
		case map[string]interface{}:
			fmt.Fprintf(w, "%s%s:\n", indent, key)
			printSettings(w, indent+"  ", v)
		default:
			fmt.Fprintf(w, "%s%s: %v\n", indent, key, v)
		}
	}
}
