// Package cmd contains the CLI command definitions for CommitCoach and its proxy.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the CommitCoach CLI.
func NewRootCmd(version, commitHash, date string) *cobra.Command {
	flags := &CommitFlags{}

	rootCmd := &cobra.Command{
		Use:   "commitcoach",
		Short: "AI-suggested git commit messages",
		Long: `CommitCoach reads your staged git diff, asks a CommitCoach proxy for a
commit message suggestion and lets you use, edit, regenerate or cancel it
before anything is committed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Default action is to run the commit command
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(cmd, flags)
		},
	}

	rootCmd.SetVersionTemplate(`CommitCoach {{.Version}}
Commit: ` + commitHash + `
Built:  ` + date + "\n")

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: ~/.commitcoach/config.yaml)")

	addCommitFlags(rootCmd, flags)

	rootCmd.AddCommand(NewCommitCmd())
	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}
