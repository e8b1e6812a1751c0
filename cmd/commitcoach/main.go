// Package main is the entry point for the CommitCoach CLI.
// CommitCoach suggests a commit message for the staged changes and commits
// it once the user accepts.
package main

import (
	"fmt"
	"os"

	"github.com/commitcoach/commitcoach/internal/cmd"
	"github.com/commitcoach/commitcoach/internal/pkg/config"
	apperrors "github.com/commitcoach/commitcoach/internal/pkg/errors"
)

// Version information - set via ldflags during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, apperrors.FormatError(err))
	}

	rootCmd := cmd.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		report(err)
		os.Exit(apperrors.GetExitCode(err))
	}
}

// report prints err to stderr. Outcomes that are not failures print only
// their message.
func report(err error) {
	appErr := apperrors.GetAppError(err)
	switch {
	case apperrors.HasCode(err, apperrors.ErrNoStagedChanges):
		fmt.Fprintln(os.Stderr, appErr.Message)
	case apperrors.HasCode(err, apperrors.ErrCancelled):
	case appErr == nil:
		fmt.Fprintln(os.Stderr, apperrors.FormatError(err))
	case apperrors.IsVerbose():
		fmt.Fprintln(os.Stderr, apperrors.FormatErrorVerbose(err))
	default:
		fmt.Fprintln(os.Stderr, apperrors.FormatError(err))
	}
}
