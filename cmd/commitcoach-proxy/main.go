// Package main is the entry point for the CommitCoach proxy service.
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

	if err := cmd.NewProxyCmd(version, commit, date).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, apperrors.FormatError(err))
		os.Exit(apperrors.GetExitCode(err))
	}
}
