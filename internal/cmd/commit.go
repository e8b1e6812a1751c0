package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/commitcoach/commitcoach/internal/app"
	"github.com/commitcoach/commitcoach/internal/pkg/ai"
	"github.com/commitcoach/commitcoach/internal/pkg/config"
	apperrors "github.com/commitcoach/commitcoach/internal/pkg/errors"
	"github.com/commitcoach/commitcoach/internal/pkg/git"
	"github.com/commitcoach/commitcoach/internal/pkg/processor"
	"github.com/commitcoach/commitcoach/internal/pkg/security"
	"github.com/commitcoach/commitcoach/internal/pkg/ui"
)

// CommitFlags holds the flags for the commit command.
type CommitFlags struct {
	Style      string
	Server     string
	Timeout    time.Duration
	DryRun     bool
	Yes        bool
	OutputFile string
}

// NewCommitCmd creates the commit command.
func NewCommitCmd() *cobra.Command {
	flags := &CommitFlags{}

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Suggest a message for the staged changes and commit",
		Long: `Suggest a commit message for your staged changes, then commit with it.

The staged diff is sent to the configured CommitCoach proxy. You can use
the suggestion, edit it, ask for a new one or cancel.

Examples:
  commitcoach commit              # Interactive commit
  commitcoach commit -s casual    # Friendlier tone
  commitcoach commit --yes        # Use the first suggestion
  commitcoach commit --dry-run    # Suggest without committing
  commitcoach commit -o msg.txt   # Save message to file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(cmd, flags)
		},
	}

	addCommitFlags(cmd, flags)

	return cmd
}

func addCommitFlags(cmd *cobra.Command, flags *CommitFlags) {
	cmd.Flags().StringVarP(&flags.Style, "style", "s", "", "Message style: conventional, casual or formal (default conventional)")
	cmd.Flags().StringVar(&flags.Server, "server", "", "Proxy server URL (default "+config.DefaultServer+")")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "HTTP timeout for one suggestion (default 60s)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Suggest a message without committing")
	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Use the first suggestion without prompting")
	cmd.Flags().StringVarP(&flags.OutputFile, "output", "o", "", "Write the message to file (implies --dry-run)")
}

// resolveConfig loads the CLI configuration with flag overrides applied.
// Priority: flags > env > file > defaults
func resolveConfig(cmd *cobra.Command, flags *CommitFlags) (*config.ViperManager, *config.Config, ai.Style, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfgMgr, err := config.NewManager(configPath)
	if err != nil {
		return nil, nil, "", apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to create config manager")
	}
	if configPath != "" {
		apperrors.Debug("Using custom config path: %s", configPath)
	}

	// Overrides are not persisted.
	if flags.Server != "" {
		cfgMgr.SetOverride("server.url", flags.Server)
	}
	if flags.Style != "" {
		cfgMgr.SetOverride("commit.style", flags.Style)
	}
	if flags.Timeout != 0 {
		cfgMgr.SetOverride("server.timeout", flags.Timeout)
	}

	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, nil, "", err
	}

	style, err := ai.ParseStyle(cfg.Commit.Style)
	if err != nil {
		return nil, nil, "", apperrors.NewInvalidArgumentsError(err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, "", apperrors.NewInvalidConfigError(err.Error())
	}

	return cfgMgr, cfg, style, nil
}

// runCommit executes the commit command logic.
func runCommit(cmd *cobra.Command, flags *CommitFlags) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	apperrors.SetVerbose(verbose)

	cfgMgr, cfg, style, err := resolveConfig(cmd, flags)
	if err != nil {
		return err
	}

	var uiMgr ui.Manager
	if flags.Yes {
		uiMgr = ui.NewNonInteractiveManager(cmd.OutOrStdout())
	} else {
		uiMgr = ui.NewDefaultManager(ui.Options{
			ColorEnabled: cfg.UI.ColorEnabled,
			SpinnerStyle: cfg.UI.SpinnerStyle,
			Out:          cmd.OutOrStdout(),
		})
	}

	if !cfg.Security.WarningAcknowledged {
		if err := showSecurityWarning(cmd, cfgMgr, uiMgr, cfg.Server.URL, flags.Yes); err != nil {
			return err
		}
	}

	apperrors.Debug("Using server: %s (timeout %v)", cfg.Server.URL, cfg.Server.Timeout)
	apperrors.Debug("Using style: %s", style)
	if flags.DryRun || flags.OutputFile != "" {
		apperrors.Debug("Dry-run mode enabled")
	}

	suggester, err := ai.NewSuggester(&cfg.Server)
	if err != nil {
		return apperrors.NewInvalidConfigError(err.Error())
	}

	service := app.NewCommitService(
		git.NewClient(),
		suggester,
		processor.NewProcessor(),
		uiMgr,
		cfg,
	)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	_, err = service.Run(ctx, &app.CommitOptions{
		Style:      style,
		DryRun:     flags.DryRun,
		OutputFile: flags.OutputFile,
	})
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// showSecurityWarning explains where the diff goes and records the acknowledgment.
func showSecurityWarning(cmd *cobra.Command, cfgMgr *config.ViperManager, uiMgr ui.Manager, server string, autoAccept bool) error {
	out := cmd.ErrOrStderr()
	fmt.Fprint(out, security.FirstUseWarning(server))

	if autoAccept {
		fmt.Fprintln(out, "Auto-acknowledging security notice (--yes flag)")
	} else {
		ok, err := uiMgr.PromptConfirm("Do you understand and wish to continue?")
		if err != nil || !ok {
			fmt.Fprintln(out, "Cancelled. Nothing was sent.")
			return apperrors.NewCancelledError()
		}
	}

	if err := persistAcknowledgment(cfgMgr.GetConfigPath()); err != nil {
		apperrors.Warn("Failed to save security acknowledgment: %v", err)
	}

	fmt.Fprintln(out, security.FirstUseAcknowledgment)
	fmt.Fprintln(out)

	return nil
}

// persistAcknowledgment records the acknowledgment through a fresh manager so
// flag overrides on the running one are not written to disk.
func persistAcknowledgment(path string) error {
	mgr, err := config.NewManager(path)
	if err != nil {
		return err
	}
	if !mgr.ConfigExists() {
		if err := mgr.Init(); err != nil {
			return err
		}
	}
	return mgr.AcknowledgeSecurityWarning()
}
