// Package app contains the application layer with business orchestration logic.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/commitcoach/commitcoach/internal/pkg/ai"
	"github.com/commitcoach/commitcoach/internal/pkg/config"
	apperrors "github.com/commitcoach/commitcoach/internal/pkg/errors"
	"github.com/commitcoach/commitcoach/internal/pkg/git"
	"github.com/commitcoach/commitcoach/internal/pkg/message"
	"github.com/commitcoach/commitcoach/internal/pkg/processor"
	"github.com/commitcoach/commitcoach/internal/pkg/ui"
)

// writeFile is a variable to allow mocking in tests.
var writeFile = os.WriteFile

// State is a step of the decision loop.
type State int

const (
	StatePresenting State = iota
	StateEditing
	StateRegenerating
	StateCommitting
	StateCancelled
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePresenting:
		return "presenting"
	case StateEditing:
		return "editing"
	case StateRegenerating:
		return "regenerating"
	case StateCommitting:
		return "committing"
	case StateCancelled:
		return "cancelled"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// CommitOptions contains options for one run.
type CommitOptions struct {
	Style      ai.Style
	DryRun     bool
	OutputFile string
}

// Result describes how a run ended.
type Result struct {
	State    State
	Message  string
	Revision string
	// Calls counts suggestion requests, the first one included.
	Calls     int
	Truncated bool
}

// CommitService orchestrates diff retrieval, suggestion and commit.
type CommitService struct {
	gitClient     git.Client
	suggester     ai.Suggester
	diffProcessor processor.DiffProcessor
	uiManager     ui.Manager
	config        *config.Config
}

// NewCommitService creates a new CommitService with the given dependencies.
func NewCommitService(
	gitClient git.Client,
	suggester ai.Suggester,
	diffProcessor processor.DiffProcessor,
	uiManager ui.Manager,
	cfg *config.Config,
) *CommitService {
	return &CommitService{
		gitClient:     gitClient,
		suggester:     suggester,
		diffProcessor: diffProcessor,
		uiManager:     uiManager,
		config:        cfg,
	}
}

// Run reads the staged diff, asks for a suggestion and drives the decision
// loop until the user commits or cancels. Cancelling returns a Cancelled
// AppError alongside the result.
func (s *CommitService) Run(ctx context.Context, opts *CommitOptions) (*Result, error) {
	if opts == nil {
		opts = &CommitOptions{}
	}
	if opts.Style == "" {
		opts.Style = ai.DefaultStyle
	}
	if opts.OutputFile != "" {
		opts.DryRun = true
	}

	spinner := s.uiManager.ShowSpinner("Reading staged changes...")
	spinner.Start()
	diff, err := s.gitClient.StagedDiff(ctx)
	spinner.Stop()
	if err != nil {
		return nil, err
	}

	if stats, err := s.gitClient.StagedStats(ctx); err == nil {
		apperrors.Debug("Staged: %d files, +%d -%d", stats.TotalFiles, stats.TotalAdditions, stats.TotalDeletions)
	} else {
		apperrors.Debug("Could not read diff stats: %v", err)
	}

	processed, err := s.diffProcessor.Process(ctx, diff)
	if err != nil {
		return nil, fmt.Errorf("failed to process diff: %w", err)
	}
	if processed.Truncated {
		apperrors.Warn("Diff truncated from %d characters; the suggestion only sees the beginning", processed.OriginalChars)
	}

	result := &Result{Truncated: processed.Truncated}
	return s.decide(ctx, opts, processed.Text, result)
}

// decide runs the Presenting, Editing, Regenerating and Committing states.
func (s *CommitService) decide(ctx context.Context, opts *CommitOptions, diff string, result *Result) (*Result, error) {
	suggestion, err := s.suggest(ctx, opts.Style, diff, result)
	if err != nil {
		return nil, err
	}

	state := StatePresenting
	chosen := ""

	for {
		result.State = state
		apperrors.Debug("Decision loop state: %s", state)

		switch state {
		case StatePresenting:
			warnings := message.Review(suggestion, opts.Style == ai.StyleConventional, s.subjectLimit())
			if err := s.uiManager.DisplayMessage(suggestion, warnings); err != nil {
				return nil, fmt.Errorf("failed to display message: %w", err)
			}

			decision, err := s.uiManager.PromptDecision()
			if err != nil {
				return nil, fmt.Errorf("failed to get user decision: %w", err)
			}

			switch decision {
			case ui.DecisionUse:
				chosen = suggestion
				state = StateCommitting
			case ui.DecisionEdit:
				state = StateEditing
			case ui.DecisionRegenerate:
				state = StateRegenerating
			case ui.DecisionCancel:
				state = StateCancelled
			default:
				return nil, fmt.Errorf("unknown decision %d", int(decision))
			}

		case StateEditing:
			edited, err := s.uiManager.EditMessage(suggestion)
			if err != nil {
				return nil, fmt.Errorf("failed to edit message: %w", err)
			}
			chosen = strings.TrimSpace(edited)
			if chosen == "" {
				chosen = suggestion
			}
			state = StateCommitting

		case StateRegenerating:
			// Each request stands alone; earlier suggestions are not sent.
			suggestion, err = s.suggest(ctx, opts.Style, diff, result)
			if err != nil {
				return nil, err
			}
			state = StatePresenting

		case StateCommitting:
			result.Message = chosen
			if err := s.apply(ctx, opts, result); err != nil {
				return nil, err
			}
			state = StateDone

		case StateCancelled:
			s.uiManager.ShowSuccess("Cancelled. Nothing was committed.")
			return result, apperrors.NewCancelledError()

		case StateDone:
			return result, nil
		}
	}
}

func (s *CommitService) suggest(ctx context.Context, style ai.Style, diff string, result *Result) (string, error) {
	spinner := s.uiManager.ShowSpinner("Drafting a commit message...")
	spinner.Start()
	defer spinner.Stop()

	result.Calls++
	msg, err := s.suggester.Suggest(ctx, &ai.SuggestRequest{Diff: diff, Style: style})
	if err != nil {
		return "", err
	}
	return ai.NormalizeMessage(msg), nil
}

func (s *CommitService) apply(ctx context.Context, opts *CommitOptions, result *Result) error {
	if opts.DryRun {
		if opts.OutputFile != "" {
			if err := writeFile(opts.OutputFile, []byte(result.Message+"\n"), 0644); err != nil {
				return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write message file")
			}
			s.uiManager.ShowSuccess(fmt.Sprintf("Message written to %s", opts.OutputFile))
			return nil
		}
		s.uiManager.ShowSuccess("Dry run, not committing: " + message.FirstLine(result.Message))
		return nil
	}

	spinner := s.uiManager.ShowSpinner("Committing...")
	spinner.Start()
	rev, err := s.gitClient.Commit(ctx, result.Message)
	spinner.Stop()
	if err != nil {
		return err
	}

	result.Revision = rev
	s.uiManager.ShowSuccess(fmt.Sprintf("Committed %s: %s", rev, message.FirstLine(result.Message)))
	return nil
}

func (s *CommitService) subjectLimit() int {
	if s.config == nil {
		return message.MaxSubjectLength
	}
	return s.config.Commit.SubjectLimit
}
