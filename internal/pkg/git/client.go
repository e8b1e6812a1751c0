// Package git provides the Git operations CommitCoach needs: reading the
// staged diff and recording a commit.
package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/commitcoach/commitcoach/internal/pkg/errors"
)

const (
	// GitCommandTimeout is the default timeout for git commands.
	GitCommandTimeout = 10 * time.Second
)

// FileStat is the line count summary of one staged file.
type FileStat struct {
	Path      string
	Additions int
	Deletions int
	IsBinary  bool
}

// DiffStats summarises the staged changes.
type DiffStats struct {
	TotalFiles     int
	TotalAdditions int
	TotalDeletions int
	Files          []FileStat
}

// Client defines the interface for Git operations.
type Client interface {
	// StagedDiff returns the staged changes as zero-context unified diff text.
	StagedDiff(ctx context.Context) (string, error)
	// StagedStats returns per-file line counts for the staged changes.
	StagedStats(ctx context.Context) (*DiffStats, error)
	// Commit records the staged changes and returns the short revision id.
	Commit(ctx context.Context, message string) (string, error)
}

// DefaultClient implements the Client interface using exec.CommandContext.
type DefaultClient struct {
	// workDir is the working directory for git commands.
	// If empty, uses the current directory.
	workDir string
	// binary is the git executable, "git" unless overridden in tests.
	binary string
}

// NewClient creates a new DefaultClient.
func NewClient() *DefaultClient {
	return &DefaultClient{binary: "git"}
}

// NewClientWithWorkDir creates a new DefaultClient with a specific working directory.
func NewClientWithWorkDir(workDir string) *DefaultClient {
	return &DefaultClient{workDir: workDir, binary: "git"}
}

// result holds the captured streams of one git invocation.
type result struct {
	stdout string
	stderr string
}

// run executes git with args under GitCommandTimeout.
// A timeout is reported as a TimeoutError; other failures are returned raw
// together with whatever the process wrote.
func (c *DefaultClient) run(ctx context.Context, args ...string) (result, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, args...)
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := result{stdout: stdout.String(), stderr: stderr.String()}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, apperrors.NewTimeoutError(ctx.Err())
	}
	return res, err
}

// StagedDiff retrieves the staged changes. It fails with a NoStagedChanges
// error when nothing is staged and with a ToolInvocation error carrying
// git's diagnostics when git itself fails.
func (c *DefaultClient) StagedDiff(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "diff", "--cached", "--no-color", "--unified=0")
	if err != nil {
		if apperrors.IsAppError(err) {
			return "", err
		}
		return "", apperrors.NewGitError(err, res.stderr)
	}

	if strings.TrimSpace(res.stdout) == "" {
		return "", apperrors.NewNoStagedChangesError()
	}
	return res.stdout, nil
}

// StagedStats retrieves per-file statistics for the staged changes.
func (c *DefaultClient) StagedStats(ctx context.Context) (*DiffStats, error) {
	res, err := c.run(ctx, "diff", "--cached", "--numstat")
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewGitError(err, res.stderr)
	}

	files := parseNumstat([]byte(res.stdout))
	stats := &DiffStats{TotalFiles: len(files), Files: files}
	for _, f := range files {
		stats.TotalAdditions += f.Additions
		stats.TotalDeletions += f.Deletions
	}
	return stats, nil
}

// Commit records the staged changes with message verbatim and returns the
// short id of the new HEAD. A rejected commit (hook failure, nothing staged,
// missing identity) is a CommitError carrying git's diagnostics.
func (c *DefaultClient) Commit(ctx context.Context, message string) (string, error) {
	res, err := c.run(ctx, "commit", "-q", "-m", message)
	if err != nil {
		if apperrors.IsAppError(err) {
			return "", err
		}
		output := res.stderr
		if strings.TrimSpace(output) == "" {
			output = res.stdout
		}
		return "", apperrors.NewCommitError(err, output)
	}

	res, err = c.run(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		if apperrors.IsAppError(err) {
			return "", err
		}
		return "", apperrors.NewGitError(err, res.stderr)
	}
	return strings.TrimSpace(res.stdout), nil
}

// parseNumstat parses the output of git diff --numstat.
// Format: additions<TAB>deletions<TAB>filepath
// Binary files show as: -<TAB>-<TAB>filepath
func parseNumstat(output []byte) []FileStat {
	var stats []FileStat
	scanner := bufio.NewScanner(bytes.NewReader(output))

	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) < 3 {
			continue
		}

		addStr, delStr, filePath := parts[0], parts[1], parts[2]
		if strings.Contains(filePath, " => ") {
			filePath = extractNewPath(filePath)
		}

		stat := FileStat{Path: filePath}
		if addStr == "-" && delStr == "-" {
			stat.IsBinary = true
		} else {
			stat.Additions, _ = strconv.Atoi(addStr)
			stat.Deletions, _ = strconv.Atoi(delStr)
		}
		stats = append(stats, stat)
	}

	return stats
}

var renameBrace = regexp.MustCompile(`\{([^}]*) => ([^}]*)\}`)

// extractNewPath extracts the new file path from git rename notation.
// Examples:
//   - "old.txt => new.txt" -> "new.txt"
//   - "{old => new}/file.txt" -> "new/file.txt"
//   - "dir/{old.txt => new.txt}" -> "dir/new.txt"
func extractNewPath(renamePath string) string {
	if !strings.Contains(renamePath, "{") {
		parts := strings.Split(renamePath, " => ")
		if len(parts) == 2 {
			return strings.TrimSpace(parts[1])
		}
	}

	path := renameBrace.ReplaceAllString(renamePath, "$2")
	// "{ => sub}/f.txt" leaves a leading slash, "a/{dir => }/f" a double one.
	path = strings.ReplaceAll(path, "//", "/")
	return strings.TrimPrefix(path, "/")
}
