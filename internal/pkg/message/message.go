// Package message inspects suggested commit messages before they are used.
package message

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// CommitTypes contains the Conventional Commits types CommitCoach recognises.
var CommitTypes = []string{
	"feat", "fix", "docs", "style", "refactor",
	"test", "chore", "perf", "ci", "build", "revert",
}

// MaxSubjectLength is the recommended maximum length for a subject line.
const MaxSubjectLength = 72

// Format: <type>(<scope>)!: <description>
var conventionalRegex = regexp.MustCompile(`^([a-z]+)(\(([^)]+)\))?(!)?:\s*(.+)$`)

// Subject is the parsed first line of a commit message.
type Subject struct {
	Type        string
	Scope       string
	Breaking    bool
	Description string
	Raw         string
}

// IsConventional reports whether the subject uses a recognised Conventional Commits type.
func (s Subject) IsConventional() bool {
	return s.Type != "" && IsCommitType(s.Type)
}

// ParseSubject parses the first line of msg.
func ParseSubject(msg string) Subject {
	line := FirstLine(msg)
	s := Subject{Raw: line}

	if m := conventionalRegex.FindStringSubmatch(line); m != nil {
		s.Type = m[1]
		s.Scope = m[3]
		s.Breaking = m[4] == "!"
		s.Description = strings.TrimSpace(m[5])
		return s
	}

	s.Description = line
	return s
}

// FirstLine returns the first non-blank line of msg, trimmed.
func FirstLine(msg string) string {
	for _, line := range strings.Split(msg, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// IsCommitType checks if commitType is one of CommitTypes.
func IsCommitType(commitType string) bool {
	return slices.Contains(CommitTypes, commitType)
}

// Review returns advisory warnings for msg. Warnings never block a commit.
// A limit of zero or less means MaxSubjectLength.
func Review(msg string, conventional bool, limit int) []string {
	if limit <= 0 {
		limit = MaxSubjectLength
	}

	var warnings []string
	subject := ParseSubject(msg)

	if n := utf8.RuneCountInString(subject.Raw); n > limit {
		warnings = append(warnings, fmt.Sprintf("subject line exceeds %d characters (%d chars)", limit, n))
	}

	if conventional && !subject.IsConventional() {
		warnings = append(warnings, fmt.Sprintf(
			"subject does not start with a Conventional Commits type (%s)",
			strings.Join(CommitTypes, ", "),
		))
	}

	if strings.Contains(strings.TrimSpace(msg), "\n") {
		warnings = append(warnings, "message spans several lines; only the first is the subject")
	}

	return warnings
}
