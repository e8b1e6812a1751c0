package message

import (
	"strings"
	"testing"
)

func TestParseSubject(t *testing.T) {
	tests := []struct {
		name         string
		msg          string
		wantType     string
		wantScope    string
		wantBreaking bool
		wantDesc     string
		conventional bool
	}{
		{"simple feat", "feat: add new feature", "feat", "", false, "add new feature", true},
		{"with scope", "feat(auth): add login endpoint", "feat", "auth", false, "add login endpoint", true},
		{"breaking", "refactor(api)!: drop v1 routes", "refactor", "api", true, "drop v1 routes", true},
		{"unknown type", "wip: stuff", "wip", "", false, "stuff", false},
		{"plain sentence", "Update the README", "", "", false, "Update the README", false},
		{"leading blank lines", "\n\n  fix: typo  \nbody", "fix", "", false, "typo", true},
		{"empty", "", "", "", false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseSubject(tt.msg)
			if s.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", s.Type, tt.wantType)
			}
			if s.Scope != tt.wantScope {
				t.Errorf("Scope = %q, want %q", s.Scope, tt.wantScope)
			}
			if s.Breaking != tt.wantBreaking {
				t.Errorf("Breaking = %v, want %v", s.Breaking, tt.wantBreaking)
			}
			if s.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", s.Description, tt.wantDesc)
			}
			if s.IsConventional() != tt.conventional {
				t.Errorf("IsConventional() = %v, want %v", s.IsConventional(), tt.conventional)
			}
		})
	}
}

func TestFirstLine(t *testing.T) {
	tests := map[string]string{
		"feat: x":              "feat: x",
		"feat: x\n\nbody":      "feat: x",
		"  \n\t\n chore: y \n": "chore: y",
		"":                     "",
		"\n\n":                 "",
	}
	for in, want := range tests {
		if got := FirstLine(in); got != want {
			t.Errorf("FirstLine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReview(t *testing.T) {
	long := "feat: " + strings.Repeat("a", 80)

	tests := []struct {
		name         string
		msg          string
		conventional bool
		limit        int
		wantWarnings []string
	}{
		{"clean conventional", "feat: add x", true, 0, nil},
		{"clean casual", "Added the thing", false, 0, nil},
		{"too long", long, false, 0, []string{"exceeds 72 characters (86 chars)"}},
		{"custom limit", "feat: add x", false, 5, []string{"exceeds 5 characters"}},
		{"not conventional", "Added the thing", true, 0, []string{"Conventional Commits type"}},
		{"multi line", "fix: y\n\nmore detail", true, 0, []string{"several lines"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Review(tt.msg, tt.conventional, tt.limit)
			if len(got) != len(tt.wantWarnings) {
				t.Fatalf("Review() = %v, want %d warnings", got, len(tt.wantWarnings))
			}
			for i, want := range tt.wantWarnings {
				if !strings.Contains(got[i], want) {
					t.Errorf("warning %d = %q, want it to contain %q", i, got[i], want)
				}
			}
		})
	}
}

func TestReview_CountsRunes(t *testing.T) {
	msg := "docs: " + strings.Repeat("é", 66)
	if got := Review(msg, true, 0); len(got) != 0 {
		t.Errorf("Review() = %v, want no warnings for a 72 rune subject", got)
	}
}

func TestIsCommitType(t *testing.T) {
	for _, ct := range CommitTypes {
		if !IsCommitType(ct) {
			t.Errorf("IsCommitType(%q) = false", ct)
		}
	}
	if IsCommitType("feature") {
		t.Error("IsCommitType(feature) = true")
	}
}
