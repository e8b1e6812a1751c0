package ai

import "strings"

// Guidelines is the fixed instruction block every composed prompt carries.
const Guidelines = `GUIDELINES:
- Single-line subject <= 72 chars
- Use imperative mood
- Be specific about the change and intent
- No code blocks, return plain text only`

// Delimiters around the diff in a composed prompt.
const (
	DiffStart = "DIFF START"
	DiffEnd   = "DIFF END"
)

const genericHint = "Be clear and concise."

var styleHints = map[Style]string{
	StyleConventional: "Use Conventional Commits. Start with feat/fix/docs/refactor/etc and a short scope.",
	StyleCasual:       "Friendly but clear, ~1 short sentence.",
	StyleFormal:       "Professional tone, concise summary first.",
}

// StyleHint returns the tone instruction for style, or the generic hint
// for anything unrecognised.
func StyleHint(style Style) string {
	if hint, ok := styleHints[style]; ok {
		return hint
	}
	return genericHint
}

// Compose builds the user prompt for style and diff. It is deterministic and
// embeds diff verbatim between DiffStart and DiffEnd.
func Compose(style Style, diff string) string {
	var sb strings.Builder
	sb.Grow(len(diff) + 512)

	sb.WriteString("You are CommitCoach, an expert at writing excellent Git commit messages.\n\n")
	sb.WriteString("STYLE: ")
	sb.WriteString(string(style))
	sb.WriteString("\n")
	sb.WriteString(Guidelines)
	sb.WriteString("\n\n")
	sb.WriteString(StyleHint(style))
	sb.WriteString("\n\n")
	sb.WriteString("Generate a commit message for the staged diff below.\n\n")
	sb.WriteString(DiffStart)
	sb.WriteString("\n")
	sb.WriteString(diff)
	sb.WriteString("\n")
	sb.WriteString(DiffEnd)

	return sb.String()
}

// SystemPrompt returns the system instruction sent alongside a composed
// prompt. Only the conventional style asks for Conventional Commit syntax.
func SystemPrompt(style Style) string {
	if style == StyleConventional {
		return "You write one-line Conventional Commit messages (<=72 chars)."
	}
	return "You write one-line commit messages (<=72 chars)."
}
