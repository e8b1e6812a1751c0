// Package ui provides the terminal components CommitCoach talks to the user through.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Decision is the user's answer to a presented suggestion.
type Decision int

const (
	DecisionUse Decision = iota
	DecisionEdit
	DecisionRegenerate
	DecisionCancel
)

// String returns the string representation of a Decision.
func (d Decision) String() string {
	switch d {
	case DecisionUse:
		return "use"
	case DecisionEdit:
		return "edit"
	case DecisionRegenerate:
		return "regenerate"
	case DecisionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// ErrEditAborted is returned when the user leaves the edit form without submitting.
var ErrEditAborted = errors.New("edit aborted")

// Spinner provides loading animation functionality.
type Spinner interface {
	Start()
	Stop()
	UpdateText(text string)
}

// Manager defines the interface for UI operations.
type Manager interface {
	DisplayMessage(message string, warnings []string) error
	PromptDecision() (Decision, error)
	EditMessage(message string) (string, error)
	ShowSpinner(text string) Spinner
	ShowError(err error)
	ShowSuccess(message string)
	PromptConfirm(message string) (bool, error)
}

// Options configures a DefaultManager.
type Options struct {
	ColorEnabled bool
	SpinnerStyle string
	Out          io.Writer
}

// DefaultManager implements the Manager interface using charmbracelet libraries.
type DefaultManager struct {
	out          io.Writer
	spinnerStyle string
	styles       *styles
}

// styles holds the lipgloss styles for UI rendering.
type styles struct {
	title      lipgloss.Style
	subject    lipgloss.Style
	warning    lipgloss.Style
	success    lipgloss.Style
	errorStyle lipgloss.Style
	rule       lipgloss.Style
}

func newStyles(colorEnabled bool) *styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &styles{plain, plain, plain, plain, plain, plain}
	}

	return &styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		subject: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220")),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		errorStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		rule: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// NewDefaultManager creates a new DefaultManager.
func NewDefaultManager(opts Options) *DefaultManager {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &DefaultManager{
		out:          out,
		spinnerStyle: opts.SpinnerStyle,
		styles:       newStyles(opts.ColorEnabled),
	}
}

// DisplayMessage shows the suggestion and any advisory warnings.
func (m *DefaultManager) DisplayMessage(message string, warnings []string) error {
	rule := m.styles.rule.Render(strings.Repeat("-", 50))

	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, m.styles.title.Render("Suggested commit message"))
	fmt.Fprintln(m.out, rule)
	fmt.Fprintln(m.out, m.styles.subject.Render(message))
	fmt.Fprintln(m.out, rule)
	for _, w := range warnings {
		fmt.Fprintln(m.out, m.styles.warning.Render("warning: "+w))
	}
	fmt.Fprintln(m.out)

	return nil
}

// PromptDecision asks the user what to do with the suggestion.
func (m *DefaultManager) PromptDecision() (Decision, error) {
	p := tea.NewProgram(newDecisionModel(), tea.WithOutput(m.out))

	finalModel, err := p.Run()
	if err != nil {
		return DecisionCancel, err
	}

	return finalModel.(decisionModel).selected, nil
}

// decisionModel is the Bubble Tea model for the decision menu.
type decisionModel struct {
	choices  []decisionChoice
	cursor   int
	selected Decision
	done     bool
}

type decisionChoice struct {
	decision Decision
	label    string
	desc     string
}

func newDecisionModel() decisionModel {
	return decisionModel{
		choices: []decisionChoice{
			{DecisionUse, "Use", "Commit with this message"},
			{DecisionEdit, "Edit", "Change the message, then commit"},
			{DecisionRegenerate, "Regenerate", "Ask for a new suggestion"},
			{DecisionCancel, "Cancel", "Exit without committing"},
		},
		selected: DecisionCancel,
	}
}

func (m decisionModel) Init() tea.Cmd {
	return nil
}

func (m decisionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		return m.choose(DecisionCancel)
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter", " ":
		return m.choose(m.choices[m.cursor].decision)
	case "1", "u":
		return m.choose(DecisionUse)
	case "2", "e":
		return m.choose(DecisionEdit)
	case "3", "r":
		return m.choose(DecisionRegenerate)
	case "4", "c":
		return m.choose(DecisionCancel)
	}
	return m, nil
}

func (m decisionModel) choose(d Decision) (tea.Model, tea.Cmd) {
	m.selected = d
	m.done = true
	return m, tea.Quit
}

func (m decisionModel) View() string {
	if m.done {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	normalStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("What would you like to do?"))
	sb.WriteString("\n\n")

	for i, choice := range m.choices {
		cursor := "  "
		style := normalStyle
		if m.cursor == i {
			cursor = "> "
			style = selectedStyle
		}
		sb.WriteString(cursor)
		sb.WriteString(style.Render(fmt.Sprintf("%d. %s", i+1, choice.label)))
		sb.WriteString(descStyle.Render(" - " + choice.desc))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(descStyle.Render("up/down or j/k to move, enter to select, 1-4 or u/e/r/c quick select, q to cancel"))

	return sb.String()
}

// EditMessage opens a single line input seeded with message and returns
// what the user submitted, untrimmed.
func (m *DefaultManager) EditMessage(message string) (string, error) {
	edited := message

	err := huh.NewInput().
		Title("Edit commit message").
		Description("Enter to commit. Leave blank to keep the suggestion. Esc to abort.").
		Value(&edited).
		CharLimit(0).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrEditAborted
		}
		return "", fmt.Errorf("failed to edit message: %w", err)
	}

	return edited, nil
}

// ShowSpinner creates a spinner for loading states. It renders on stderr.
func (m *DefaultManager) ShowSpinner(text string) Spinner {
	return newBubbleSpinner(text, m.spinnerStyle, os.Stderr)
}

// ShowError displays an error message to the user.
func (m *DefaultManager) ShowError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(m.out, m.styles.errorStyle.Render("Error: "+err.Error()))
}

// ShowSuccess displays a success message to the user.
func (m *DefaultManager) ShowSuccess(message string) {
	fmt.Fprintln(m.out, m.styles.success.Render(message))
}

// PromptConfirm prompts the user for a yes/no confirmation using huh.
func (m *DefaultManager) PromptConfirm(message string) (bool, error) {
	confirmed := true
	err := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}

// spinnerStyles maps config names onto bubbles spinners.
var spinnerStyles = map[string]spinner.Spinner{
	"dots":    spinner.Dot,
	"minidot": spinner.MiniDot,
	"line":    spinner.Line,
	"pulse":   spinner.Pulse,
	"points":  spinner.Points,
}

// SpinnerFor returns the named spinner, or the dot spinner for unknown names.
func SpinnerFor(name string) spinner.Spinner {
	if s, ok := spinnerStyles[name]; ok {
		return s
	}
	return spinner.Dot
}

// bubbleSpinner implements Spinner using Bubble Tea.
type bubbleSpinner struct {
	out     io.Writer
	program *tea.Program
	model   spinnerModel
	done    chan struct{}
	mu      sync.Mutex
}

// spinnerModel is the Bubble Tea model for the spinner.
type spinnerModel struct {
	spinner  spinner.Model
	text     string
	quitting bool
}

// spinnerTextMsg updates the spinner text from outside.
type spinnerTextMsg struct {
	text string
}

// spinnerQuitMsg signals the spinner to quit.
type spinnerQuitMsg struct{}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTextMsg:
		m.text = msg.text
		return m, nil
	case spinnerQuitMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.text)
}

func newBubbleSpinner(text, style string, out io.Writer) *bubbleSpinner {
	s := spinner.New()
	s.Spinner = SpinnerFor(style)
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &bubbleSpinner{
		out:   out,
		model: spinnerModel{spinner: s, text: text},
	}
}

func (s *bubbleSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		return
	}
	s.program = tea.NewProgram(s.model, tea.WithOutput(s.out), tea.WithInput(nil))
	s.done = make(chan struct{})
	go func(p *tea.Program, done chan struct{}) {
		defer close(done)
		_, _ = p.Run()
	}(s.program, s.done)
}

// Stop ends the animation and waits for the terminal to be released.
func (s *bubbleSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program == nil {
		return
	}
	s.program.Send(spinnerQuitMsg{})
	<-s.done
	s.program = nil
}

func (s *bubbleSpinner) UpdateText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.model.text = text
	if s.program != nil {
		s.program.Send(spinnerTextMsg{text: text})
	}
}

// NonInteractiveManager implements Manager for --yes: every suggestion is used as is.
type NonInteractiveManager struct {
	out    io.Writer
	errOut io.Writer
}

// NewNonInteractiveManager creates a new NonInteractiveManager writing to out.
// A nil out means stdout.
func NewNonInteractiveManager(out io.Writer) *NonInteractiveManager {
	if out == nil {
		out = os.Stdout
	}
	return &NonInteractiveManager{out: out, errOut: os.Stderr}
}

// DisplayMessage prints the suggestion plainly.
func (m *NonInteractiveManager) DisplayMessage(message string, warnings []string) error {
	fmt.Fprintln(m.out, message)
	for _, w := range warnings {
		fmt.Fprintln(m.errOut, "warning: "+w)
	}
	return nil
}

// PromptDecision always returns DecisionUse.
func (m *NonInteractiveManager) PromptDecision() (Decision, error) {
	return DecisionUse, nil
}

// EditMessage returns the message unchanged.
func (m *NonInteractiveManager) EditMessage(message string) (string, error) {
	return message, nil
}

// ShowSpinner returns a no-op spinner.
func (m *NonInteractiveManager) ShowSpinner(text string) Spinner {
	return &noopSpinner{}
}

// ShowError displays an error message on stderr.
func (m *NonInteractiveManager) ShowError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(m.errOut, "Error: %s\n", err.Error())
}

// ShowSuccess displays a success message.
func (m *NonInteractiveManager) ShowSuccess(message string) {
	fmt.Fprintln(m.out, message)
}

// PromptConfirm always returns true.
func (m *NonInteractiveManager) PromptConfirm(message string) (bool, error) {
	return true, nil
}

// noopSpinner is a no-op implementation of Spinner.
type noopSpinner struct{}

func (s *noopSpinner) Start()            {}
func (s *noopSpinner) Stop()             {}
func (s *noopSpinner) UpdateText(string) {}
