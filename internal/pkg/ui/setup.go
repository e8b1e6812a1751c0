package ui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/commitcoach/commitcoach/internal/pkg/ai"
	"github.com/commitcoach/commitcoach/internal/pkg/config"
	"github.com/commitcoach/commitcoach/internal/pkg/security"
)

// SetupAnswers holds what the setup wizard collects.
type SetupAnswers struct {
	Style  string
	Server string
	// Acknowledged is set once the user confirmed the first-use notice.
	Acknowledged bool
}

// ValidateServerURL accepts absolute http(s) URLs only.
func ValidateServerURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server must be an http(s) URL")
	}
	return nil
}

// ApplySetup writes answers into the configuration file.
func ApplySetup(cfgMgr *config.ViperManager, answers SetupAnswers) error {
	style, err := ai.ParseStyle(answers.Style)
	if err != nil {
		return err
	}
	if err := ValidateServerURL(answers.Server); err != nil {
		return err
	}

	if err := cfgMgr.Set("commit.style", string(style)); err != nil {
		return fmt.Errorf("failed to set style: %w", err)
	}
	if err := cfgMgr.Set("server.url", strings.TrimSpace(answers.Server)); err != nil {
		return fmt.Errorf("failed to set server: %w", err)
	}

	if answers.Acknowledged {
		if err := cfgMgr.AcknowledgeSecurityWarning(); err != nil {
			return fmt.Errorf("failed to record acknowledgment: %w", err)
		}
	}

	return nil
}

// ensureConfigFile creates the configuration file unless it already exists.
func ensureConfigFile(cfgMgr *config.ViperManager) error {
	if cfgMgr.ConfigExists() {
		return nil
	}
	return cfgMgr.Init()
}

// RunInteractiveSetup asks for a default style and proxy server using huh.
func RunInteractiveSetup(cfgMgr *config.ViperManager) error {
	fmt.Println("Let's set up CommitCoach!")
	fmt.Println()

	if err := ensureConfigFile(cfgMgr); err != nil {
		return err
	}

	answers := SetupAnswers{
		Style:  string(ai.DefaultStyle),
		Server: config.DefaultServer,
	}

	options := make([]huh.Option[string], 0, len(ai.Styles))
	for _, s := range ai.Styles {
		options = append(options, huh.NewOption(string(s), string(s)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default message style").
				Options(options...).
				Value(&answers.Style),
			huh.NewInput().
				Title("Proxy server").
				Description("Your staged diff is sent here").
				Value(&answers.Server).
				Validate(ValidateServerURL),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	fmt.Print(security.FirstUseWarning(strings.TrimSpace(answers.Server)))
	err := huh.NewConfirm().
		Title("Do you understand and wish to continue?").
		Value(&answers.Acknowledged).
		Run()
	if err != nil {
		return err
	}
	if answers.Acknowledged {
		fmt.Println(security.FirstUseAcknowledgment)
	}

	if err := ApplySetup(cfgMgr, answers); err != nil {
		return err
	}

	fmt.Printf("\nConfiguration saved to %s\n", cfgMgr.GetConfigPath())
	fmt.Println("Setup complete! Stage some changes and run commitcoach.")
	fmt.Println()

	return nil
}
