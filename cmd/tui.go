package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/desertthunder/reelx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive movie browser.
//
// Without a catalog API key only the favorites view is available.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger(shared.ExpandPath(cmd.String("log-file")))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	// Components built below keep fileLogger, so the file stays open until the runner closes.
	r.closeOnExit(logFile)
	prev := r.logger
	r.SetLogger(fileLogger)
	defer r.SetLogger(prev)

	rec, err := r.favorites(ctx)
	if err != nil {
		return err
	}

	catalog, err := r.movies()
	if err != nil {
		r.logger.Warn("catalog unavailable, showing favorites only", "err", err)
		catalog = nil
	}

	var themes ui.ThemeStore
	theme := r.defaultTheme()
	if r.prefs != nil {
		themes = r.prefs
		theme = r.prefs.Theme(theme)
	}

	model := ui.NewModel(ctx, catalog, rec, themes, theme)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
