package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) defaultTheme() models.Theme {
	return models.ParseTheme(r.config.UI.Theme)
}

// ThemeShow prints the stored theme, falling back to ui.theme from the config.
func (r *Runner) ThemeShow(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.store(); err != nil {
		return err
	}
	return r.writePlain("Theme: %s\n", r.prefs.Theme(r.defaultTheme()))
}

// ThemeToggle switches between light and dark.
func (r *Runner) ThemeToggle(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.store(); err != nil {
		return err
	}
	theme, err := r.prefs.ToggleTheme(r.defaultTheme())
	if err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return r.writePlain("✓ Theme: %s\n", theme)
}

// ThemeSet stores an explicit theme.
func (r *Runner) ThemeSet(ctx context.Context, cmd *cli.Command) error {
	name := strings.ToLower(strings.TrimSpace(cmd.StringArg("theme")))
	if name != string(models.ThemeLight) && name != string(models.ThemeDark) {
		return fmt.Errorf("%w: theme must be light or dark, got %q", shared.ErrInvalidArgument, name)
	}
	if _, err := r.store(); err != nil {
		return err
	}

	theme := models.Theme(name)
	if err := r.prefs.SetTheme(theme); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return r.writePlain("✓ Theme: %s\n", theme)
}
