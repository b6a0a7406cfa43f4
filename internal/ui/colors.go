package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/reelx/internal/models"
)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	accent lipgloss.Style
	muted  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		accent: NewBold(w),
		muted:  NewStyle(h),
	}
}

// PaletteFor returns the stylesheet for theme.
func PaletteFor(theme models.Theme) *Palette {
	if theme == models.ThemeDark {
		return NewPalette("#90CEA1", "#01B4E4", "#FF6B6B", "#F5C518", "#8A8A8A")
	}
	return NewPalette("#0D253F", "#01875F", "#C0392B", "#B7791F", "#626262")
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
