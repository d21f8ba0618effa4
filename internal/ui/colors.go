package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/tasks"
)

const (
	colorTitle   = lipgloss.Color("#7D56F4")
	colorStashed = lipgloss.Color("#04B575")
	colorFailed  = lipgloss.Color("#FF0000")
	colorSkipped = lipgloss.Color("#FFA500")
	colorMuted   = lipgloss.Color("#626262")
)

var styles = newStashStyles()

// stashStyles holds one [lipgloss.Style] per kind of line a stash run prints.
type stashStyles struct {
	title   lipgloss.Style
	stashed lipgloss.Style
	failed  lipgloss.Style
	skipped lipgloss.Style
	muted   lipgloss.Style
}

func newStashStyles() stashStyles {
	return stashStyles{
		title:   lipgloss.NewStyle().Foreground(colorTitle).Bold(true).MarginBottom(1),
		stashed: lipgloss.NewStyle().Foreground(colorStashed).Bold(true),
		failed:  lipgloss.NewStyle().Foreground(colorFailed).Bold(true),
		skipped: lipgloss.NewStyle().Foreground(colorSkipped),
		muted:   lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
	}
}

func (s stashStyles) Title(text string) string   { return s.title.Render(text) }
func (s stashStyles) OK(text string) string      { return s.stashed.Render(text) }
func (s stashStyles) Error(text string) string   { return s.failed.Render(text) }
func (s stashStyles) Warning(text string) string { return s.skipped.Render(text) }
func (s stashStyles) Help(text string) string    { return s.muted.Render(text) }

// ForOutcome colors text by how a stash attempt ended. A missing file is shown as a skip since
// the download itself went through.
func (s stashStyles) ForOutcome(o models.StashOutcome, text string) string {
	switch o {
	case models.OutcomeDownloaded:
		return s.OK(text)
	case models.OutcomeAlreadyStashed, models.OutcomeFileNotFound:
		return s.Warning(text)
	default:
		return s.Error(text)
	}
}

// ForPhase colors a plain progress line. Phases without a color are returned unchanged.
func (s stashStyles) ForPhase(p tasks.Phase, text string) string {
	switch p {
	case tasks.StashSkip:
		return s.Warning(text)
	case tasks.StashBatch, tasks.StashPace:
		return s.Help(text)
	case tasks.StashDone:
		return s.OK(text)
	default:
		return text
	}
}
