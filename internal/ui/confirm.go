package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModel asks a single yes/no question.
type ConfirmModel struct {
	prompt   string
	def      bool
	answer   bool
	answered bool
	keys     keyMap
	help     help.Model
}

// NewConfirmModel creates a question answered by def when the user just presses enter.
func NewConfirmModel(prompt string, def bool) ConfirmModel {
	return ConfirmModel{prompt: prompt, def: def, keys: newKeyMap(), help: help.New()}
}

func (m ConfirmModel) Init() tea.Cmd { return nil }

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.accept):
		m.answer, m.answered = true, true
	case key.Matches(km, m.keys.decline), key.Matches(km, m.keys.back), key.Matches(km, m.keys.quit):
		m.answer, m.answered = false, true
	case key.Matches(km, m.keys.submit):
		m.answer, m.answered = m.def, true
	default:
		return m, nil
	}
	return m, tea.Quit
}

func (m ConfirmModel) View() string {
	if m.answered {
		return fmt.Sprintf("%s %s\n", styles.Title(m.prompt), yesNo(m.answer))
	}
	hint := "[y/N]"
	if m.def {
		hint = "[Y/n]"
	}
	helpView := m.help.ShortHelpView(m.keys.promptHelp())
	return fmt.Sprintf("%s %s\n%s\n", styles.Title(m.prompt), hint, helpView)
}

// Answer reports the user's choice; false until answered.
func (m ConfirmModel) Answer() bool {
	return m.answered && m.answer
}

// Confirm runs a [ConfirmModel] over in and out and returns the answer.
func Confirm(ctx context.Context, in io.Reader, out io.Writer, prompt string, def bool) (bool, error) {
	p := tea.NewProgram(
		NewConfirmModel(prompt, def),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return final.(ConfirmModel).Answer(), nil
}
