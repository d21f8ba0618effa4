package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the [key.Binding] set for each screen of a stash session. List navigation is left
// to the bubbles list defaults.
type keyMap struct {
	stash   key.Binding
	accept  key.Binding
	decline key.Binding
	submit  key.Binding // enter on a prompt takes its default answer
	back    key.Binding
	again   key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		stash:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "stash playlist")),
		accept:  key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "start stashing")),
		decline: key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "cancel")),
		submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "default")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		again:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "pick another playlist")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) pickHelp() []key.Binding    { return []key.Binding{k.stash, k.quit} }
func (k keyMap) confirmHelp() []key.Binding { return []key.Binding{k.accept, k.decline, k.quit} }
func (k keyMap) promptHelp() []key.Binding  { return []key.Binding{k.accept, k.decline, k.submit} }
func (k keyMap) runningHelp() []key.Binding { return []key.Binding{k.quit} }
func (k keyMap) resultHelp() []key.Binding  { return []key.Binding{k.again, k.quit} }
