package cli

import "github.com/charmbracelet/bubbles/key"

// companionKeys are the companion's bindings. y/n/d only act while a
// reminder prompt or the quit confirmation is showing.
type companionKeys struct {
	Begin         key.Binding
	Break         key.Binding
	Procrastinate key.Binding
	Resume        key.Binding
	Burnout       key.Binding
	End           key.Binding
	Yes           key.Binding
	No            key.Binding
	Dismiss       key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func newCompanionKeys() companionKeys {
	return companionKeys{
		Begin:         key.NewBinding(key.WithKeys("w", "s"), key.WithHelp("w", "work")),
		Break:         key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "break")),
		Procrastinate: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "procrastinating")),
		Resume:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
		Burnout:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "burnt out")),
		End:           key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end session")),
		Yes:           key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		No:            key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		Dismiss:       key.NewBinding(key.WithKeys("d", "esc"), key.WithHelp("d", "dismiss")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k companionKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Begin, k.Break, k.Procrastinate, k.Resume, k.End, k.Yes, k.No, k.Dismiss, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k companionKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Begin, k.End},
		{k.Break, k.Procrastinate, k.Resume, k.Burnout},
		{k.Yes, k.No, k.Dismiss},
		{k.Help, k.Quit},
	}
}
