package cmd

import (
	"github.com/apex/log"
	"github.com/blacktop/go-termview"
	tea "github.com/charmbracelet/bubbletea"
)

type redrawMsg struct{}

// viewer keeps the image on screen until the user quits. It has no view of
// its own; the image is drawn straight to the terminal or an X window.
type viewer struct {
	session *session
	term    termview.TerminalInfo
	shown   bool
	err     error
}

func newViewer(s *session) viewer {
	return viewer{session: s, term: termview.DetectTerminal()}
}

func (v viewer) Init() tea.Cmd {
	return func() tea.Msg { return redrawMsg{} }
}

func (v viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return v, tea.Quit
		case "t":
			if err := v.session.toggle(v.term); err != nil {
				log.WithError(err).Error("failed to toggle image")
			}
		case "r":
			if err := v.session.redraw(); err != nil {
				log.WithError(err).Error("failed to redraw image")
			}
		}
	case tea.WindowSizeMsg:
		if msg.Width == v.term.Cols && msg.Height == v.term.Rows && v.shown {
			return v, nil
		}
		v.term.Cols, v.term.Rows = msg.Width, msg.Height
		// the size sent at startup is not a resize; keep the cached copy
		if v.shown {
			v.session.forgetResize()
		}
		return v.show()
	case redrawMsg:
		if v.shown {
			return v, nil
		}
		return v.show()
	}
	return v, nil
}

func (v viewer) show() (tea.Model, tea.Cmd) {
	if err := v.session.show(v.term); err != nil {
		v.err = err
		return v, tea.Quit
	}
	v.shown = true
	return v, nil
}

func (v viewer) View() string {
	return ""
}
