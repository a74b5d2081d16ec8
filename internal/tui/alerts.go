package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// alertDisplayFor is how long a banner stays visible before expiring.
const alertDisplayFor = 5 * time.Second

// alertModel is the transient banner for fetch failures and other
// operator-facing notices. It implements engine.Notifier, so the
// refresh coordinator can surface errors without knowing about the TUI.
type alertModel struct {
	text  string
	id    int  // bumped per Notify; stale expiries are ignored
	armed bool // true while an expiry tick has not been scheduled yet
}

// Notify implements engine.Notifier. The banner text is replaced and
// the expiry clock restarts.
func (a *alertModel) Notify(text string) {
	a.text = text
	a.id++
	a.armed = true
}

// expireCmd returns a command clearing this alert after alertDisplayFor,
// or nil when no new alert is pending. The event loop calls it after any
// update that may have notified.
func (a *alertModel) expireCmd() tea.Cmd {
	if !a.armed {
		return nil
	}
	a.armed = false
	id := a.id
	return tea.Tick(alertDisplayFor, func(time.Time) tea.Msg {
		return AlertExpireMsg{ID: id}
	})
}

// expire clears the banner when id still identifies the displayed
// alert. A newer Notify keeps its banner.
func (a *alertModel) expire(id int) {
	if id == a.id {
		a.text = ""
	}
}

// view renders the banner line, or "" when inactive.
func (a *alertModel) view(width int) string {
	if a.text == "" {
		return ""
	}
	s := StyleError
	if width > 0 {
		s = s.MaxWidth(width)
	}
	return s.Render("⚠ " + sanitize(a.text))
}
