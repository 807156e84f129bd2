// Package inspector is the interactive flag inspection screen available in
// debug builds. It shows every flag's resolved state and lets operators
// flip overrides, with live updates when another process writes the store.
package inspector

import (
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/careplus/careguide/internal/flags"
)

// flagChangedMsg carries a live update from the registry subscription.
type flagChangedMsg struct {
	status flags.Status
}

// Model is the bubbletea model for the inspector.
type Model struct {
	reg    *flags.Registry
	rows   []flags.Status
	cursor int

	width  int
	height int

	statusMsg string
	events    chan flags.Status
	unsub     func()
}

// New creates an inspector over the registry.
func New(reg *flags.Registry) *Model {
	m := &Model{
		reg:    reg,
		rows:   reg.All(),
		events: make(chan flags.Status, 32),
	}
	m.unsub = reg.Subscribe(func(st flags.Status) {
		select {
		case m.events <- st:
		default: // UI is behind; the refresh re-reads everything anyway
		}
	})
	return m
}

// Init starts listening for live flag changes.
func (m *Model) Init() tea.Cmd {
	return m.listen()
}

func (m *Model) listen() tea.Cmd {
	ch := m.events
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return flagChangedMsg{status: st}
	}
}

// Update handles tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case flagChangedMsg:
		m.rows = m.reg.All()
		m.statusMsg = fmt.Sprintf("%s → %v (%s)", msg.status.Key, msg.status.Enabled, msg.status.Source)
		return m, m.listen()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		if m.unsub != nil {
			m.unsub()
		}
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case " ", "enter":
		row := m.rows[m.cursor]
		if err := m.reg.Toggle(row.Key); err != nil {
			m.statusMsg = err.Error()
			break
		}
		m.rows = m.reg.All()
		m.statusMsg = fmt.Sprintf("toggled %s", row.Key)

	case "p":
		// Flip the whole phase to the opposite of the cursor flag.
		row := m.rows[m.cursor]
		target := !row.Enabled
		if err := m.reg.SetPhaseOverride(row.Phase, target); err != nil {
			m.statusMsg = err.Error()
			break
		}
		m.rows = m.reg.All()
		m.statusMsg = fmt.Sprintf("phase %d → %v", row.Phase, target)

	case "c":
		if err := m.reg.ClearOverrides(); err != nil {
			m.statusMsg = err.Error()
			break
		}
		m.rows = m.reg.All()
		m.statusMsg = "all overrides cleared"

	case "y":
		row := m.rows[m.cursor]
		env := flags.EnvKey(row.Key)
		if err := clipboard.WriteAll(env); err != nil {
			m.statusMsg = fmt.Sprintf("clipboard: %v", err)
			break
		}
		m.statusMsg = fmt.Sprintf("copied %s", env)
	}
	return m, nil
}
