package inspector

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/careplus/careguide/internal/flags"
	"github.com/careplus/careguide/internal/flags/store"
)

func newTestInspector(t *testing.T) (*Model, *flags.Registry) {
	t.Helper()
	st := store.NewMemStore()
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := flags.NewWith(st, func(string) string { return "" }, logger)
	t.Cleanup(reg.Close)

	m := New(reg)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, reg
}

func keyPress(m *Model, key string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

func TestToggleAtCursor(t *testing.T) {
	t.Parallel()
	m, reg := newTestInspector(t)

	first := m.rows[0]
	before := first.Enabled
	keyPress(m, " ")

	if reg.IsEnabled(first.Key) == before {
		t.Fatalf("space should toggle %s", first.Key)
	}
	if m.rows[0].Source != flags.SourceOverride {
		t.Fatalf("toggle should resolve from an override, got %s", m.rows[0].Source)
	}
}

func TestPhaseToggleLeavesOtherPhasesAlone(t *testing.T) {
	t.Parallel()
	m, reg := newTestInspector(t)

	// Move the cursor to the first phase-2 flag.
	for m.rows[m.cursor].Phase != flags.PhaseChat {
		keyPress(m, "j")
	}
	keyPress(m, "p")

	for _, st := range reg.ByPhase(flags.PhaseChat) {
		if st.Source != flags.SourceOverride {
			t.Errorf("%s not overridden by phase toggle", st.Key)
		}
	}
	for _, st := range reg.ByPhase(flags.PhasePolish) {
		if st.Source == flags.SourceOverride {
			t.Errorf("%s outside the phase was overridden", st.Key)
		}
	}
}

func TestClearAll(t *testing.T) {
	t.Parallel()
	m, reg := newTestInspector(t)

	keyPress(m, " ") // create one override
	keyPress(m, "c")

	for _, st := range reg.All() {
		if st.Source == flags.SourceOverride {
			t.Errorf("%s still overridden after clear", st.Key)
		}
	}
	if !strings.Contains(m.statusMsg, "cleared") {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestCursorBounds(t *testing.T) {
	t.Parallel()
	m, _ := newTestInspector(t)

	keyPress(m, "k")
	if m.cursor != 0 {
		t.Fatal("cursor moved above the first row")
	}
	for i := 0; i < len(m.rows)+5; i++ {
		keyPress(m, "j")
	}
	if m.cursor != len(m.rows)-1 {
		t.Fatalf("cursor = %d, want %d", m.cursor, len(m.rows)-1)
	}
}

func TestViewListsEveryFlag(t *testing.T) {
	t.Parallel()
	m, _ := newTestInspector(t)

	view := m.View()
	for _, f := range flags.Catalog() {
		if !strings.Contains(view, f.Key) {
			t.Errorf("view missing %s", f.Key)
		}
	}
}

func TestLiveUpdateRefreshesRows(t *testing.T) {
	t.Parallel()
	m, reg := newTestInspector(t)

	st, _ := reg.Resolve(flags.DarkMode.Key)
	m.Update(flagChangedMsg{status: flags.Status{Flag: flags.DarkMode, Enabled: !st.Enabled, Source: flags.SourceOverride}})

	if !strings.Contains(m.statusMsg, flags.DarkMode.Key) {
		t.Errorf("status = %q, want mention of %s", m.statusMsg, flags.DarkMode.Key)
	}
}
