//go:build debug

package main

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/careplus/careguide/internal/config"
	"github.com/careplus/careguide/internal/inspector"
)

// Debug builds ship the interactive flag inspector. Production builds
// compile inspect_off.go instead and the command does not exist.
const inspectEnabled = true

func runInspect(cfg *config.Config, logger *slog.Logger) error {
	reg, closer, err := openRegistry(cfg, logger)
	if err != nil {
		return err
	}
	defer closer()

	p := tea.NewProgram(inspector.New(reg), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
