package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/careplus/careguide/internal/config"
	"github.com/careplus/careguide/internal/flags"
)

// runFlags dispatches the `careguide flags` subcommands.
func runFlags(cfg *config.Config, logger *slog.Logger, args []string) error {
	reg, closer, err := openRegistry(cfg, logger)
	if err != nil {
		return err
	}
	defer closer()

	if len(args) == 0 {
		return listFlags(reg, -1, false)
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("flags list", flag.ContinueOnError)
		phase := fs.Int("phase", -1, "only show flags in this rollout phase")
		asJSON := fs.Bool("json", false, "emit JSON")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return listFlags(reg, *phase, *asJSON)

	case "enable", "disable":
		if len(args) < 2 {
			return fmt.Errorf("usage: careguide flags %s <key>", args[0])
		}
		return setFlag(reg, args[1], args[0] == "enable")

	case "toggle":
		if len(args) < 2 {
			return fmt.Errorf("usage: careguide flags toggle <key>")
		}
		if !flags.IsKnownFlag(args[1]) {
			return fmt.Errorf("unknown flag %q", args[1])
		}
		if err := reg.Toggle(args[1]); err != nil {
			return err
		}
		return printFlag(reg, args[1])

	case "clear":
		if len(args) >= 2 {
			if !flags.IsKnownFlag(args[1]) {
				return fmt.Errorf("unknown flag %q", args[1])
			}
			if err := reg.ClearOverride(args[1]); err != nil {
				return err
			}
			return printFlag(reg, args[1])
		}
		if err := reg.ClearOverrides(); err != nil {
			return err
		}
		fmt.Println("all overrides cleared")
		return nil

	case "phase":
		if len(args) < 3 {
			return fmt.Errorf("usage: careguide flags phase <n> on|off")
		}
		phase, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("phase must be a number: %w", err)
		}
		var enabled bool
		switch args[2] {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			return fmt.Errorf("usage: careguide flags phase <n> on|off")
		}
		if err := reg.SetPhaseOverride(phase, enabled); err != nil {
			return err
		}
		return listFlags(reg, phase, false)

	default:
		return fmt.Errorf("unknown flags subcommand %q", args[0])
	}
}

func setFlag(reg *flags.Registry, key string, enabled bool) error {
	if !flags.IsKnownFlag(key) {
		return fmt.Errorf("unknown flag %q", key)
	}
	if err := reg.SetOverride(key, enabled); err != nil {
		return err
	}
	return printFlag(reg, key)
}

func printFlag(reg *flags.Registry, key string) error {
	st, ok := reg.Resolve(key)
	if !ok {
		return fmt.Errorf("unknown flag %q", key)
	}
	fmt.Printf("%s = %v (%s)\n", st.Key, st.Enabled, st.Source)
	return nil
}

// statusJSON is the JSON shape for `flags list -json`.
type statusJSON struct {
	Key         string `json:"key"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
	Phase       int    `json:"phase"`
	Source      string `json:"source"`
}

func listFlags(reg *flags.Registry, phase int, asJSON bool) error {
	var rows []flags.Status
	if phase >= 0 {
		rows = reg.ByPhase(phase)
	} else {
		rows = reg.All()
	}

	if asJSON {
		out := make([]statusJSON, 0, len(rows))
		for _, st := range rows {
			out = append(out, statusJSON{
				Key:         st.Key,
				Enabled:     st.Enabled,
				Description: st.Description,
				Phase:       st.Phase,
				Source:      st.Source.String(),
			})
		}
		raw, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		return writeJSON(string(raw))
	}

	keyWidth := 0
	for _, st := range rows {
		if w := runewidth.StringWidth(st.Key); w > keyWidth {
			keyWidth = w
		}
	}
	for _, st := range rows {
		state := "off"
		if st.Enabled {
			state = "on"
		}
		fmt.Printf("%s  P%d  %-3s  %-11s  %s\n",
			runewidth.FillRight(st.Key, keyWidth),
			st.Phase,
			state,
			st.Source,
			st.Description,
		)
	}
	return nil
}

// writeJSON syntax-highlights when stdout is a terminal and passes plain
// bytes through otherwise, so pipes stay clean.
func writeJSON(raw string) error {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if err := quick.Highlight(os.Stdout, raw, "json", "terminal256", "monokai"); err == nil {
			fmt.Println()
			return nil
		}
	}
	_, err := fmt.Println(strings.TrimRight(raw, "\n"))
	return err
}
