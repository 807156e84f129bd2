//go:build !debug

package main

import (
	"errors"
	"log/slog"

	"github.com/careplus/careguide/internal/config"
)

// inspectEnabled gates the inspector out of production builds so callers
// can be compiled against a stable API without shipping the debug surface.
const inspectEnabled = false

func runInspect(*config.Config, *slog.Logger) error {
	return errors.New("inspect is not available in this build")
}
