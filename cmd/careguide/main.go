package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/careplus/careguide/internal/config"
	"github.com/careplus/careguide/internal/flags"
	"github.com/careplus/careguide/internal/flags/store"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
)

func main() {
	flag.Parse()

	if *versionFlag || *shortVersion {
		fmt.Printf("careguide version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *debugFlag {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	switch args[0] {
	case "flags":
		err = runFlags(cfg, logger, args[1:])
	case "chat":
		err = runChat(cfg, logger)
	case "inspect":
		if !inspectEnabled {
			fmt.Fprintf(os.Stderr, "careguide: unknown command %q\n", args[0])
			os.Exit(2)
		}
		err = runInspect(cfg, logger)
	case "version":
		fmt.Printf("careguide version %s\n", effectiveVersion(Version))
	default:
		fmt.Fprintf(os.Stderr, "careguide: unknown command %q\n", args[0])
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// openRegistry builds the flag registry over the configured store backend.
// The returned closer shuts down the store watcher.
func openRegistry(cfg *config.Config, logger *slog.Logger) (*flags.Registry, func(), error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Storage.Backend {
	case "sqlite":
		path := cfg.Storage.Path
		if path == "" {
			path = filepath.Join(config.DataDir(), "careguide.db")
		}
		st, err = store.NewSQLiteStore(path)
	default:
		path := cfg.Storage.Path
		if path == "" {
			path = filepath.Join(config.DataDir(), "overrides.json")
		}
		st, err = store.NewFileStore(path)
	}
	if err != nil {
		return nil, nil, err
	}

	reg := flags.NewWith(st, os.Getenv, logger)
	seedOverrides(reg, st, cfg, logger)

	closer := func() {
		reg.Close()
		_ = st.Close()
	}
	return reg, closer, nil
}

// seedOverrides applies config-declared overrides on first run only; once
// any override exists the store is the source of truth.
func seedOverrides(reg *flags.Registry, st store.Store, cfg *config.Config, logger *slog.Logger) {
	if len(cfg.Flags.Seed) == 0 {
		return
	}
	keys, err := st.Keys(flags.StorePrefix)
	if err != nil || len(keys) > 0 {
		return
	}
	for key, enabled := range cfg.Flags.Seed {
		if err := reg.SetOverride(key, enabled); err != nil {
			logger.Warn("seed override failed", "key", key, "err", err)
		}
	}
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision != "" {
		ver := "devel+" + revision
		if len(ver) > 20 {
			ver = ver[:20]
		}
		if dirty {
			ver += "+dirty"
		}
		return ver
	}

	return "devel"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: careguide [options] <command>\n\n")
		fmt.Fprintf(os.Stderr, "Companion toolchain for the CarePlus apps.\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  flags    list and flip feature flags\n")
		fmt.Fprintf(os.Stderr, "  chat     talk to the CareGuide agent\n")
		fmt.Fprintf(os.Stderr, "  version  print version\n")
		if inspectEnabled {
			fmt.Fprintf(os.Stderr, "  inspect  interactive flag inspector\n")
		}
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
}
