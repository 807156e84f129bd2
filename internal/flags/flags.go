package flags

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/careplus/careguide/internal/flags/store"
)

const (
	// StorePrefix namespaces override entries in the shared store.
	StorePrefix = "careguide.flag."
	// EnvPrefix namespaces environment overrides, e.g. CAREGUIDE_FLAG_DARK_MODE.
	EnvPrefix = "CAREGUIDE_FLAG_"
)

// Source identifies which tier produced a flag's resolved value.
type Source int

const (
	SourceDefault Source = iota
	SourceEnvironment
	SourceOverride
)

func (s Source) String() string {
	switch s {
	case SourceOverride:
		return "override"
	case SourceEnvironment:
		return "environment"
	default:
		return "default"
	}
}

// Status is a flag's resolved state, recomputed on every query.
type Status struct {
	Flag
	Enabled bool
	Source  Source
}

// Registry resolves flags against an override store, the environment, and
// the compiled-in catalog. Overrides take strict precedence over the
// environment, which takes precedence over defaults. Construct one per
// process; tests construct isolated instances over a MemStore.
type Registry struct {
	store store.Store
	env   func(string) string
	log   *slog.Logger

	mu       sync.Mutex
	subs     map[int]func(Status)
	nextSub  int
	lastSeen map[string]bool
	watching bool
	stop     chan struct{}
}

// New creates a Registry reading environment overrides from os.Getenv and
// logging through slog.Default.
func New(st store.Store) *Registry {
	return NewWith(st, os.Getenv, slog.Default())
}

// NewWith creates a Registry with an explicit environment lookup and logger.
func NewWith(st store.Store, env func(string) string, logger *slog.Logger) *Registry {
	if env == nil {
		env = os.Getenv
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store: st,
		env:   env,
		log:   logger,
		subs:  make(map[int]func(Status)),
		stop:  make(chan struct{}),
	}
}

// EnvKey returns the environment variable that overrides the given flag key.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// IsEnabled reports whether the named flag is active. Unknown keys resolve
// to false.
func (r *Registry) IsEnabled(key string) bool {
	st, ok := r.Resolve(key)
	if !ok {
		r.log.Warn("unknown feature flag", "key", key)
		return false
	}
	return st.Enabled
}

// Resolve returns the flag's resolved status, or ok=false for unknown keys.
func (r *Registry) Resolve(key string) (Status, bool) {
	f, ok := flagsByKey[key]
	if !ok {
		return Status{}, false
	}
	return r.resolve(f), true
}

// resolve applies the three-tier precedence for a known flag. A store read
// failure falls through to the environment tier so resolution never errors.
func (r *Registry) resolve(f Flag) Status {
	v, ok, err := r.store.Get(StorePrefix + f.Key)
	if err != nil {
		r.log.Warn("override store read failed", "key", f.Key, "err", err)
	} else if ok {
		// Anything but the literal "true" disables, including malformed values.
		return Status{Flag: f, Enabled: v == "true", Source: SourceOverride}
	}

	if v := r.env(EnvKey(f.Key)); v != "" {
		return Status{Flag: f, Enabled: v == "true" || v == "1", Source: SourceEnvironment}
	}

	return Status{Flag: f, Enabled: f.Default, Source: SourceDefault}
}

// All returns the resolved status of every flag, in catalog order.
func (r *Registry) All() []Status {
	out := make([]Status, 0, len(catalog))
	for _, f := range catalog {
		out = append(out, r.resolve(f))
	}
	return out
}

// ByPhase returns the resolved status of every flag in the given phase.
// A phase with no flags yields an empty slice.
func (r *Registry) ByPhase(phase int) []Status {
	out := []Status{}
	for _, f := range catalog {
		if f.Phase == phase {
			out = append(out, r.resolve(f))
		}
	}
	return out
}

// SetOverride persists an override for the flag. Unknown keys are warned
// and ignored.
func (r *Registry) SetOverride(key string, enabled bool) error {
	if !IsKnownFlag(key) {
		r.log.Warn("unknown feature flag, override ignored", "key", key)
		return nil
	}
	value := "false"
	if enabled {
		value = "true"
	}
	return r.store.Set(StorePrefix+key, value)
}

// Toggle flips the flag's current resolved value and persists the result
// as an override.
func (r *Registry) Toggle(key string) error {
	st, ok := r.Resolve(key)
	if !ok {
		r.log.Warn("unknown feature flag, toggle ignored", "key", key)
		return nil
	}
	return r.SetOverride(key, !st.Enabled)
}

// ClearOverride removes the flag's override, reverting it to the
// environment or default tier.
func (r *Registry) ClearOverride(key string) error {
	if !IsKnownFlag(key) {
		r.log.Warn("unknown feature flag, clear ignored", "key", key)
		return nil
	}
	return r.store.Delete(StorePrefix + key)
}

// ClearOverrides removes every known flag's override entry.
func (r *Registry) ClearOverrides() error {
	for _, f := range catalog {
		if err := r.store.Delete(StorePrefix + f.Key); err != nil {
			return err
		}
	}
	return nil
}

// SetPhaseOverride applies SetOverride to every flag in the phase. Flags
// outside the phase are unaffected.
func (r *Registry) SetPhaseOverride(phase int, enabled bool) error {
	for _, f := range catalog {
		if f.Phase != phase {
			continue
		}
		if err := r.SetOverride(f.Key, enabled); err != nil {
			return err
		}
	}
	return nil
}
