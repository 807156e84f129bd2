package flags

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/careplus/careguide/internal/flags/store"
)

// newTestRegistry builds an isolated registry over a MemStore with a
// controllable environment.
func newTestRegistry(t *testing.T, env map[string]string) (*Registry, *store.MemStore) {
	t.Helper()
	st := store.NewMemStore()
	t.Cleanup(func() { _ = st.Close() })

	lookup := func(key string) string { return env[key] }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewWith(st, lookup, logger)
	t.Cleanup(r.Close)
	return r, st
}

func TestIsEnabled_Default(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, nil)

	if !r.IsEnabled(DSButtons.Key) {
		t.Errorf("%s defaults to enabled", DSButtons.Key)
	}
	if r.IsEnabled(DarkMode.Key) {
		t.Errorf("%s defaults to disabled", DarkMode.Key)
	}
}

func TestIsEnabled_UnknownKey(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, nil)

	if r.IsEnabled("unknown_flag") {
		t.Error("unknown flags must resolve to false")
	}
	if _, ok := r.Resolve("unknown_flag"); ok {
		t.Error("Resolve must report unknown keys")
	}
}

func TestIsEnabled_EnvironmentBeatsDefault(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, map[string]string{
		"CAREGUIDE_FLAG_DARK_MODE":  "true",
		"CAREGUIDE_FLAG_DS_BUTTONS": "false",
	})

	if !r.IsEnabled(DarkMode.Key) {
		t.Error("environment value should enable dark_mode over its default")
	}
	if r.IsEnabled(DSButtons.Key) {
		t.Error("environment value should disable ds_buttons over its default")
	}

	st, _ := r.Resolve(DarkMode.Key)
	if st.Source != SourceEnvironment {
		t.Errorf("source = %s, want environment", st.Source)
	}
}

func TestIsEnabled_OverrideBeatsEnvironment(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, map[string]string{
		"CAREGUIDE_FLAG_DARK_MODE": "true",
	})

	if err := r.SetOverride(DarkMode.Key, false); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}

	if r.IsEnabled(DarkMode.Key) {
		t.Error("override should beat environment")
	}
	st, _ := r.Resolve(DarkMode.Key)
	if st.Source != SourceOverride {
		t.Errorf("source = %s, want override", st.Source)
	}
}

func TestIsEnabled_MalformedOverrideDisables(t *testing.T) {
	t.Parallel()
	r, st := newTestRegistry(t, map[string]string{
		"CAREGUIDE_FLAG_DARK_MODE": "true",
	})

	// A present-but-unparseable override still wins the tier and disables.
	_ = st.Set(StorePrefix+DarkMode.Key, "yes")

	status, _ := r.Resolve(DarkMode.Key)
	if status.Enabled {
		t.Error("malformed override must parse as false")
	}
	if status.Source != SourceOverride {
		t.Errorf("source = %s, want override", status.Source)
	}
}

// failingStore errors on every read to exercise the fall-through contract.
type failingStore struct{ *store.MemStore }

func (f failingStore) Get(string) (string, bool, error) {
	return "", false, errors.New("backend unavailable")
}

func TestIsEnabled_StoreFailureFallsThrough(t *testing.T) {
	t.Parallel()
	inner := store.NewMemStore()
	defer inner.Close()

	lookup := func(key string) string {
		if key == "CAREGUIDE_FLAG_DARK_MODE" {
			return "true"
		}
		return ""
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewWith(failingStore{inner}, lookup, logger)
	defer r.Close()

	if !r.IsEnabled(DarkMode.Key) {
		t.Error("store failure should fall through to the environment tier")
	}
	if !r.IsEnabled(DSButtons.Key) {
		t.Error("store failure should fall through to the default tier")
	}
}

func TestToggle_RoundTrip(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, nil)

	_ = r.SetOverride(QuizV2.Key, true)
	if !r.IsEnabled(QuizV2.Key) {
		t.Fatal("override true not observed")
	}
	_ = r.SetOverride(QuizV2.Key, false)
	if r.IsEnabled(QuizV2.Key) {
		t.Fatal("override false not observed")
	}
	_ = r.Toggle(QuizV2.Key)
	if !r.IsEnabled(QuizV2.Key) {
		t.Fatal("toggle should flip from prior state")
	}
}

func TestSetOverride_UnknownKeyIsNoOp(t *testing.T) {
	t.Parallel()
	r, st := newTestRegistry(t, nil)

	if err := r.SetOverride("unknown_flag", true); err != nil {
		t.Fatalf("SetOverride on unknown key should not error, got %v", err)
	}
	if keys, _ := st.Keys(StorePrefix); len(keys) != 0 {
		t.Fatalf("unknown key wrote to the store: %v", keys)
	}
	if err := r.Toggle("unknown_flag"); err != nil {
		t.Fatalf("Toggle on unknown key should not error, got %v", err)
	}
}

func TestAll_CatalogOrderAndSources(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, nil)

	_ = r.SetOverride(DarkMode.Key, true)

	all := r.All()
	if len(all) != len(Catalog()) {
		t.Fatalf("All returned %d statuses, want %d", len(all), len(Catalog()))
	}
	for i, st := range all {
		if st.Key != Catalog()[i].Key {
			t.Fatalf("All order diverges from catalog at %d: %s", i, st.Key)
		}
		want := SourceDefault
		if st.Key == DarkMode.Key {
			want = SourceOverride
		}
		if st.Source != want {
			t.Errorf("%s source = %s, want %s", st.Key, st.Source, want)
		}
	}
}

func TestClearOverrides(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, map[string]string{
		"CAREGUIDE_FLAG_DARK_MODE": "true",
	})

	_ = r.SetOverride(DarkMode.Key, false)
	_ = r.SetOverride(QuizV2.Key, true)

	if err := r.ClearOverrides(); err != nil {
		t.Fatalf("ClearOverrides: %v", err)
	}

	for _, st := range r.All() {
		if st.Source == SourceOverride {
			t.Errorf("%s still resolves from an override after clear", st.Key)
		}
	}
	// dark_mode reverts to its environment value, quiz_v2 to its default.
	if st, _ := r.Resolve(DarkMode.Key); st.Source != SourceEnvironment || !st.Enabled {
		t.Errorf("dark_mode = %v/%s, want true/environment", st.Enabled, st.Source)
	}
	if st, _ := r.Resolve(QuizV2.Key); st.Source != SourceDefault || st.Enabled {
		t.Errorf("quiz_v2 = %v/%s, want false/default", st.Enabled, st.Source)
	}
}

func TestClearOverride_SingleFlag(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, nil)

	_ = r.SetOverride(DarkMode.Key, true)
	_ = r.SetOverride(QuizV2.Key, true)

	if err := r.ClearOverride(DarkMode.Key); err != nil {
		t.Fatalf("ClearOverride: %v", err)
	}

	if st, _ := r.Resolve(DarkMode.Key); st.Source != SourceDefault {
		t.Errorf("dark_mode source = %s, want default", st.Source)
	}
	if st, _ := r.Resolve(QuizV2.Key); st.Source != SourceOverride {
		t.Errorf("quiz_v2 override should be untouched, got %s", st.Source)
	}
}

func TestByPhase(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, nil)

	chat := r.ByPhase(PhaseChat)
	if len(chat) != 3 {
		t.Fatalf("phase %d has %d flags, want 3", PhaseChat, len(chat))
	}
	for _, st := range chat {
		if st.Phase != PhaseChat {
			t.Errorf("%s leaked into phase %d listing", st.Key, PhaseChat)
		}
	}

	if got := r.ByPhase(42); len(got) != 0 {
		t.Fatalf("unknown phase yielded %d flags, want 0", len(got))
	}
}

func TestSetPhaseOverride(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, nil)

	if err := r.SetPhaseOverride(PhaseChat, true); err != nil {
		t.Fatalf("SetPhaseOverride: %v", err)
	}

	for _, st := range r.ByPhase(PhaseChat) {
		if !st.Enabled || st.Source != SourceOverride {
			t.Errorf("%s = %v/%s, want true/override", st.Key, st.Enabled, st.Source)
		}
	}
	// Flags outside the phase are unaffected.
	if st, _ := r.Resolve(DarkMode.Key); st.Source != SourceDefault {
		t.Errorf("dark_mode source = %s, want default", st.Source)
	}
}

func TestRolloutScenario(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, nil)

	// ds_buttons: defaultEnabled=true, phase 1. No override or env set.
	if !r.IsEnabled(DSButtons.Key) {
		t.Fatal("ds_buttons should start enabled")
	}
	st, _ := r.Resolve(DSButtons.Key)
	if st.Source != SourceDefault {
		t.Fatalf("source = %s, want default", st.Source)
	}

	_ = r.SetOverride(DSButtons.Key, false)
	if r.IsEnabled(DSButtons.Key) {
		t.Fatal("override false not applied")
	}
	st, _ = r.Resolve(DSButtons.Key)
	if st.Source != SourceOverride {
		t.Fatalf("source = %s, want override", st.Source)
	}

	_ = r.ClearOverrides()
	if !r.IsEnabled(DSButtons.Key) {
		t.Fatal("clear should revert ds_buttons to its default")
	}
	st, _ = r.Resolve(DSButtons.Key)
	if st.Source != SourceDefault {
		t.Fatalf("source = %s, want default", st.Source)
	}
}

func TestCatalogReturnsCopy(t *testing.T) {
	t.Parallel()
	first := Catalog()
	first[0].Key = "mutated"
	if Catalog()[0].Key == "mutated" {
		t.Fatal("Catalog should return a copy, not the backing slice")
	}
}

func TestEnvKey(t *testing.T) {
	t.Parallel()
	if got := EnvKey("dark_mode"); got != "CAREGUIDE_FLAG_DARK_MODE" {
		t.Fatalf("EnvKey = %q", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t, nil)

	var wg sync.WaitGroup
	const goroutines = 50
	for i := 0; i < goroutines; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = r.IsEnabled(DarkMode.Key)
		}()
		go func() {
			defer wg.Done()
			_ = r.SetOverride(DarkMode.Key, true)
		}()
		go func() {
			defer wg.Done()
			_ = r.All()
		}()
	}
	wg.Wait()
}
