package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// testConfigPath overrides ConfigPath during tests.
var testConfigPath string

// SetTestConfigPath redirects config reads and writes for tests.
func SetTestConfigPath(path string) { testConfigPath = path }

// ResetTestConfigPath restores the real config location.
func ResetTestConfigPath() { testConfigPath = "" }

// ConfigPath returns the path of the config file,
// ~/.config/careguide/config.json on most systems.
func ConfigPath() string {
	if testConfigPath != "" {
		return testConfigPath
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "careguide", "config.json")
}

// DataDir returns the directory holding careguide's data files (the
// override store lives here unless storage.path says otherwise).
func DataDir() string {
	return filepath.Dir(ConfigPath())
}

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	Agent   saveAgentConfig `json:"agent"`
	Storage StorageConfig   `json:"storage"`
	UI      saveUIConfig    `json:"ui"`
	Flags   FlagsConfig     `json:"flags,omitempty"`
}

type saveAgentConfig struct {
	BaseURL      string `json:"baseUrl,omitempty"`
	PollWait     string `json:"pollWait,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
}

type saveUIConfig struct {
	Theme    string `json:"theme,omitempty"`
	Markdown *bool  `json:"markdown,omitempty"`
}

// Load reads the config file, returning defaults if it does not exist.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config from an explicit path.
func LoadFrom(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var sc saveConfig
	if err := json.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := Default()
	if sc.Agent.BaseURL != "" {
		cfg.Agent.BaseURL = sc.Agent.BaseURL
	}
	if sc.Agent.PollWait != "" {
		d, err := time.ParseDuration(sc.Agent.PollWait)
		if err != nil {
			return nil, fmt.Errorf("config: agent.pollWait: %w", err)
		}
		cfg.Agent.PollWait = d
	}
	if sc.Agent.CustomerName != "" {
		cfg.Agent.CustomerName = sc.Agent.CustomerName
	}
	if sc.Storage.Backend != "" {
		cfg.Storage.Backend = sc.Storage.Backend
	}
	if sc.Storage.Path != "" {
		cfg.Storage.Path = sc.Storage.Path
	}
	if sc.UI.Theme != "" {
		cfg.UI.Theme = sc.UI.Theme
	}
	if sc.UI.Markdown != nil {
		cfg.UI.Markdown = *sc.UI.Markdown
	}
	if sc.Flags.Seed != nil {
		cfg.Flags.Seed = sc.Flags.Seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to ConfigPath.
func Save(cfg *Config) error {
	path := ConfigPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	sc := saveConfig{
		Agent: saveAgentConfig{
			BaseURL:      cfg.Agent.BaseURL,
			PollWait:     cfg.Agent.PollWait.String(),
			CustomerName: cfg.Agent.CustomerName,
		},
		Storage: cfg.Storage,
		UI: saveUIConfig{
			Theme:    cfg.UI.Theme,
			Markdown: &cfg.UI.Markdown,
		},
		Flags: cfg.Flags,
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
