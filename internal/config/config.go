// Package config loads and saves the careguide configuration file.
package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Agent   AgentConfig   `json:"agent"`
	Storage StorageConfig `json:"storage"`
	UI      UIConfig      `json:"ui"`
	Flags   FlagsConfig   `json:"flags"`
}

// AgentConfig configures the external conversational-agent backend.
type AgentConfig struct {
	// BaseURL is the agent API endpoint, e.g. https://agent.careplus.example
	BaseURL string `json:"baseUrl"`
	// PollWait is the long-poll wait budget per events request.
	PollWait time.Duration `json:"pollWait"`
	// CustomerName labels the customer record created for this install.
	CustomerName string `json:"customerName"`
}

// StorageConfig selects the flag override store backend.
type StorageConfig struct {
	Backend string `json:"backend"` // "file" or "sqlite"
	Path    string `json:"path"`    // store file; empty uses the config dir
}

// UIConfig configures terminal output.
type UIConfig struct {
	Theme    string `json:"theme"`
	Markdown bool   `json:"markdown"` // render agent replies as markdown
}

// FlagsConfig holds flag-related settings.
type FlagsConfig struct {
	// Seed is applied to the override store on first run only; the store
	// remains the source of truth afterwards.
	Seed map[string]bool `json:"seed"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			BaseURL:      "http://localhost:8700",
			PollWait:     25 * time.Second,
			CustomerName: "careguide",
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		UI: UIConfig{
			Theme:    "auto",
			Markdown: true,
		},
		Flags: FlagsConfig{
			Seed: make(map[string]bool),
		},
	}
}

// Validate checks the configuration for errors, repairing what it can.
func (c *Config) Validate() error {
	if c.Agent.PollWait <= 0 {
		c.Agent.PollWait = 25 * time.Second
	}
	if c.Storage.Backend != "sqlite" {
		c.Storage.Backend = "file"
	}
	if c.UI.Theme == "" {
		c.UI.Theme = "auto"
	}
	return nil
}
