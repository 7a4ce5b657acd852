package config

import "time"

// TestConfig returns a config suitable for testing. Callers that talk to a
// fake API point API.BaseURL at their httptest server.
func TestConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://127.0.0.1:0",
			Timeout:   2 * time.Second,
			UserAgent: "snooze-test/1.0",
			PageSize:  10,
		},
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		Log: LogConfig{
			Level: "off",
		},
		UI:      defaultConfig().UI,
		Browser: defaultConfig().Browser,
		Keys:    defaultConfig().Keys,
	}
}
