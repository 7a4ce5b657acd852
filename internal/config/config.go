package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pders01/snooze/internal/validation"
)

// DefaultBaseURL is the public Hack or Snooze API.
const DefaultBaseURL = "https://hack-or-snooze-v3.herokuapp.com"

var envKeyReplacer = strings.NewReplacer(".", "_")

type Config struct {
	API      APIConfig      `mapstructure:"api" toml:"api"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
	UI       UIConfig       `mapstructure:"ui" toml:"ui"`
	Browser  BrowserConfig  `mapstructure:"browser" toml:"browser"`
	Keys     KeyConfig      `mapstructure:"keys" toml:"keys"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url" toml:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout" toml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" toml:"user_agent"`
	PageSize  int           `mapstructure:"page_size" toml:"page_size"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path" toml:"path"`
	Timeout     time.Duration `mapstructure:"timeout" toml:"timeout"`
	SearchIndex string        `mapstructure:"search_index" toml:"search_index"`
}

type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
	File  string `mapstructure:"file" toml:"file"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors" toml:"colors"`
	// RenderMarkdown toggles glamour rendering of the story detail pane.
	RenderMarkdown bool `mapstructure:"render_markdown" toml:"render_markdown"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary" toml:"primary"`
	Secondary string `mapstructure:"secondary" toml:"secondary"`
	Accent    string `mapstructure:"accent" toml:"accent"`
	Text      string `mapstructure:"text" toml:"text"`
	Muted     string `mapstructure:"muted" toml:"muted"`
	Favorite  string `mapstructure:"favorite" toml:"favorite"`
	Error     string `mapstructure:"error" toml:"error"`
	Success   string `mapstructure:"success" toml:"success"`
}

type BrowserConfig struct {
	DefaultOpener string   `mapstructure:"default_opener" toml:"default_opener"`
	Darwin        []string `mapstructure:"darwin" toml:"darwin"`
	Linux         []string `mapstructure:"linux" toml:"linux"`
	Windows       []string `mapstructure:"windows" toml:"windows"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier" toml:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings" toml:"bindings"`
}

type KeyBindings struct {
	Quit        string `mapstructure:"quit" toml:"quit"`
	Search      string `mapstructure:"search" toml:"search"`
	Submit      string `mapstructure:"submit" toml:"submit"`
	Favorite    string `mapstructure:"favorite" toml:"favorite"`
	Delete      string `mapstructure:"delete" toml:"delete"`
	Refresh     string `mapstructure:"refresh" toml:"refresh"`
	Favorites   string `mapstructure:"favorites" toml:"favorites"`
	MyStories   string `mapstructure:"my_stories" toml:"my_stories"`
	AllStories  string `mapstructure:"all_stories" toml:"all_stories"`
	Login       string `mapstructure:"login" toml:"login"`
	Logout      string `mapstructure:"logout" toml:"logout"`
	Profile     string `mapstructure:"profile" toml:"profile"`
	OpenBrowser string `mapstructure:"open_browser" toml:"open_browser"`
	Back        string `mapstructure:"back" toml:"back"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".snooze")

	return &Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Timeout:   10 * time.Second,
			UserAgent: "snooze/1.0 (https://github.com/pders01/snooze)",
			PageSize:  25,
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(dataDir, "snooze.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "index.bleve"),
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(dataDir, "snooze.log"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6600",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Favorite:  "#FFE66D",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
			RenderMarkdown: true,
		},
		Browser: BrowserConfig{
			DefaultOpener: getDefaultOpener(),
			Darwin:        []string{"open"},
			Linux:         []string{"xdg-open", "firefox", "chromium"},
			Windows:       []string{"start"},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:        "q",
				Search:      "s",
				Submit:      "n",
				Favorite:    "f",
				Delete:      "x",
				Refresh:     "r",
				Favorites:   "v",
				MyStories:   "y",
				AllStories:  "a",
				Login:       "l",
				Logout:      "u",
				Profile:     "p",
				OpenBrowser: "o",
				Back:        "esc",
			},
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	// leaf keys are set one by one so SNOOZE_API_BASE_URL and friends resolve
	for key, value := range map[string]any{
		"api.base_url":          cfg.API.BaseURL,
		"api.timeout":           cfg.API.Timeout,
		"api.user_agent":        cfg.API.UserAgent,
		"api.page_size":         cfg.API.PageSize,
		"database.path":         cfg.Database.Path,
		"database.timeout":      cfg.Database.Timeout,
		"database.search_index": cfg.Database.SearchIndex,
		"log.level":             cfg.Log.Level,
		"log.file":              cfg.Log.File,
	} {
		v.SetDefault(key, value)
	}
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("browser", cfg.Browser)
	v.SetDefault("keys", cfg.Keys)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Join(homeDir, ".config", "snooze"))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SNOOZE")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if _, err := validation.ParseBaseURL(c.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.PageSize < 0 {
		return fmt.Errorf("api.page_size must not be negative, got %d", c.API.PageSize)
	}
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// durations as strings keep the TOML readable
	apiCfg := map[string]interface{}{
		"base_url":   config.API.BaseURL,
		"timeout":    config.API.Timeout.String(),
		"user_agent": config.API.UserAgent,
		"page_size":  config.API.PageSize,
	}

	dbCfg := map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	v.Set("api", apiCfg)
	v.Set("database", dbCfg)
	v.Set("log", config.Log)
	v.Set("ui", config.UI)
	v.Set("browser", config.Browser)
	v.Set("keys", config.Keys)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

// DefaultConfigPath is where GenerateDefaultConfig writes without --config.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "snooze", "config.toml")
}
