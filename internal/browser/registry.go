package browser

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed browsers.toml
var browsersTOML []byte

// Definition describes how to invoke one browser.
type Definition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	// Command overrides the executable; defaults to the entry name.
	Command     string   `toml:"command,omitempty"`
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
	// Terminal browsers need the tty and run in the foreground.
	Terminal bool `toml:"terminal,omitempty"`
}

type definitions struct {
	Browsers map[string]Definition `toml:"browsers"`
}

// Registry holds the known browser definitions.
type Registry struct {
	browsers map[string]Definition
	goos     string
}

// NewRegistry loads the built-in definitions, then any user overrides from
// ~/.config/snooze/browsers.toml.
func NewRegistry(goos string) (*Registry, error) {
	var defs definitions
	if err := toml.Unmarshal(browsersTOML, &defs); err != nil {
		return nil, fmt.Errorf("parsing browsers.toml: %w", err)
	}

	r := &Registry{browsers: defs.Browsers, goos: goos}
	if home, err := os.UserHomeDir(); err == nil {
		if err := r.Merge(filepath.Join(home, ".config", "snooze", "browsers.toml")); err != nil && !os.IsNotExist(err) {
			return r, err
		}
	}
	return r, nil
}

// Merge adds or replaces definitions from the TOML file at path.
func (r *Registry) Merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var user definitions
	if err := toml.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for name, def := range user.Browsers {
		r.browsers[name] = def
	}
	return nil
}

func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.browsers[name]
	return def, ok
}

// Command builds the invocation of name for url. Unknown names run as-is
// with the url as the only argument.
func (r *Registry) Command(name, url string) (*exec.Cmd, Definition, error) {
	def, known := r.browsers[name]
	if !known {
		return exec.Command(name, url), Definition{}, nil
	}
	if len(def.Platforms) > 0 && !slices.Contains(def.Platforms, r.goos) {
		return nil, def, fmt.Errorf("%s is not supported on %s", name, r.goos)
	}

	bin := def.Command
	if bin == "" {
		bin = name
	}
	args := append(slices.Clone(r.args(def)), url)
	return exec.Command(bin, args...), def, nil
}

func (r *Registry) args(def Definition) []string {
	switch r.goos {
	case "darwin":
		if len(def.ArgsDarwin) > 0 {
			return def.ArgsDarwin
		}
	case "linux":
		if len(def.ArgsLinux) > 0 {
			return def.ArgsLinux
		}
	case "windows":
		if len(def.ArgsWindows) > 0 {
			return def.ArgsWindows
		}
	}
	return def.Args
}
