// Package browser opens story links in an external browser.
package browser

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/snooze/internal/config"
	"github.com/pders01/snooze/internal/debuglog"
	"github.com/pders01/snooze/internal/validation"
)

// ErrNoBrowser is returned when no candidate is installed.
var ErrNoBrowser = errors.New("no browser found")

type Launcher struct {
	registry *Registry
	browser  string
}

// NewLauncher picks the first installed browser from the platform's
// candidates in cfg, falling back to the default opener.
func NewLauncher(cfg *config.Config) *Launcher {
	return newLauncher(cfg, runtime.GOOS, exec.LookPath)
}

func newLauncher(cfg *config.Config, goos string, lookPath func(string) (string, error)) *Launcher {
	registry, err := NewRegistry(goos)
	if err != nil {
		debuglog.With("err", err).Warnf("loading browser definitions")
		if registry == nil {
			registry = &Registry{browsers: map[string]Definition{}, goos: goos}
		}
	}

	var candidates []string
	switch goos {
	case "darwin":
		candidates = cfg.Browser.Darwin
	case "windows":
		candidates = cfg.Browser.Windows
	default:
		candidates = cfg.Browser.Linux
	}

	l := &Launcher{registry: registry}
	for _, name := range candidates {
		bin := name
		if def, ok := registry.Lookup(name); ok && def.Command != "" {
			bin = def.Command
		}
		if _, err := lookPath(bin); err == nil {
			l.browser = name
			break
		}
	}
	if l.browser == "" {
		l.browser = cfg.Browser.DefaultOpener
	}
	return l
}

// Browser is the name that Open will use.
func (l *Launcher) Browser() string {
	return l.browser
}

// Command prepares the browser process for url. terminal reports whether
// it must own the tty.
func (l *Launcher) Command(url string) (cmd *exec.Cmd, terminal bool, err error) {
	if _, err := validation.ParseAbsolute(url); err != nil {
		return nil, false, fmt.Errorf("cannot open %q: %w", url, err)
	}
	if l.browser == "" {
		return nil, false, ErrNoBrowser
	}
	cmd, def, err := l.registry.Command(l.browser, url)
	if err != nil {
		return nil, false, err
	}
	return cmd, def.Terminal, nil
}

// Open starts a graphical browser detached. Terminal browsers are rejected;
// the caller has to run those in the foreground via Command.
func (l *Launcher) Open(url string) error {
	cmd, terminal, err := l.Command(url)
	if err != nil {
		return err
	}
	if terminal {
		return fmt.Errorf("%s is a terminal browser and needs the foreground", l.browser)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.browser, err)
	}
	debuglog.WithFields(map[string]any{"browser": l.browser, "url": url}).Debugf("opened story")

	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
