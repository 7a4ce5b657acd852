package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/snooze/internal/config"
	"github.com/pders01/snooze/internal/debuglog"
	"github.com/pders01/snooze/internal/search"
	"github.com/pders01/snooze/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

type rootFlags struct {
	configPath string
	dbPath     string
	baseURL    string
	logLevel   string
	quiet      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "snooze",
		Short:         "Hack or Snooze in your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to configuration file")
	pf.StringVar(&flags.dbPath, "db", "", "Path to database file (overrides config)")
	pf.StringVar(&flags.baseURL, "api", "", "API base URL (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error, off")
	root.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Skip startup banner")

	root.AddCommand(
		newVersionCmd(),
		newConfigCmd(flags),
		newStoriesCmd(flags),
		newLoginCmd(flags),
		newSignupCmd(flags),
		newLogoutCmd(flags),
		newWhoamiCmd(flags),
		newSubmitCmd(flags),
		newDeleteCmd(flags),
		newFavoriteCmd(flags, true),
		newFavoriteCmd(flags, false),
		newFavoritesCmd(flags),
		newMineCmd(flags),
		newProfileCmd(flags),
		newSearchCmd(flags),
		newImportCmd(flags),
		newOpenCmd(flags),
	)
	return root
}

// loadConfig reads the config file and applies flag overrides and logging.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.dbPath != "" {
		cfg.Database.Path = flags.dbPath
	}
	if flags.baseURL != "" {
		cfg.API.BaseURL = flags.baseURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if level == debuglog.LevelOff {
		err = debuglog.Setup(level)
	} else {
		err = debuglog.Setup(level, cfg.Log.File)
	}
	if err != nil {
		return nil, fmt.Errorf("setting up log: %w", err)
	}
	return cfg, nil
}

func runTUI(cmd *cobra.Command, flags *rootFlags) error {
	if !flags.quiet {
		tui.ShowBanner(cmd.OutOrStdout(), Version)
	}

	env, err := openEnv(flags)
	if err != nil {
		return err
	}
	defer env.Close()

	var searcher search.Searcher
	if env.index != nil {
		searcher = env.index
	}
	app := tui.NewApp(env.cfg, env.session, searcher, env.launcher).WithContext(cmd.Context())
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	_, err = p.Run()
	return err
}
