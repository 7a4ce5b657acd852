package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pders01/snooze/internal/config"
	"github.com/pders01/snooze/internal/hackorsnooze"
	"github.com/pders01/snooze/internal/models"
	"github.com/pders01/snooze/internal/validation"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "snooze %s\n", Version)
			fmt.Fprintln(out, "Hack or Snooze client")
			fmt.Fprintln(out, "github.com/pders01/snooze")
		},
	}
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags.configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("generating config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	})
	return cmd
}

type listFlags struct {
	json bool
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.json, "json", false, "Print stories as JSON")
}

func newStoriesCmd(flags *rootFlags) *cobra.Command {
	lf := &listFlags{}
	cmd := &cobra.Command{
		Use:   "stories",
		Short: "List the newest stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.load(cmd.Context(), true); err != nil {
				var offline errOffline
				if !errors.As(err, &offline) {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			}
			return printStories(cmd.OutOrStdout(), e.session.Stories().Stories(), e.session.User(), lf.json)
		},
	}
	lf.bind(cmd)
	return cmd
}

func newFavoritesCmd(flags *rootFlags) *cobra.Command {
	lf := &listFlags{}
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List your favorite stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := e.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			return printStories(cmd.OutOrStdout(), user.Favorites(), user, lf.json)
		},
	}
	lf.bind(cmd)
	return cmd
}

func newMineCmd(flags *rootFlags) *cobra.Command {
	lf := &listFlags{}
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List the stories you submitted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := e.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			return printStories(cmd.OutOrStdout(), user.OwnStories(), user, lf.json)
		},
	}
	lf.bind(cmd)
	return cmd
}

// readPassword takes the password flag or, when empty, the first line of
// stdin.
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}

			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.Login(cmd.Context(), args[0], pw); err != nil {
				return fmt.Errorf("logging in: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", e.session.User().Username())
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (read from stdin when empty)")
	return cmd
}

func newSignupCmd(flags *rootFlags) *cobra.Command {
	var password, name string
	cmd := &cobra.Command{
		Use:   "signup <username>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = args[0]
			}
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}

			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.Signup(cmd.Context(), args[0], pw, name); err != nil {
				return fmt.Errorf("creating account: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s\n", e.session.User().Username())
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (read from stdin when empty)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the username)")
	return cmd
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := e.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", user.Username(), user.Name())
			if !user.CreatedAt().IsZero() {
				fmt.Fprintf(out, "member since %s\n", user.CreatedAt().Format("Jan 2, 2006"))
			}
			fmt.Fprintf(out, "%d stories, %d favorites\n", len(user.OwnStories()), len(user.Favorites()))
			fmt.Fprintf(out, "server %s\n", e.client.BaseURL())
			fmt.Fprintf(out, "data   %s\n", e.store.Path())
			return nil
		},
	}
}

func newSubmitCmd(flags *rootFlags) *cobra.Command {
	var draft models.Draft
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a story",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := validation.NormalizeStoryURL(draft.URL)
			if err != nil {
				return &models.MalformedURLError{URL: draft.URL, Err: err}
			}
			draft.URL = url

			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if _, err := e.requireUser(cmd.Context()); err != nil {
				return err
			}
			story, err := e.session.Submit(cmd.Context(), draft)
			if err != nil {
				return fmt.Errorf("submitting story: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted %s: %s\n", story.StoryID, story.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Title, "title", "", "Story title")
	cmd.Flags().StringVar(&draft.Author, "author", "", "Story author")
	cmd.Flags().StringVar(&draft.URL, "url", "", "Story URL")
	for _, name := range []string{"title", "author", "url"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <story-id>",
		Short: "Delete one of your stories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if _, err := e.requireUser(cmd.Context()); err != nil {
				return err
			}
			if err := e.session.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting story: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

// newFavoriteCmd builds `fav` or `unfav`.
func newFavoriteCmd(flags *rootFlags, add bool) *cobra.Command {
	use, short, done := "fav", "Add a story to your favorites", "Favorited"
	if !add {
		use, short, done = "unfav", "Remove a story from your favorites", "Unfavorited"
	}
	return &cobra.Command{
		Use:   use + " <story-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if _, err := e.requireUser(cmd.Context()); err != nil {
				return err
			}
			story, ok := e.session.Lookup(args[0])
			if !ok {
				story = models.Story{StoryID: args[0]}
			}
			if add {
				err = e.session.Favorite(cmd.Context(), story)
			} else {
				err = e.session.Unfavorite(cmd.Context(), story)
			}
			if err != nil {
				return fmt.Errorf("updating favorite: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, storyLabel(story))
			return nil
		},
	}
}

func newProfileCmd(flags *rootFlags) *cobra.Command {
	var name, password string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change your display name or password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if _, err := e.requireUser(cmd.Context()); err != nil {
				return err
			}
			if err := e.session.UpdateProfile(cmd.Context(), name, password); err != nil {
				return fmt.Errorf("updating profile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s\n", e.session.User().Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	return cmd
}

func newSearchCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search story titles, authors and sites",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.load(cmd.Context(), true); err != nil {
				var offline errOffline
				if !errors.As(err, &offline) {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			}

			results, err := e.searcher().Search(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No results")
				return nil
			}
			stories := make([]models.Story, len(results))
			for i, r := range results {
				stories[i] = r.Story
			}
			return printStories(out, stories, e.session.User(), false)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	return cmd
}

func newImportCmd(flags *rootFlags) *cobra.Command {
	var (
		limit  int
		submit bool
	)
	cmd := &cobra.Command{
		Use:   "import <feed-url|site>",
		Short: "Propose stories from an RSS or Atom feed",
		Long: "Fetches a feed and lists items not yet posted. Reddit and Hacker News " +
			"addresses are resolved to their feeds. With --submit the items are posted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.load(cmd.Context(), false); err != nil {
				return err
			}
			if submit && !e.session.LoggedIn() {
				return errNotLoggedIn
			}

			candidates, err := e.importer.Candidates(cmd.Context(), args[0], e.session.Known(), limit)
			if err != nil {
				return fmt.Errorf("importing %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(out, "Nothing new")
				return nil
			}

			for _, c := range candidates {
				if !submit {
					fmt.Fprintf(out, "%s\n  %s by %s\n", c.Draft.Title, c.Draft.URL, c.Draft.Author)
					continue
				}
				story, err := e.session.Submit(cmd.Context(), c.Draft)
				if err != nil {
					return fmt.Errorf("submitting %q: %w", c.Draft.Title, err)
				}
				fmt.Fprintf(out, "Submitted %s: %s\n", story.StoryID, story.Title)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of items")
	cmd.Flags().BoolVar(&submit, "submit", false, "Post the items as stories")
	return cmd
}

func newOpenCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "open <story-id>",
		Short: "Open a story in the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.load(cmd.Context(), true); err != nil {
				var offline errOffline
				if !errors.As(err, &offline) {
					return err
				}
			}
			story, ok := e.session.Lookup(args[0])
			if !ok {
				return fmt.Errorf("story %s not found", args[0])
			}
			if err := e.launcher.Open(story.URL); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s with %s\n", story.URL, e.launcher.Browser())
			return nil
		},
	}
}

func storyLabel(s models.Story) string {
	if s.Title == "" {
		return s.StoryID
	}
	return fmt.Sprintf("%s (%s)", s.Title, s.StoryID)
}

// printStories writes stories as a table, or as the API's JSON records.
func printStories(w io.Writer, stories []models.Story, user *models.User, asJSON bool) error {
	if asJSON {
		recs := make([]hackorsnooze.StoryRecord, len(stories))
		for i, s := range stories {
			recs[i] = s.Record()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	if len(stories) == 0 {
		_, err := fmt.Fprintln(w, "No stories")
		return err
	}

	rows := make([][]string, 0, len(stories))
	for _, s := range stories {
		mark := ""
		if user != nil && user.IsFavorite(s) {
			mark = "★"
		}
		host, err := s.Hostname()
		if err != nil {
			host = "?"
		}
		rows = append(rows, []string{mark, s.StoryID, s.Title, host, s.Author, s.Username})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		Headers("", "ID", "TITLE", "SITE", "AUTHOR", "POSTED BY").
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
