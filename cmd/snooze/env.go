package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/pders01/snooze/internal/browser"
	"github.com/pders01/snooze/internal/config"
	"github.com/pders01/snooze/internal/debuglog"
	"github.com/pders01/snooze/internal/hackorsnooze"
	"github.com/pders01/snooze/internal/importer"
	"github.com/pders01/snooze/internal/models"
	"github.com/pders01/snooze/internal/search"
	"github.com/pders01/snooze/internal/session"
	"github.com/pders01/snooze/internal/storage"
)

// env is everything a command needs, built from one config.
type env struct {
	cfg      *config.Config
	client   *hackorsnooze.Client
	store    *storage.Store
	index    *search.Index
	session  *session.Session
	launcher *browser.Launcher
	importer *importer.Importer
}

func openEnv(flags *rootFlags) (*env, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	client, err := hackorsnooze.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	// a second running instance holds the index lock; search then scans
	index, err := search.Open(cfg.Database.SearchIndex)
	if err != nil {
		debuglog.With("err", err).Warnf("search index unavailable, using scanner")
		index = nil
	}

	opts := session.Options{PageSize: cfg.API.PageSize, Store: store}
	if index != nil {
		opts.Index = index
	}

	return &env{
		cfg:      cfg,
		client:   client,
		store:    store,
		index:    index,
		session:  session.New(client, opts),
		launcher: browser.NewLauncher(cfg),
		importer: importer.New(cfg),
	}, nil
}

func (e *env) Close() {
	if e.index != nil {
		if err := e.index.Close(); err != nil {
			debuglog.With("err", err).Warnf("closing search index")
		}
	}
	if err := e.store.Close(); err != nil {
		debuglog.With("err", err).Warnf("closing database")
	}
	_ = debuglog.Close()
}

// searcher prefers the index and falls back to scanning known stories.
func (e *env) searcher() search.Searcher {
	if e.index != nil {
		return e.index
	}
	return search.NewScanner(e.session.Known)
}

// load restores the stored login and fetches the story list. A failed
// fetch is tolerated when a saved snapshot could be shown instead, and
// ignored entirely when the caller only needs the user.
func (e *env) load(ctx context.Context, needStories bool) error {
	err := e.session.Bootstrap(ctx)
	switch {
	case err == nil:
		return nil
	case !needStories:
		debuglog.With("err", err).Infof("story list unavailable")
		return nil
	case e.session.Offline():
		return errOffline{err}
	default:
		return err
	}
}

// requireUser loads the session and fails unless someone is logged in.
func (e *env) requireUser(ctx context.Context) (*models.User, error) {
	if err := e.load(ctx, false); err != nil {
		return nil, err
	}
	user := e.session.User()
	if user == nil {
		if name, stale := e.session.StaleLogin(); stale {
			return nil, fmt.Errorf("stored login for %s could not be restored: %w", name, errNotLoggedIn)
		}
		return nil, errNotLoggedIn
	}
	return user, nil
}

var errNotLoggedIn = errors.New("not logged in; run `snooze login <username>` first")

// errOffline marks a list that came from the local snapshot.
type errOffline struct{ err error }

func (e errOffline) Error() string { return "offline, showing saved stories: " + e.err.Error() }
func (e errOffline) Unwrap() error { return e.err }
