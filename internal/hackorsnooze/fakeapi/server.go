// Package fakeapi serves an in-memory Hack or Snooze API over httptest for
// tests that need a realistic remote.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/snooze/internal/hackorsnooze"
)

type account struct {
	password string
	record   hackorsnooze.UserRecord
}

type failure struct {
	status  int
	message string
}

// Server is a stateful fake. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	stories  []hackorsnooze.StoryRecord
	accounts map[string]*account
	tokens   map[string]string
	failures map[string]failure
	calls    map[string]int

	// OmitFavoriteUser drops the user record from favorite responses.
	OmitFavoriteUser bool
	now              func() time.Time
}

// New starts a fake server that is closed when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts: map[string]*account{},
		tokens:   map[string]string{},
		failures: map[string]failure{},
		calls:    map[string]int{},
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /stories", s.listStories)
	mux.HandleFunc("POST /stories", s.createStory)
	mux.HandleFunc("DELETE /stories/{storyId}", s.deleteStory)
	mux.HandleFunc("POST /signup", s.signup)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("GET /users/{username}", s.getUser)
	mux.HandleFunc("PATCH /users/{username}", s.updateUser)
	mux.HandleFunc("POST /users/{username}/favorites/{storyId}", s.addFavorite)
	mux.HandleFunc("DELETE /users/{username}/favorites/{storyId}", s.removeFavorite)

	s.Server = httptest.NewServer(s.intercept(mux))
	t.Cleanup(s.Close)
	return s
}

func key(method, path string) string { return method + " " + path }

// Fail makes every request matching method and path answer with status
// until Recover is called.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key(method, path)] = failure{status: status, message: message}
}

func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]failure{}
}

// Calls reports how many requests hit method and path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key(method, path)]
}

// TotalCalls reports every request the server received.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		k := key(r.Method, r.URL.Path)
		s.calls[k]++
		f, failing := s.failures[k]
		s.mu.Unlock()

		if failing {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddUser registers an account and returns a valid token for it.
func (s *Server) AddUser(username, password, name string) hackorsnooze.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password, name)
}

func (s *Server) addUserLocked(username, password, name string) hackorsnooze.Token {
	s.accounts[username] = &account{
		password: password,
		record: hackorsnooze.UserRecord{
			Username:  username,
			Name:      name,
			CreatedAt: s.now(),
			Favorites: []hackorsnooze.StoryRecord{},
			Stories:   []hackorsnooze.StoryRecord{},
		},
	}
	token := "tok-" + uuid.NewString()
	s.tokens[token] = username
	return hackorsnooze.Token(token)
}

// AddStory stores rec at the front of the list, assigning an id if missing.
func (s *Server) AddStory(rec hackorsnooze.StoryRecord) hackorsnooze.StoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addStoryLocked(rec)
}

func (s *Server) addStoryLocked(rec hackorsnooze.StoryRecord) hackorsnooze.StoryRecord {
	if rec.StoryID == "" {
		rec.StoryID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	s.stories = append([]hackorsnooze.StoryRecord{rec}, s.stories...)
	if acct, ok := s.accounts[rec.Username]; ok {
		acct.record.Stories = append(acct.record.Stories, rec)
	}
	return rec
}

// User returns the server-side record for username.
func (s *Server) User(username string) (hackorsnooze.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[username]
	if !ok {
		return hackorsnooze.UserRecord{}, false
	}
	return acct.record, true
}

// Stories returns the server-side list, newest first.
func (s *Server) Stories() []hackorsnooze.StoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]hackorsnooze.StoryRecord(nil), s.stories...)
}

func (s *Server) listStories(w http.ResponseWriter, r *http.Request) {
	skip, limit := 0, 25
	if v := r.URL.Query().Get("skip"); v != "" {
		fmt.Sscanf(v, "%d", &skip)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}

	s.mu.Lock()
	page := []hackorsnooze.StoryRecord{}
	for i := skip; i < len(s.stories) && len(page) < limit; i++ {
		page = append(page, s.stories[i])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"stories": page})
}

func (s *Server) createStory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string                `json:"token"`
		Story hackorsnooze.NewStory `json:"story"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.tokens[body.Token]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing or invalid token")
		return
	}
	if body.Story.Title == "" || body.Story.URL == "" || body.Story.Author == "" {
		writeError(w, http.StatusBadRequest, "story requires author, title and url")
		return
	}
	rec := s.addStoryLocked(hackorsnooze.StoryRecord{
		Title:    body.Story.Title,
		Author:   body.Story.Author,
		URL:      body.Story.URL,
		Username: username,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"story": rec})
}

func (s *Server) deleteStory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if !decode(w, r, &body) {
		return
	}
	id := r.PathValue("storyId")

	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.tokens[body.Token]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing or invalid token")
		return
	}
	idx := indexOf(s.stories, id)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "No story with that id")
		return
	}
	if s.stories[idx].Username != username {
		writeError(w, http.StatusForbidden, "You can only delete your own stories")
		return
	}
	s.stories = remove(s.stories, id)
	for _, acct := range s.accounts {
		acct.record.Stories = remove(acct.record.Stories, id)
		acct.record.Favorites = remove(acct.record.Favorites, id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Story deleted!"})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User hackorsnooze.Credentials `json:"user"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if body.User.Username == "" || body.User.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if _, taken := s.accounts[body.User.Username]; taken {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}
	token := s.addUserLocked(body.User.Username, body.User.Password, body.User.Name)
	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token.Reveal(),
		"user":  s.accounts[body.User.Username].record,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User hackorsnooze.Credentials `json:"user"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[body.User.Username]
	if !ok {
		writeError(w, http.StatusNotFound, "No such user")
		return
	}
	if acct.password != body.User.Password {
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}
	token := "tok-" + uuid.NewString()
	s.tokens[token] = body.User.Username
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": acct.record})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.authorize(w, r.URL.Query().Get("token"), r.PathValue("username"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": acct.record})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string                     `json:"token"`
		User  hackorsnooze.ProfileUpdate `json:"user"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.authorize(w, body.Token, r.PathValue("username"))
	if !ok {
		return
	}
	if body.User.Name != "" {
		acct.record.Name = body.User.Name
	}
	if body.User.Password != "" {
		acct.password = body.User.Password
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": acct.record})
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	s.favorite(w, r, func(acct *account, story hackorsnooze.StoryRecord) {
		if indexOf(acct.record.Favorites, story.StoryID) < 0 {
			acct.record.Favorites = append(acct.record.Favorites, story)
		}
	}, "Favorite Added!")
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	s.favorite(w, r, func(acct *account, story hackorsnooze.StoryRecord) {
		acct.record.Favorites = remove(acct.record.Favorites, story.StoryID)
	}, "Favorite Removed!")
}

func (s *Server) favorite(w http.ResponseWriter, r *http.Request, apply func(*account, hackorsnooze.StoryRecord), message string) {
	var body struct {
		Token string `json:"token"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.authorize(w, body.Token, r.PathValue("username"))
	if !ok {
		return
	}
	idx := indexOf(s.stories, r.PathValue("storyId"))
	if idx < 0 {
		writeError(w, http.StatusNotFound, "No story with that id")
		return
	}
	apply(acct, s.stories[idx])

	resp := map[string]any{"message": message}
	if !s.OmitFavoriteUser {
		resp["user"] = acct.record
	}
	writeJSON(w, http.StatusOK, resp)
}

// authorize must be called with s.mu held.
func (s *Server) authorize(w http.ResponseWriter, token, username string) (*account, bool) {
	owner, ok := s.tokens[token]
	if !ok || owner != username {
		writeError(w, http.StatusUnauthorized, "Missing or invalid token")
		return nil, false
	}
	acct, ok := s.accounts[username]
	if !ok {
		writeError(w, http.StatusNotFound, "No such user")
		return nil, false
	}
	return acct, true
}

func indexOf(stories []hackorsnooze.StoryRecord, id string) int {
	for i, st := range stories {
		if st.StoryID == id {
			return i
		}
	}
	return -1
}

func remove(stories []hackorsnooze.StoryRecord, id string) []hackorsnooze.StoryRecord {
	out := make([]hackorsnooze.StoryRecord, 0, len(stories))
	for _, st := range stories {
		if st.StoryID != id {
			out = append(out, st)
		}
	}
	return out
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"status":  status,
			"title":   http.StatusText(status),
			"message": message,
		},
	})
}
