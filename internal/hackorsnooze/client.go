// Package hackorsnooze is the REST transport for the Hack or Snooze API.
// Each method maps to one endpoint and returns wire records; domain types
// live in internal/models.
package hackorsnooze

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/pders01/snooze/internal/config"
	"github.com/pders01/snooze/internal/debuglog"
	"github.com/pders01/snooze/internal/validation"
)

const (
	// RequestIDHeader carries a per-request uuid, mirrored in the debug log.
	RequestIDHeader = "X-Request-Id"

	DefaultTimeout = 10 * time.Second
)

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient replaces the underlying client, mainly for tests. It is
	// copied, so Timeout never modifies it.
	HTTPClient *http.Client
}

type Client struct {
	rest    *resty.Client
	baseURL string
}

// New builds a client for opts.BaseURL. A zero Timeout means DefaultTimeout.
func New(opts Options) (*Client, error) {
	base, err := validation.ParseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var rest *resty.Client
	if opts.HTTPClient != nil {
		// resty sets the timeout on the client it wraps; keep the caller's untouched.
		hc := *opts.HTTPClient
		rest = resty.NewWithClient(&hc)
	} else {
		rest = resty.New()
	}
	rest.SetBaseURL(base).
		SetTimeout(timeout).
		SetLogger(restyLogger{}).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		rest.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Client{rest: rest, baseURL: base}, nil
}

// NewFromConfig builds a client from the api section of cfg.
func NewFromConfig(cfg *config.Config) (*Client, error) {
	return New(Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	})
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	op     string
	method string
	path   string
	params map[string]string
	query  map[string]string
	body   any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	reqID := uuid.NewString()
	log := debuglog.WithFields(map[string]any{
		"op":         r.op,
		"method":     r.method,
		"path":       r.path,
		"request_id": reqID,
	})

	req := c.rest.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, reqID)
	if len(r.params) > 0 {
		req.SetPathParams(r.params)
	}
	if len(r.query) > 0 {
		req.SetQueryParams(r.query)
	}
	if r.body != nil {
		req.SetBody(r.body)
	}

	res, err := req.Execute(r.method, r.path)
	if err != nil {
		netErr := &NetworkError{Op: r.op, Err: redactURL(err)}
		log.With("timeout", netErr.Timeout()).With("err", netErr.Err).Warnf("request failed")
		return netErr
	}

	log = log.With("status", res.StatusCode()).With("elapsed", res.Time())
	if !res.IsSuccess() {
		apiErr := newAPIError(r.op, res)
		log.With("err", apiErr.Message).Infof("api rejected request")
		return apiErr
	}
	log.Debugf("request ok")

	if out == nil || len(res.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("decoding %s response: %w", r.op, err)
	}
	return nil
}

// ListStories fetches stories newest first. A limit of zero leaves paging
// to the server.
func (c *Client) ListStories(ctx context.Context, skip, limit int) ([]StoryRecord, error) {
	query := map[string]string{}
	if skip > 0 {
		query["skip"] = strconv.Itoa(skip)
	}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}

	var env storiesEnvelope
	err := c.do(ctx, request{
		op:     "list stories",
		method: resty.MethodGet,
		path:   "/stories",
		query:  query,
	}, &env)
	if err != nil {
		return nil, err
	}
	return env.Stories, nil
}

func (c *Client) CreateStory(ctx context.Context, token Token, story NewStory) (StoryRecord, error) {
	var env storyEnvelope
	err := c.do(ctx, request{
		op:     "create story",
		method: resty.MethodPost,
		path:   "/stories",
		body:   createStoryBody{Token: token.Reveal(), Story: story},
	}, &env)
	if err != nil {
		return StoryRecord{}, err
	}
	return env.Story, nil
}

func (c *Client) DeleteStory(ctx context.Context, token Token, storyID string) error {
	return c.do(ctx, request{
		op:     "delete story",
		method: resty.MethodDelete,
		path:   "/stories/{storyId}",
		params: map[string]string{"storyId": storyID},
		body:   tokenBody{Token: token.Reveal()},
	}, nil)
}

func (c *Client) Signup(ctx context.Context, creds Credentials) (AuthResult, error) {
	return c.authenticate(ctx, "signup", "/signup", creds)
}

func (c *Client) Login(ctx context.Context, username, password string) (AuthResult, error) {
	return c.authenticate(ctx, "login", "/login", Credentials{Username: username, Password: password})
}

func (c *Client) authenticate(ctx context.Context, op, path string, creds Credentials) (AuthResult, error) {
	var env authEnvelope
	err := c.do(ctx, request{
		op:     op,
		method: resty.MethodPost,
		path:   path,
		body:   credentialsBody{User: creds},
	}, &env)
	if err != nil {
		return AuthResult{}, err
	}
	if env.Token == "" {
		return AuthResult{}, fmt.Errorf("decoding %s response: missing token", op)
	}
	return AuthResult{Token: Token(env.Token), User: env.User}, nil
}

// GetUser fetches the profile for username; the token travels as a query
// parameter as the API requires for GET.
func (c *Client) GetUser(ctx context.Context, token Token, username string) (UserRecord, error) {
	var env userEnvelope
	err := c.do(ctx, request{
		op:     "get user",
		method: resty.MethodGet,
		path:   "/users/{username}",
		params: map[string]string{"username": username},
		query:  map[string]string{"token": token.Reveal()},
	}, &env)
	if err != nil {
		return UserRecord{}, err
	}
	return env.User, nil
}

func (c *Client) UpdateUser(ctx context.Context, token Token, username string, update ProfileUpdate) (UserRecord, error) {
	var env userEnvelope
	err := c.do(ctx, request{
		op:     "update user",
		method: resty.MethodPatch,
		path:   "/users/{username}",
		params: map[string]string{"username": username},
		body:   updateUserBody{Token: token.Reveal(), User: update},
	}, &env)
	if err != nil {
		return UserRecord{}, err
	}
	return env.User, nil
}

// AddFavorite returns the updated user when the server includes it.
func (c *Client) AddFavorite(ctx context.Context, token Token, username, storyID string) (*UserRecord, error) {
	return c.favorite(ctx, "add favorite", resty.MethodPost, token, username, storyID)
}

// RemoveFavorite returns the updated user when the server includes it.
func (c *Client) RemoveFavorite(ctx context.Context, token Token, username, storyID string) (*UserRecord, error) {
	return c.favorite(ctx, "remove favorite", resty.MethodDelete, token, username, storyID)
}

func (c *Client) favorite(ctx context.Context, op, method string, token Token, username, storyID string) (*UserRecord, error) {
	var env favoriteEnvelope
	err := c.do(ctx, request{
		op:     op,
		method: method,
		path:   "/users/{username}/favorites/{storyId}",
		params: map[string]string{"username": username, "storyId": storyID},
		body:   tokenBody{Token: token.Reveal()},
	}, &env)
	if err != nil {
		return nil, err
	}
	return env.User, nil
}

// restyLogger routes resty's own diagnostics into debuglog instead of stderr.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) { debuglog.Errorf("resty: "+format, v...) }
func (restyLogger) Warnf(format string, v ...any)  { debuglog.Warnf("resty: "+format, v...) }
func (restyLogger) Debugf(format string, v ...any) { debuglog.Debugf("resty: "+format, v...) }
