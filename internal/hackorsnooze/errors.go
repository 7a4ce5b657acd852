package hackorsnooze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
)

// ErrTimeout matches any NetworkError caused by a deadline or client timeout.
var ErrTimeout = errors.New("request timed out")

// NetworkError is a transport failure: DNS, refused connection, timeout or
// cancellation. No HTTP status was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Timeout() {
		return fmt.Sprintf("%s: %v (%v)", e.Op, ErrTimeout, e.Err)
	}
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline or client timeout.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrTimeout && e.Timeout()
}

// redactedQuery replaces secret query values in URLs that end up in errors.
const redactedQuery = "REDACTED"

// redactURL strips credentials from the request URL carried by a transport
// error. GetUser sends the login token as a query parameter and *url.Error
// prints the full URL, so the raw error must not reach logs or callers.
func redactURL(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u, perr := url.Parse(ue.URL)
	if perr != nil {
		return &url.Error{Op: ue.Op, URL: redactedQuery, Err: ue.Err}
	}
	if u.RawQuery == "" && u.User == nil {
		return err
	}
	q := u.Query()
	for key := range q {
		if key == "token" {
			q.Set(key, redactedQuery)
		}
	}
	u.RawQuery = q.Encode()
	u.User = nil
	return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	Op      string
	Status  int
	Title   string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: api error %d: %s", e.Op, e.Status, e.Message)
}

// IsAPIStatus reports whether err is an APIError with the given status.
func IsAPIStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type errorEnvelope struct {
	Error struct {
		Status  int    `json:"status"`
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIError(op string, res *resty.Response) *APIError {
	apiErr := &APIError{
		Op:     op,
		Status: res.StatusCode(),
		Title:  http.StatusText(res.StatusCode()),
	}

	var env errorEnvelope
	if err := json.Unmarshal(res.Body(), &env); err == nil {
		if env.Error.Title != "" {
			apiErr.Title = env.Error.Title
		}
		apiErr.Message = env.Error.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = apiErr.Title
	}
	if apiErr.Message == "" {
		apiErr.Message = res.Status()
	}
	return apiErr
}
