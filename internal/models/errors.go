package models

import (
	"errors"
	"fmt"
)

// ErrAuthRequired is returned by mutating calls made without a login token.
// No request is sent in that case.
var ErrAuthRequired = errors.New("login required")

// ErrNothingToUpdate is returned by UpdateProfile when both fields are empty.
var ErrNothingToUpdate = errors.New("nothing to update")

// MalformedURLError reports a story URL that is not a parseable absolute URL.
type MalformedURLError struct {
	URL string
	Err error
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("malformed story url %q: %v", e.URL, e.Err)
}

func (e *MalformedURLError) Unwrap() error { return e.Err }
