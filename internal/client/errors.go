package client

import (
	"errors"
	"fmt"
)

// AuthenticationError is returned when splunkd rejects the credentials.
type AuthenticationError struct {
	URL    string
	Status int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for %s (status %d)", e.URL, e.Status)
}

// ConnectionError wraps DNS, socket and TLS failures reaching splunkd.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response other than 401.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// IsAuthError reports whether err wraps an *AuthenticationError.
func IsAuthError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsConnectionError reports whether err wraps a *ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a 404 from splunkd. Endpoints that only
// exist on some roles (cluster master, SHC) answer 404 elsewhere.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == 404
}
