package ttrss

import (
	"errors"
	"fmt"
)

// Error codes the server puts in content.error.
const (
	codeNotLoggedIn = "NOT_LOGGED_IN"
	codeLoginError  = "LOGIN_ERROR"
	codeAPIDisabled = "API_DISABLED"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidQuery     = errors.New("invalid query")
)

// TransportError is a connectivity or protocol failure: the exchange itself
// did not produce a decodable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError means the server refused the credentials or the session.
type AuthError struct {
	Op      string
	Message string
}

func (e *AuthError) Error() string {
	msg := e.Message
	switch e.Message {
	case codeLoginError:
		msg += " (check user and password)"
	case codeAPIDisabled:
		msg += " (enable API access in the account preferences)"
	}
	return fmt.Sprintf("%s: authentication failed: %s", e.Op, msg)
}

// RemoteError is an application-level rejection unrelated to authentication.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: server error: %s", e.Op, e.Message)
}

func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

func IsTransportError(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

func IsRemoteError(err error) bool {
	var rErr *RemoteError
	return errors.As(err, &rErr)
}
