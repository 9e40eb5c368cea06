// Package auth provides the authentication backends used by the auth store.
//
// Mock reproduces a fixed single-user backend with simulated latency. JWT
// issues and verifies HMAC-signed tokens for a static user table.
package auth

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
)

// ErrorCode is the code carried by every authentication error.
const ErrorCode = "AUTH_ERROR"

// User-facing messages.
const (
	MessageRequired           = "Username and password are required"
	MessageInvalidCredentials = "Invalid credentials"
)

var (
	// ErrMissingCredentials is the cause of errors for empty credentials.
	ErrMissingCredentials = errors.New("auth: missing credentials")

	// ErrInvalidCredentials is the cause of errors for rejected credentials.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidToken is returned by Verify for tokens that fail validation.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Credentials is a login request.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &Error{Message: MessageRequired, Code: ErrorCode, Err: errors.Join(ErrMissingCredentials, err)}
	}
	return nil
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (token string, err error)
}

// Verifier is implemented by authenticators that can check a token they
// issued, for example after restoring it from a cache.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// Error is an authentication failure as shown to users.
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code"`

	// Err is the underlying cause, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsError converts err to an *Error, wrapping it with ErrorCode if it is
// not one already. It returns nil for a nil error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Message: err.Error(), Code: ErrorCode, Err: err}
}

func invalidCredentials() *Error {
	return &Error{Message: MessageInvalidCredentials, Code: ErrorCode, Err: ErrInvalidCredentials}
}
