// Package response renders the JSON envelope shared by every API route:
// {"success": true, "data": ...} or {"success": false, "error": ..., "details": ...}.
package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dweeb/marketplace/internal/api/authctx"
	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/pkg/validation"
)

type Success struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error is an application error with its own status code.
type Error struct {
	Status  int
	Message string
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func NewError(status int, message string, details any) *Error {
	return &Error{Status: status, Message: message, Details: details}
}

func Unauthorized() *Error { return NewError(http.StatusUnauthorized, "Unauthorized", nil) }

func Forbidden() *Error { return NewError(http.StatusForbidden, "Forbidden", nil) }

// HandlerFunc is an API handler that returns its payload instead of writing it.
type HandlerFunc func(c echo.Context, rc *authctx.RequestContext) (any, error)

// Wrap adapts fn to echo. Errors are returned untouched so the HTTP error
// handler renders them through Resolve.
func Wrap(fn HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := fn(c, authctx.From(c))
		if err != nil {
			return err
		}
		// fn already answered, e.g. with a redirect
		if c.Response().Committed {
			return nil
		}
		return c.JSON(http.StatusOK, Success{Success: true, Data: data})
	}
}

type Options struct {
	// Production hides the message of unexpected errors.
	Production bool
	// MaskProviderHint reports a wrong-provider login as invalid credentials.
	MaskProviderHint bool
}

const (
	msgInvalidCredentials = "Invalid email or password"
	msgWrongProvider      = "Please sign in with your OAuth provider"
)

// Resolve maps err onto a status and failure body. unexpected is true when
// err is not part of the known taxonomy and should be logged.
func Resolve(err error, opts Options) (status int, body Failure, unexpected bool) {
	var (
		ve *validation.Error
		ae *Error
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, Failure{Error: "Validation Error", Details: ve.Fields}, false
	case errors.As(err, &ae):
		return ae.Status, Failure{Error: ae.Message, Details: ae.Details}, false
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, Failure{Error: msgInvalidCredentials}, false
	case errors.Is(err, domain.ErrWrongProvider):
		if opts.MaskProviderHint {
			return http.StatusUnauthorized, Failure{Error: msgInvalidCredentials}, false
		}
		return http.StatusUnauthorized, Failure{Error: msgWrongProvider}, false
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, Failure{Error: "User already exists"}, false
	case errors.Is(err, domain.ErrOAuthAccountNotLinked), errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict, Failure{Error: "Email already registered with another sign-in method"}, false
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, Failure{Error: "User not found"}, false
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, Failure{Error: "Forbidden"}, false
	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return he.Code, Failure{Error: msg}, false
	}

	body = Failure{Error: "Internal Server Error"}
	if !opts.Production {
		body.Message = err.Error()
	}
	return http.StatusInternalServerError, body, true
}
