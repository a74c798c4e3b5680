package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/dweeb/marketplace/internal/pkg/validation"
)

type echoValidator struct{}

// NewValidator returns the echo.Validator behind c.Validate. Failures are
// *validation.Error values keyed by JSON field name.
func NewValidator() echo.Validator {
	return echoValidator{}
}

func (echoValidator) Validate(i any) error {
	return validation.Struct(i)
}
