package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/dweeb/marketplace/internal/api/authctx"
	"github.com/dweeb/marketplace/internal/core/ports"
	"github.com/dweeb/marketplace/internal/pkg/validation"
)

type FeeHandler struct {
	fees ports.FeeService
}

func NewFeeHandler(fees ports.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

type quoteRequest struct {
	Amount int64 `query:"amount" json:"amount" validate:"required,gt=0"`
}

// Quote godoc
// @Summary      Quote the platform fee
// @Description  Splits an amount in minor units between the platform and the developer. Amounts are returned as strings.
// @Tags         fees
// @Produce      json
// @Security     BearerAuth
// @Param        amount  query     int  true  "Amount in minor units"
// @Success      200     {object}  domain.FeeQuote
// @Failure      400     {object}  response.Failure
// @Failure      401     {object}  response.Failure
// @Router       /api/fees/quote [get]
func (h *FeeHandler) Quote(c echo.Context, _ *authctx.RequestContext) (any, error) {
	var req quoteRequest
	if err := c.Bind(&req); err != nil {
		return nil, validation.NewError("amount", "amount must be an integer")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	return h.fees.Quote(req.Amount)
}
