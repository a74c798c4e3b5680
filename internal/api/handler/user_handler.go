package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/dweeb/marketplace/internal/api/authctx"
	"github.com/dweeb/marketplace/internal/api/response"
	"github.com/dweeb/marketplace/internal/core/ports"
)

type UserHandler struct {
	auth ports.AuthService
}

func NewUserHandler(auth ports.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

// Me godoc
// @Summary      Current user
// @Description  Full user record with role profiles, resolved from the session.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  response.Failure
// @Failure      404  {object}  response.Failure
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c echo.Context, rc *authctx.RequestContext) (any, error) {
	if !rc.Authenticated() {
		return nil, response.Unauthorized()
	}
	return h.auth.CurrentUser(c.Request().Context(), rc.User.ID)
}
