package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ibedc/change-management-backend/internal/domain"
	"github.com/ibedc/change-management-backend/internal/service"
	"github.com/ibedc/change-management-backend/internal/util"
)

const (
	contextUserKey  = "auth.user"
	contextTokenKey = "auth.token"
)

// RequireAuth resolves the bearer token to an account and stores it on the
// request context. Any failure is a 401; no detail about why leaks out.
func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if strings.TrimSpace(header) == "" {
				return c.JSON(http.StatusUnauthorized, util.Error("missing authorization header"))
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid authorization header"))
			}
			token := strings.TrimSpace(parts[1])
			account, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid or expired token"))
			}
			c.Set(contextUserKey, account)
			c.Set(contextTokenKey, token)
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) (*domain.Account, bool) {
	account, ok := c.Get(contextUserKey).(*domain.Account)
	return account, ok
}
