package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/domain/entity"
	domainErrors "github.com/founderlab/fl-stripe-server/internal/domain/errors"
	"github.com/founderlab/fl-stripe-server/internal/usecase"
)

// OwnerQueryParam lets an administrator act on another owner's records.
const OwnerQueryParam = "owner_id"

// RequireAccess rejects requests whose principal may not perform action on the owner named by
// ?owner_id= (the caller when absent).
func RequireAccess(action usecase.Action, logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, _ := GetPrincipal(c)
			target := c.QueryParam(OwnerQueryParam)

			if !usecase.CanAccess(principal, action, target) {
				fields := []zap.Field{
					zap.Error(domainErrors.ErrAccessDenied),
					zap.String("action", string(action)),
					zap.String("target_owner", target),
					zap.String("path", c.Request().URL.Path),
				}
				if principal != nil {
					fields = append(fields, zap.String("user_id", principal.ID))
				}
				logger.Warn("Access denied", fields...)

				return c.JSON(http.StatusForbidden, echo.Map{
					"error": "Unauthorized",
					"code":  "UNAUTHORIZED",
				})
			}
			return next(c)
		}
	}
}

// Owner returns the principal the request acts for: the caller, or for administrators the owner
// named by ?owner_id=. The caller's email is only carried over when acting on their own records.
func Owner(c echo.Context) (*entity.Principal, error) {
	principal, err := GetPrincipal(c)
	if err != nil {
		return nil, err
	}

	target := c.QueryParam(OwnerQueryParam)
	if target == "" || target == principal.ID || !principal.Admin {
		return principal, nil
	}
	return &entity.Principal{ID: target}, nil
}
