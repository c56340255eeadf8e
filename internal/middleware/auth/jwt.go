package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/domain/entity"
)

// contextKey is used for storing the principal in context
type contextKey string

const (
	principalContextKey contextKey = "authenticated_principal"
)

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	Secret string
	// OwnerClaim names the claim holding the user id. Defaults to "sub".
	OwnerClaim string
	// AdminRole is the "role" claim value that marks an administrator. Defaults to "admin".
	AdminRole string
	Logger    *zap.Logger
	SkipPaths []string // Paths to skip JWT validation
}

// JWTMiddleware creates a middleware that validates HMAC-signed bearer tokens and stores the
// resulting principal on the request context.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	if config.OwnerClaim == "" {
		config.OwnerClaim = "sub"
	}
	if config.AdminRole == "" {
		config.AdminRole = "admin"
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				config.Logger.Warn("Missing authorization header",
					zap.String("path", path),
					zap.String("method", c.Request().Method))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Authorization header required",
					"code":  "MISSING_AUTH_HEADER",
				})
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				config.Logger.Warn("Invalid authorization header format",
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid authorization header format. Expected: Bearer <token>",
					"code":  "INVALID_AUTH_FORMAT",
				})
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(config.Secret), nil
			})
			if err != nil {
				config.Logger.Warn("JWT validation failed",
					zap.Error(err),
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid or expired token",
					"code":  "INVALID_TOKEN",
				})
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				config.Logger.Warn("Invalid JWT claims", zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid token claims",
					"code":  "INVALID_CLAIMS",
				})
			}

			principal := principalFromClaims(claims, config.OwnerClaim, config.AdminRole)
			if principal.ID == "" {
				config.Logger.Warn("Token has no owner claim",
					zap.String("claim", config.OwnerClaim),
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid token claims",
					"code":  "INVALID_CLAIMS",
				})
			}

			SetPrincipal(c, principal)

			config.Logger.Debug("User authenticated successfully",
				zap.String("user_id", principal.ID),
				zap.Bool("admin", principal.Admin),
				zap.String("path", path))

			return next(c)
		}
	}
}

// principalFromClaims accepts string and numeric user ids.
func principalFromClaims(claims jwt.MapClaims, ownerClaim, adminRole string) *entity.Principal {
	principal := &entity.Principal{}

	switch id := claims[ownerClaim].(type) {
	case string:
		principal.ID = id
	case float64:
		principal.ID = strconv.FormatInt(int64(id), 10)
	}

	principal.Email, _ = claims["email"].(string)
	role, _ := claims["role"].(string)
	admin, _ := claims["admin"].(bool)
	principal.Admin = admin || (role != "" && role == adminRole)

	return principal
}

// SetPrincipal stores an authenticated principal on the request. Custom auth chains call it in
// place of JWTMiddleware.
func SetPrincipal(c echo.Context, principal *entity.Principal) {
	ctx := context.WithValue(c.Request().Context(), principalContextKey, principal)
	c.SetRequest(c.Request().WithContext(ctx))
	c.Set("user_id", principal.ID)
}

// GetPrincipal extracts the authenticated principal from the request context
func GetPrincipal(c echo.Context) (*entity.Principal, error) {
	principal, ok := c.Request().Context().Value(principalContextKey).(*entity.Principal)
	if !ok || principal == nil {
		return nil, fmt.Errorf("no authenticated user found in context")
	}
	return principal, nil
}

// RequireAuth is a helper function to get the principal or write a 401 response
func RequireAuth(c echo.Context) (*entity.Principal, error) {
	principal, err := GetPrincipal(c)
	if err != nil {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "Authentication required",
			"code":  "AUTH_REQUIRED",
		})
	}
	return principal, nil
}
