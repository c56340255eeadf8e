package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/domain/entity"
	"github.com/founderlab/fl-stripe-server/internal/usecase"
)

const testSecret = "test-secret"

func createJWT(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, secret interface{}) string {
	t.Helper()

	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	claims["iat"] = time.Now().Unix()

	tokenString, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return tokenString
}

func createValidJWT(t *testing.T, userID interface{}, email, role string) string {
	return createJWT(t, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
	}, jwt.SigningMethodHS256, []byte(testSecret))
}

func runMiddleware(t *testing.T, config JWTConfig, authHeader string) (*httptest.ResponseRecorder, *entity.Principal) {
	t.Helper()

	e := echo.New()
	var seen *entity.Principal
	handler := JWTMiddleware(config)(func(c echo.Context) error {
		principal, err := GetPrincipal(c)
		require.NoError(t, err)
		seen = principal
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/stripe/cards", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()

	err := handler(e.NewContext(req, rec))
	require.NoError(t, err) // Middleware handles the error response
	return rec, seen
}

func TestJWTMiddleware_SuccessfulAuthentication(t *testing.T) {
	config := JWTConfig{Secret: testSecret, Logger: zap.NewNop()}

	rec, principal := runMiddleware(t, config, "Bearer "+createValidJWT(t, "user-1", "test@example.com", "member"))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, principal)
	assert.Equal(t, "user-1", principal.ID)
	assert.Equal(t, "test@example.com", principal.Email)
	assert.False(t, principal.Admin)
}

func TestJWTMiddleware_Claims(t *testing.T) {
	tests := []struct {
		name      string
		config    JWTConfig
		claims    jwt.MapClaims
		wantID    string
		wantAdmin bool
	}{
		{
			name:      "admin role",
			config:    JWTConfig{Secret: testSecret},
			claims:    jwt.MapClaims{"sub": "root", "role": "admin"},
			wantID:    "root",
			wantAdmin: true,
		},
		{
			name:      "admin flag",
			config:    JWTConfig{Secret: testSecret},
			claims:    jwt.MapClaims{"sub": "root", "admin": true},
			wantID:    "root",
			wantAdmin: true,
		},
		{
			name:      "custom admin role",
			config:    JWTConfig{Secret: testSecret, AdminRole: "staff"},
			claims:    jwt.MapClaims{"sub": "s1", "role": "staff"},
			wantID:    "s1",
			wantAdmin: true,
		},
		{
			name:   "numeric id",
			config: JWTConfig{Secret: testSecret},
			claims: jwt.MapClaims{"sub": 12345},
			wantID: "12345",
		},
		{
			name:   "custom owner claim",
			config: JWTConfig{Secret: testSecret, OwnerClaim: "user_id"},
			claims: jwt.MapClaims{"sub": "ignored", "user_id": "u-9"},
			wantID: "u-9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := createJWT(t, tt.claims, jwt.SigningMethodHS256, []byte(testSecret))
			rec, principal := runMiddleware(t, tt.config, "Bearer "+token)

			assert.Equal(t, http.StatusOK, rec.Code)
			require.NotNil(t, principal)
			assert.Equal(t, tt.wantID, principal.ID)
			assert.Equal(t, tt.wantAdmin, principal.Admin)
		})
	}
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	config := JWTConfig{Secret: testSecret, Logger: zap.NewNop()}

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{
			name:     "missing header",
			header:   "",
			wantCode: "MISSING_AUTH_HEADER",
		},
		{
			name:     "no bearer prefix",
			header:   createValidJWT(t, "user-1", "", ""),
			wantCode: "INVALID_AUTH_FORMAT",
		},
		{
			name:     "wrong secret",
			header:   "Bearer " + createJWT(t, jwt.MapClaims{"sub": "user-1"}, jwt.SigningMethodHS256, []byte("other")),
			wantCode: "INVALID_TOKEN",
		},
		{
			name: "expired",
			header: "Bearer " + createJWT(t, jwt.MapClaims{
				"sub": "user-1",
				"exp": time.Now().Add(-time.Minute).Unix(),
			}, jwt.SigningMethodHS256, []byte(testSecret)),
			wantCode: "INVALID_TOKEN",
		},
		{
			name:     "unsigned",
			header:   "Bearer " + createJWT(t, jwt.MapClaims{"sub": "user-1"}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
			wantCode: "INVALID_TOKEN",
		},
		{
			name:     "no owner claim",
			header:   "Bearer " + createJWT(t, jwt.MapClaims{"email": "a@b.c"}, jwt.SigningMethodHS256, []byte(testSecret)),
			wantCode: "INVALID_CLAIMS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			handler := JWTMiddleware(config)(func(c echo.Context) error {
				t.Fatal("handler must not run")
				return nil
			})

			req := httptest.NewRequest(http.MethodGet, "/api/stripe/cards", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			require.NoError(t, handler(e.NewContext(req, rec)))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestJWTMiddleware_SkipPaths(t *testing.T) {
	config := JWTConfig{Secret: testSecret, SkipPaths: []string{"/api/stripe/plans"}}

	e := echo.New()
	handler := JWTMiddleware(config)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/stripe/plans", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_NoPrincipal(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	principal, err := RequireAuth(c)
	assert.Nil(t, principal)
	assert.NoError(t, err) // the 401 was written
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAccess(t *testing.T) {
	user := &entity.Principal{ID: "42", Email: "u@example.com"}
	admin := &entity.Principal{ID: "1", Admin: true}

	tests := []struct {
		name       string
		principal  *entity.Principal
		query      string
		action     usecase.Action
		wantStatus int
		wantOwner  string
	}{
		{"own records", user, "", usecase.ActionListCards, http.StatusOK, "42"},
		{"own records by id", user, "?owner_id=42", usecase.ActionListCards, http.StatusOK, "42"},
		{"other owner", user, "?owner_id=43", usecase.ActionListCards, http.StatusForbidden, ""},
		{"admin for other owner", admin, "?owner_id=43", usecase.ActionCharge, http.StatusOK, "43"},
		{"anonymous", nil, "", usecase.ActionListCards, http.StatusForbidden, ""},
		{"customer listing", user, "", usecase.ActionListCustomers, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			var owner *entity.Principal
			handler := RequireAccess(tt.action, zap.NewNop())(func(c echo.Context) error {
				var err error
				owner, err = Owner(c)
				require.NoError(t, err)
				return c.NoContent(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/cards"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.principal != nil {
				SetPrincipal(c, tt.principal)
			}

			require.NoError(t, handler(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantOwner != "" {
				require.NotNil(t, owner)
				assert.Equal(t, tt.wantOwner, owner.ID)
			}
		})
	}
}

func TestOwner_EmailOnlyForSelf(t *testing.T) {
	admin := &entity.Principal{ID: "1", Email: "admin@example.com", Admin: true}
	user := &entity.Principal{ID: "42", Email: "u@example.com"}

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/cards?owner_id=43", nil), httptest.NewRecorder())
	SetPrincipal(c, admin)

	owner, err := Owner(c)
	require.NoError(t, err)
	assert.Equal(t, &entity.Principal{ID: "43"}, owner)

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/cards?owner_id=43", nil), httptest.NewRecorder())
	SetPrincipal(c, user)

	owner, err = Owner(c)
	require.NoError(t, err)
	assert.Equal(t, user, owner)
}
