package http_test

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/adapter/handler/http"
	"github.com/founderlab/fl-stripe-server/internal/adapter/repository"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/database"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/metrics"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/provider/memory"
	"github.com/founderlab/fl-stripe-server/internal/middleware/auth"
	"github.com/founderlab/fl-stripe-server/internal/usecase"
)

const secret = "controller-secret"

type testServer struct {
	echo    *echo.Echo
	gateway *memory.Provider
	metrics *metrics.Metrics
	events  []*usecase.SubscribeEvent
}

func newTestServer(t *testing.T, configure func(*http.ControllerOptions)) *testServer {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "stripe.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := &testServer{
		echo:    echo.New(),
		gateway: memory.New(memory.DefaultPlans()...),
		metrics: metrics.New(prometheus.NewRegistry()),
	}

	opts := http.ControllerOptions{
		Customers: repository.NewSQLiteStripeCustomerRepository(db),
		Gateway:   ts.gateway,
		OnSubscribe: func(_ context.Context, e *usecase.SubscribeEvent) error {
			ts.events = append(ts.events, e)
			return nil
		},
		Auth:    []echo.MiddlewareFunc{auth.JWTMiddleware(auth.JWTConfig{Secret: secret})},
		Logger:  zap.NewNop(),
		Metrics: ts.metrics,
	}
	if configure != nil {
		configure(&opts)
	}

	controller, err := http.NewStripeController(opts)
	require.NoError(t, err)
	controller.Register(ts.echo)
	return ts
}

func token(t *testing.T, userID string, admin bool) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   userID,
		"email": userID + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	if admin {
		claims["role"] = "admin"
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (ts *testServer) do(t *testing.T, method, path, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *stdhttp.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) doForm(t *testing.T, method, path, bearer, form string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)

	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func TestStripeController_CardLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	alice := token(t, "alice", false)

	rec := ts.do(t, stdhttp.MethodGet, "/api/stripe/cards", alice, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(t, stdhttp.MethodPost, "/api/stripe/cards", alice, `{"token":"tok_visa_4242"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	var first map[string]interface{}
	decode(t, rec, &first)
	assert.ElementsMatch(t, []string{"id", "country", "brand", "last4"}, keys(first))
	assert.Equal(t, "4242", first["last4"])

	rec = ts.do(t, stdhttp.MethodPost, "/api/stripe/cards", alice, `{"token":"tok_mastercard_4444"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var second map[string]interface{}
	decode(t, rec, &second)

	rec = ts.do(t, stdhttp.MethodPut, "/api/stripe/cards/default", alice, `{"cardId":"`+second["id"].(string)+`"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = ts.do(t, stdhttp.MethodGet, "/api/stripe/cards", alice, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var cards []map[string]interface{}
	decode(t, rec, &cards)
	require.Len(t, cards, 2)
	for _, card := range cards {
		assert.Equal(t, card["id"] == second["id"], card["default"])
	}

	rec = ts.do(t, stdhttp.MethodDelete, "/api/stripe/cards/"+first["id"].(string), alice, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"id":"`+first["id"].(string)+`"}`, rec.Body.String())

	rec = ts.do(t, stdhttp.MethodGet, "/api/stripe/cards", alice, "")
	decode(t, rec, &cards)
	require.Len(t, cards, 1)
	assert.Equal(t, second["id"], cards[0]["id"])

	assert.Equal(t, float64(2), testutil.ToFloat64(ts.metrics.Operations.WithLabelValues("create_card", "success")))
}

func TestStripeController_Charge(t *testing.T) {
	ts := newTestServer(t, func(o *http.ControllerOptions) { o.MaxAmount = 10000 })
	bob := token(t, "bob", false)

	rec := ts.do(t, stdhttp.MethodPost, "/api/stripe/charge", bob, `{"amount":500}`)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

	rec = ts.do(t, stdhttp.MethodPost, "/api/stripe/cards", bob, `{"token":"tok_visa"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = ts.do(t, stdhttp.MethodPost, "/api/stripe/charge", bob, `{}`)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "[fl-stripe-server] Missing an amount to charge")

	rec = ts.do(t, stdhttp.MethodPost, "/api/stripe/charge", bob, `{"amount":10001}`)
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "LIMIT_EXCEEDED")
	assert.Empty(t, ts.gateway.Charges())

	rec = ts.do(t, stdhttp.MethodPost, "/api/stripe/charge", bob, `{"amount":10000}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var result usecase.ChargeResult
	decode(t, rec, &result)
	assert.True(t, result.OK)
	assert.Equal(t, "100.00 AUD", result.Charge.DisplayAmount)
	assert.Len(t, ts.gateway.Charges(), 1)

	rec = ts.do(t, stdhttp.MethodPost, "/api/stripe/charge", bob, `{"amount":"lots"}`)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "[fl-stripe-server] Missing an amount to charge")
	assert.NotContains(t, rec.Body.String(), "Unmarshal")

	rec = ts.do(t, stdhttp.MethodPost, "/api/stripe/charge", bob, `{"amount":"250"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &result)
	assert.Equal(t, int64(250), result.Charge.Amount)

	rec = ts.doForm(t, stdhttp.MethodPost, "/api/stripe/charge", bob, "amount=125")
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &result)
	assert.Equal(t, int64(125), result.Charge.Amount)
	assert.Len(t, ts.gateway.Charges(), 3)
}

func TestStripeController_FormEncodedCards(t *testing.T) {
	ts := newTestServer(t, nil)
	grace := token(t, "grace", false)

	rec := ts.doForm(t, stdhttp.MethodPost, "/api/stripe/cards", grace, "token=tok_mastercard_4444")
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	var card map[string]interface{}
	decode(t, rec, &card)
	assert.Equal(t, "4444", card["last4"])

	rec = ts.do(t, stdhttp.MethodGet, "/api/stripe/cards", grace, "")
	var cards []map[string]interface{}
	decode(t, rec, &cards)
	require.Len(t, cards, 1)

	rec = ts.doForm(t, stdhttp.MethodPut, "/api/stripe/cards/default", grace, "cardId="+cards[0]["id"].(string))
	assert.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
}

func TestStripeController_CreateCardRequiresToken(t *testing.T) {
	ts := newTestServer(t, nil)
	heidi := token(t, "heidi", false)

	for _, rec := range []*httptest.ResponseRecorder{
		ts.do(t, stdhttp.MethodPost, "/api/stripe/cards", heidi, `{}`),
		ts.doForm(t, stdhttp.MethodPost, "/api/stripe/cards", heidi, "card=tok_visa"),
	} {
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "[fl-stripe-server] Missing a token")
	}

	rec := ts.do(t, stdhttp.MethodGet, "/api/stripe/customers?owner_id=heidi", token(t, "root", true), "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var page struct {
		Data []map[string]interface{} `json:"data"`
	}
	decode(t, rec, &page)
	assert.Empty(t, page.Data)
}

func TestStripeController_Subscriptions(t *testing.T) {
	ts := newTestServer(t, nil)
	carol := token(t, "carol", false)

	rec := ts.do(t, stdhttp.MethodGet, "/api/stripe/plans", "", "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var plans []usecase.PlanView
	decode(t, rec, &plans)
	require.Len(t, plans, 3)

	rec = ts.do(t, stdhttp.MethodPost, "/api/stripe/cards", carol, `{"token":"tok_visa"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = ts.do(t, stdhttp.MethodGet, "/api/stripe/subscription", carol, "")
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

	rec = ts.do(t, stdhttp.MethodPut, "/api/stripe/subscribe/pro", carol, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	var subscribed usecase.SubscribeResult
	decode(t, rec, &subscribed)
	assert.Equal(t, "pro", subscribed.Subscription.PlanID)

	require.Len(t, ts.events, 1)
	assert.Equal(t, "carol", ts.events[0].OwnerID)
	assert.Equal(t, "carol@example.com", ts.events[0].Email)

	rec = ts.do(t, stdhttp.MethodGet, "/api/stripe/subscription", carol, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), subscribed.Subscription.ID)

	rec = ts.do(t, stdhttp.MethodPut, "/api/stripe/subscribe/platinum", carol, "")
	assert.Equal(t, stdhttp.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Stripe error subscribing to plan")
	assert.NotContains(t, rec.Body.String(), "memory:")
}

func TestStripeController_Authorization(t *testing.T) {
	ts := newTestServer(t, nil)
	dave := token(t, "dave", false)
	admin := token(t, "root", true)

	rec := ts.do(t, stdhttp.MethodGet, "/api/stripe/cards", "", "")
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	rec = ts.do(t, stdhttp.MethodPost, "/api/stripe/cards", dave, `{"token":"tok_visa"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = ts.do(t, stdhttp.MethodGet, "/api/stripe/cards?owner_id=erin", dave, "")
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec = ts.do(t, stdhttp.MethodGet, "/api/stripe/customers", dave, "")
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec = ts.do(t, stdhttp.MethodGet, "/api/stripe/cards?owner_id=dave", admin, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var cards []map[string]interface{}
	decode(t, rec, &cards)
	assert.Len(t, cards, 1)

	rec = ts.do(t, stdhttp.MethodGet, "/api/stripe/customers?has_subscription=false&limit=10", admin, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var page struct {
		Data []struct {
			OwnerID string `json:"owner_id"`
		} `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	decode(t, rec, &page)
	assert.Equal(t, int64(1), page.Pagination.Total)
	assert.Equal(t, "dave", page.Data[0].OwnerID)

	rec = ts.do(t, stdhttp.MethodGet, "/api/stripe/customers?limit=1000", admin, "")
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec = ts.do(t, stdhttp.MethodGet, "/api/stripe/customers?has_subscription=maybe", admin, "")
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
}

func TestStripeController_ManualAuthorization(t *testing.T) {
	ts := newTestServer(t, func(o *http.ControllerOptions) {
		o.ManualAuthorization = true
		o.Route = "/billing"
	})
	dave := token(t, "dave", false)

	// Without the access middleware a non-admin owner_id is ignored rather than honored.
	rec := ts.do(t, stdhttp.MethodPost, "/billing/cards?owner_id=erin", dave, `{"token":"tok_visa"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = ts.do(t, stdhttp.MethodGet, "/billing/cards", dave, "")
	var cards []map[string]interface{}
	decode(t, rec, &cards)
	assert.Len(t, cards, 1)
}

func TestStripeController_Validation(t *testing.T) {
	ts := newTestServer(t, nil)
	frank := token(t, "frank", false)

	rec := ts.do(t, stdhttp.MethodPost, "/api/stripe/cards", frank, `{"token":"`+strings.Repeat("x", 300)+`"}`)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "token (max)")

	rec = ts.do(t, stdhttp.MethodPut, "/api/stripe/cards/default", frank, `{}`)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing a cardId")
}

func TestNewStripeController_RequiresDependencies(t *testing.T) {
	_, err := http.NewStripeController(http.ControllerOptions{})
	assert.Error(t, err)

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "stripe.db"), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	_, err = http.NewStripeController(http.ControllerOptions{
		Customers: repository.NewSQLiteStripeCustomerRepository(db),
	})
	assert.ErrorContains(t, err, "api key")
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
