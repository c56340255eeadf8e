package http

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/domain/entity"
	domainErrors "github.com/founderlab/fl-stripe-server/internal/domain/errors"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/metrics"
	"github.com/founderlab/fl-stripe-server/internal/middleware/auth"
	"github.com/founderlab/fl-stripe-server/internal/usecase"
	apperrors "github.com/founderlab/fl-stripe-server/pkg/errors"
)

type createCardRequest struct {
	Token string `json:"token" form:"token" validate:"omitempty,max=255,printascii"`
}

type setDefaultCardRequest struct {
	CardID string `json:"cardId" form:"cardId" validate:"omitempty,max=255,printascii"`
}

type chargeRequest struct {
	Amount chargeAmount `json:"amount" form:"amount"`
}

// chargeAmount accepts the amount as a JSON number or a numeric string.
type chargeAmount int64

func (a *chargeAmount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	return a.UnmarshalParam(raw)
}

// UnmarshalParam implements echo.BindUnmarshaler for form and query values.
func (a *chargeAmount) UnmarshalParam(param string) error {
	if param == "" {
		return nil
	}
	v, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", param, err)
	}
	*a = chargeAmount(v)
	return nil
}

type listCustomersRequest struct {
	Page     int    `json:"page" validate:"omitempty,min=1"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=100"`
	OwnerID  string `json:"owner_id" validate:"omitempty,max=255"`
	StripeID string `json:"stripe_id" validate:"omitempty,max=255"`
}

// StripeController serves the card, charge and subscription routes.
type StripeController struct {
	options  ControllerOptions
	service  *usecase.CardService
	validate *validator.Validate
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewStripeController creates a controller from opts, filling in defaults.
func NewStripeController(opts ControllerOptions) (*StripeController, error) {
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}

	service := usecase.NewCardService(
		opts.Customers,
		opts.Gateway,
		usecase.CardServiceConfig{
			CardWhitelist: opts.CardWhitelist,
			Currency:      opts.Currency,
			MaxAmount:     opts.MaxAmount,
		},
		opts.OnSubscribe,
		opts.Logger,
	)

	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &StripeController{
		options:  opts,
		service:  service,
		validate: validate,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}, nil
}

// Service exposes the transport-free operations.
func (h *StripeController) Service() *usecase.CardService {
	return h.service
}

// Register mounts the routes under the configured prefix.
func (h *StripeController) Register(e *echo.Echo) {
	group := e.Group(h.options.Route)

	// Public
	group.GET("/plans", h.ListPlans)

	protected := group.Group("", h.options.Auth...)
	protected.POST("/cards", h.CreateCard, h.access(usecase.ActionCreateCard))
	protected.GET("/cards", h.ListCards, h.access(usecase.ActionListCards))
	protected.PUT("/cards/default", h.SetDefaultCard, h.access(usecase.ActionSetDefaultCard))
	protected.DELETE("/cards/:id", h.DeleteCard, h.access(usecase.ActionDeleteCard))
	protected.POST("/charge", h.ChargeCustomer, h.access(usecase.ActionCharge))
	protected.GET("/subscription", h.ShowSubscription, h.access(usecase.ActionShowSubscription))
	protected.PUT("/subscribe/:planId", h.SubscribeToPlan, h.access(usecase.ActionSubscribe))

	// Admin
	protected.GET("/customers", h.ListCustomers, auth.RequireAccess(usecase.ActionListCustomers, h.logger))

	h.logger.Info("Stripe controller registered",
		zap.String("route", h.options.Route),
		zap.Bool("manual_authorization", h.options.ManualAuthorization),
		zap.String("provider", h.options.Gateway.GetProviderName()),
	)
}

// access returns the ownership check for action, or a pass-through when authorization is manual.
func (h *StripeController) access(action usecase.Action) echo.MiddlewareFunc {
	if h.options.ManualAuthorization {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return auth.RequireAccess(action, h.logger)
}

func (h *StripeController) record(operation string, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.Operations.WithLabelValues(operation, metrics.Result(err)).Inc()
}

// fail logs err once and writes it as a JSON error response.
func (h *StripeController) fail(c echo.Context, operation string, err error) error {
	apperrors.LogError(h.logger, err, "Stripe controller error",
		zap.String("operation", operation),
		zap.String("path", c.Request().URL.Path),
	)
	status, body := apperrors.ToHTTPResponse(err)
	return c.JSON(status, body)
}

func (h *StripeController) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.InvalidArgument(validationMessage(err), err)
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !apperrors.As(err, &verrs) {
		return "[fl-stripe-server] Invalid request"
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
	}
	return "[fl-stripe-server] Invalid request fields: " + strings.Join(fields, ", ")
}

// CreateCard handles POST /cards
func (h *StripeController) CreateCard(c echo.Context) error {
	const op = "create_card"

	var req createCardRequest
	if err := h.bind(c, &req); err != nil {
		h.record(op, err)
		return h.fail(c, op, err)
	}
	owner, err := auth.Owner(c)
	if err != nil {
		return h.unauthenticated(c)
	}

	card, err := h.service.CreateCard(c.Request().Context(), owner, req.Token)
	h.record(op, err)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, card)
}

// ListCards handles GET /cards
func (h *StripeController) ListCards(c echo.Context) error {
	const op = "list_cards"

	owner, err := auth.Owner(c)
	if err != nil {
		return h.unauthenticated(c)
	}

	cards, err := h.service.ListCards(c.Request().Context(), owner.ID)
	h.record(op, err)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, cards)
}

// SetDefaultCard handles PUT /cards/default
func (h *StripeController) SetDefaultCard(c echo.Context) error {
	const op = "set_default_card"

	var req setDefaultCardRequest
	if err := h.bind(c, &req); err != nil {
		h.record(op, err)
		return h.fail(c, op, err)
	}
	owner, err := auth.Owner(c)
	if err != nil {
		return h.unauthenticated(c)
	}

	result, err := h.service.SetDefaultCard(c.Request().Context(), owner.ID, req.CardID)
	h.record(op, err)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, result)
}

// DeleteCard handles DELETE /cards/:id
func (h *StripeController) DeleteCard(c echo.Context) error {
	const op = "delete_card"

	owner, err := auth.Owner(c)
	if err != nil {
		return h.unauthenticated(c)
	}

	result, err := h.service.DeleteCard(c.Request().Context(), owner.ID, c.Param("id"))
	h.record(op, err)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ChargeCustomer handles POST /charge
func (h *StripeController) ChargeCustomer(c echo.Context) error {
	const op = "charge"

	var req chargeRequest
	if err := h.bind(c, &req); err != nil {
		if apperrors.CodeOf(err) != apperrors.ErrInvalidArgument {
			err = apperrors.InvalidArgument("[fl-stripe-server] Missing an amount to charge",
				fmt.Errorf("%w: %v", domainErrors.ErrMissingAmount, err))
		}
		h.record(op, err)
		return h.fail(c, op, err)
	}
	owner, err := auth.Owner(c)
	if err != nil {
		return h.unauthenticated(c)
	}

	result, err := h.service.ChargeCustomer(c.Request().Context(), owner.ID, int64(req.Amount))
	h.record(op, err)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ListPlans handles GET /plans
func (h *StripeController) ListPlans(c echo.Context) error {
	const op = "list_plans"

	plans, err := h.service.ListPlans(c.Request().Context())
	h.record(op, err)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, plans)
}

// ShowSubscription handles GET /subscription
func (h *StripeController) ShowSubscription(c echo.Context) error {
	const op = "show_subscription"

	owner, err := auth.Owner(c)
	if err != nil {
		return h.unauthenticated(c)
	}

	sub, err := h.service.ShowSubscription(c.Request().Context(), owner.ID)
	h.record(op, err)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, sub)
}

// SubscribeToPlan handles PUT /subscribe/:planId
func (h *StripeController) SubscribeToPlan(c echo.Context) error {
	const op = "subscribe"

	owner, err := auth.Owner(c)
	if err != nil {
		return h.unauthenticated(c)
	}

	result, err := h.service.SubscribeToPlan(c.Request().Context(), owner, c.Param("planId"))
	h.record(op, err)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ListCustomers handles GET /customers
func (h *StripeController) ListCustomers(c echo.Context) error {
	const op = "list_customers"

	var req listCustomersRequest
	var hasSubscription *bool
	err := echo.QueryParamsBinder(c).
		Int("page", &req.Page).
		Int("limit", &req.Limit).
		String("owner_id", &req.OwnerID).
		String("stripe_id", &req.StripeID).
		BindError()
	if err == nil {
		err = h.validate.Struct(&req)
		if err != nil {
			err = apperrors.InvalidArgument(validationMessage(err), err)
		}
	}
	if err == nil {
		if raw := c.QueryParam("has_subscription"); raw != "" {
			v, parseErr := strconv.ParseBool(raw)
			if parseErr != nil {
				err = apperrors.InvalidArgument("[fl-stripe-server] Invalid has_subscription", parseErr)
			}
			hasSubscription = &v
		}
	}
	if err != nil {
		h.record(op, err)
		return h.fail(c, op, err)
	}

	page, err := h.service.ListCustomers(c.Request().Context(), entity.CustomerQuery{
		OwnerID:         req.OwnerID,
		StripeID:        req.StripeID,
		HasSubscription: hasSubscription,
		Pagination:      entity.PaginationParams{Page: req.Page, Limit: req.Limit},
	})
	h.record(op, err)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *StripeController) unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"error": "Authentication required",
		"code":  apperrors.ErrUnauthenticated,
	})
}
