package fax

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/emr/emr/internal/platform/auth"
	"github.com/emr/emr/pkg/apperr"
	"github.com/emr/emr/pkg/pagination"
)

// WebhookSecretHeader carries the shared secret the carrier is configured to
// send with every status callback.
const WebhookSecretHeader = "X-Webhook-Secret"

type Handler struct {
	svc           *Service
	webhookSecret string
}

func NewHandler(svc *Service, webhookSecret string) *Handler {
	return &Handler{svc: svc, webhookSecret: webhookSecret}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole("admin", "clinician", "front_desk"))
	staff.POST("/faxes", h.RecordOutbound)
	staff.GET("/faxes", h.ListFaxes)
	staff.GET("/faxes/:id", h.GetFax)
}

// RegisterWebhook mounts the carrier callback outside the authenticated API
// group. The shared secret header stands in for JWT auth on this one route.
func (h *Handler) RegisterWebhook(e *echo.Echo) {
	e.POST("/webhooks/fax/status", h.StatusCallback)
}

func orgIDFrom(c echo.Context) (uuid.UUID, error) {
	orgID, err := uuid.Parse(auth.OrgIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing organization")
	}
	return orgID, nil
}

type recordOutboundRequest struct {
	ToNumber   string `json:"to_number"`
	FromNumber string `json:"from_number"`
	CarrierSID string `json:"carrier_sid"`
	MediaURL   string `json:"media_url"`
}

func (h *Handler) RecordOutbound(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	var req recordOutboundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f := &Fax{
		OrgID:      orgID,
		ToNumber:   req.ToNumber,
		FromNumber: req.FromNumber,
		CarrierSID: req.CarrierSID,
		MediaURL:   req.MediaURL,
	}
	if err := h.svc.RecordOutbound(c.Request().Context(), f); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) GetFax(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	f, err := h.svc.GetFax(c.Request().Context(), orgID, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) ListFaxes(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListFaxes(c.Request().Context(), orgID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) StatusCallback(c echo.Context) error {
	secret := c.Request().Header.Get(WebhookSecretHeader)
	if h.webhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook secret")
	}

	var cb StatusCallback
	if err := c.Bind(&cb); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f, err := h.svc.HandleStatusCallback(c.Request().Context(), cb)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, f)
}
