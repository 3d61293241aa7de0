package forms

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/emr/emr/internal/platform/auth"
	"github.com/emr/emr/pkg/apperr"
	"github.com/emr/emr/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	builders := api.Group("", auth.RequireRole("admin", "clinician"))
	builders.POST("/form-schemas", h.CreateSchema)
	builders.PUT("/form-schemas/:id", h.UpdateSchema)
	builders.DELETE("/form-schemas/:id", h.DeleteSchema)
	builders.POST("/form-schemas/:id/elements", h.AddElement)
	builders.PUT("/form-schemas/:id/elements/:elementId", h.UpdateElement)
	builders.DELETE("/form-schemas/:id/elements/:elementId", h.RemoveElement)
	builders.PUT("/form-schemas/:id/elements/move", h.MoveElement)
	builders.PUT("/form-schemas/:id/elements/order", h.ReorderElements)

	readers := api.Group("", auth.RequireRole("admin", "clinician", "front_desk"))
	readers.GET("/form-schemas", h.ListSchemas)
	readers.GET("/form-schemas/:id", h.GetSchema)
	readers.GET("/form-schemas/:id/validation", h.CheckSchema)
}

func orgIDFrom(c echo.Context) (uuid.UUID, error) {
	orgID, err := uuid.Parse(auth.OrgIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing organization")
	}
	return orgID, nil
}

func (h *Handler) CreateSchema(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	var schema FormSchema
	if err := c.Bind(&schema); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	schema.OrgID = orgID
	if pid, err := uuid.Parse(auth.ProviderIDFromContext(c.Request().Context())); err == nil {
		schema.CreatedBy = pid
	}
	if err := h.svc.CreateSchema(c.Request().Context(), &schema); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, schema)
}

func (h *Handler) GetSchema(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	schema, err := h.svc.GetSchema(c.Request().Context(), orgID, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, schema)
}

func (h *Handler) UpdateSchema(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var schema FormSchema
	if err := c.Bind(&schema); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	schema.ID = id
	schema.OrgID = orgID
	updated, err := h.svc.UpdateSchema(c.Request().Context(), &schema)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteSchema(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSchema(c.Request().Context(), orgID, id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListSchemas(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListSchemas(c.Request().Context(), orgID, c.QueryParam("tag"), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type validationResponse struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (h *Handler) CheckSchema(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	errs, warnings, err := h.svc.CheckSchema(c.Request().Context(), orgID, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	resp := validationResponse{Valid: len(errs) == 0, Errors: []string{}, Warnings: []string{}}
	for _, e := range errs {
		resp.Errors = append(resp.Errors, e.Error())
	}
	resp.Warnings = append(resp.Warnings, warnings...)
	return c.JSON(http.StatusOK, resp)
}

type addElementRequest struct {
	Element  FormElement `json:"element"`
	Position *int        `json:"position,omitempty"`
}

func (h *Handler) AddElement(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req addElementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	position := -1
	if req.Position != nil {
		position = *req.Position
	}
	schema, err := h.svc.AddElement(c.Request().Context(), orgID, id, req.Element, position)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, schema)
}

func (h *Handler) UpdateElement(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var el FormElement
	if err := c.Bind(&el); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	el.ID = c.Param("elementId")
	schema, err := h.svc.UpdateElement(c.Request().Context(), orgID, id, el)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, schema)
}

func (h *Handler) RemoveElement(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	schema, err := h.svc.RemoveElement(c.Request().Context(), orgID, id, c.Param("elementId"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, schema)
}

type moveElementRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *Handler) MoveElement(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req moveElementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	schema, err := h.svc.MoveElement(c.Request().Context(), orgID, id, req.From, req.To)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, schema)
}

type reorderRequest struct {
	Order []string `json:"order"`
}

func (h *Handler) ReorderElements(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	schema, err := h.svc.ReorderElements(c.Request().Context(), orgID, id, req.Order)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, schema)
}
