package intake

import (
	"net/http"
	"time"

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
	staff := api.Group("", auth.RequireRole("admin", "clinician", "front_desk"))
	staff.POST("/assignments", h.CreateAssignment)
	staff.GET("/assignments", h.ListAssignments)
	staff.GET("/assignments/:id", h.GetAssignment)
	staff.POST("/assignments/:id/start", h.StartAssignment)
	staff.POST("/assignments/:id/submit", h.SubmitForm)
	staff.GET("/assignments/:id/submission", h.GetSubmissionByAssignment)
	staff.GET("/submissions", h.ListSubmissions)
	staff.GET("/submissions/:id", h.GetSubmission)
	staff.GET("/submissions/:id/thumbnail", h.SubmissionThumbnail)
}

// Bounds for submission image previews.
const (
	thumbnailMaxWidth  = 320
	thumbnailMaxHeight = 200
)

func orgIDFrom(c echo.Context) (uuid.UUID, error) {
	orgID, err := uuid.Parse(auth.OrgIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing organization")
	}
	return orgID, nil
}

type createAssignmentRequest struct {
	SchemaID  uuid.UUID  `json:"schema_id"`
	PatientID uuid.UUID  `json:"patient_id"`
	DueAt     *time.Time `json:"due_at,omitempty"`
}

func (h *Handler) CreateAssignment(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	var req createAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	assignedBy, _ := uuid.Parse(auth.ProviderIDFromContext(c.Request().Context()))
	a, err := h.svc.CreateAssignment(c.Request().Context(), orgID, req.SchemaID, req.PatientID, assignedBy, req.DueAt)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAssignment(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAssignment(c.Request().Context(), orgID, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAssignments(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAssignmentsByPatient(c.Request().Context(), orgID, patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) StartAssignment(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.StartAssignment(c.Request().Context(), orgID, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

type submitRequest struct {
	Answers []Answer `json:"answers"`
}

func (h *Handler) SubmitForm(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sub, err := h.svc.SubmitForm(c.Request().Context(), orgID, id, req.Answers)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, sub)
}

func (h *Handler) GetSubmission(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sub, err := h.svc.GetSubmission(c.Request().Context(), orgID, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) SubmissionThumbnail(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	fieldID := c.QueryParam("field")
	if fieldID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "field is required")
	}
	data, err := h.svc.SubmissionThumbnail(c.Request().Context(), orgID, id, fieldID, thumbnailMaxWidth, thumbnailMaxHeight)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.Blob(http.StatusOK, "image/png", data)
}

func (h *Handler) GetSubmissionByAssignment(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sub, err := h.svc.GetSubmissionByAssignment(c.Request().Context(), orgID, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) ListSubmissions(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListSubmissionsByPatient(c.Request().Context(), orgID, patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
