package notes

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
	clinical := api.Group("", auth.RequireRole("admin", "clinician"))
	clinical.POST("/notes", h.CreateNote)
	clinical.GET("/notes", h.ListNotes)
	clinical.GET("/notes/:id", h.GetNote)
	clinical.PUT("/notes/:id", h.UpdateNote)
	clinical.DELETE("/notes/:id", h.DeleteNote)
	clinical.POST("/notes/:id/sign", h.SignNote)
	clinical.POST("/notes/:id/amend", h.AmendNote)
	clinical.POST("/notes/voice", h.CreateVoiceNote)
	clinical.POST("/notes/ai-draft", h.CreateAIDraft)
}

func orgIDFrom(c echo.Context) (uuid.UUID, error) {
	orgID, err := uuid.Parse(auth.OrgIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing organization")
	}
	return orgID, nil
}

func providerIDFrom(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.ProviderIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing provider identity")
	}
	return id, nil
}

type createNoteRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	Type      NoteType  `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags,omitempty"`
}

func (h *Handler) CreateNote(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	authorID, err := providerIDFrom(c)
	if err != nil {
		return err
	}
	var req createNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n := &ClinicalNote{
		OrgID:     orgID,
		PatientID: req.PatientID,
		AuthorID:  authorID,
		Type:      req.Type,
		Title:     req.Title,
		Body:      req.Body,
		Tags:      req.Tags,
	}
	if err := h.svc.CreateNote(c.Request().Context(), n); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) GetNote(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.GetNote(c.Request().Context(), orgID, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) ListNotes(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListNotesByPatient(c.Request().Context(), orgID, patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateNoteRequest struct {
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Tags    []string `json:"tags,omitempty"`
	Version int      `json:"version"`
}

func (h *Handler) UpdateNote(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.UpdateNote(c.Request().Context(), orgID, id, req.Title, req.Body, req.Tags, req.Version)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) DeleteNote(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteNote(c.Request().Context(), orgID, id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SignNote(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	signedBy, err := providerIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.SignNote(c.Request().Context(), orgID, id, signedBy)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) AmendNote(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	authorID, err := providerIDFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.AmendNote(c.Request().Context(), orgID, id, authorID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, n)
}

// CreateVoiceNote accepts a multipart upload with an "audio" part and returns
// the transcribed draft.
func (h *Handler) CreateVoiceNote(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	authorID, err := providerIDFrom(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.FormValue("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	fh, err := c.FormFile("audio")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audio file is required")
	}
	audio, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audio file is unreadable")
	}
	defer audio.Close()

	n, err := h.svc.CreateVoiceNote(c.Request().Context(), orgID, patientID, authorID,
		audio, fh.Header.Get("Content-Type"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, n)
}

type aiDraftRequest struct {
	PatientID    uuid.UUID `json:"patient_id"`
	Instructions string    `json:"instructions"`
}

func (h *Handler) CreateAIDraft(c echo.Context) error {
	orgID, err := orgIDFrom(c)
	if err != nil {
		return err
	}
	authorID, err := providerIDFrom(c)
	if err != nil {
		return err
	}
	var req aiDraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.CreateAIDraft(c.Request().Context(), orgID, req.PatientID, authorID, req.Instructions)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, n)
}
