package fax

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func postCallback(t *testing.T, h *Handler, secret, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/fax/status", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if secret != "" {
		req.Header.Set(WebhookSecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.StatusCallback(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestStatusCallback_ValidSecret(t *testing.T) {
	svc := NewService(newMockFaxRepo())
	recordFax(t, svc, uuid.New(), "FX123")
	h := NewHandler(svc, "shh")

	rec := postCallback(t, h, "shh", `{"faxSid":"FX123","status":"delivered","pageCount":2}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStatusCallback_WrongSecret(t *testing.T) {
	h := NewHandler(NewService(newMockFaxRepo()), "shh")
	rec := postCallback(t, h, "wrong", `{"faxSid":"FX123","status":"delivered"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// An unset secret must fail closed, never open.
func TestStatusCallback_UnconfiguredSecretRejects(t *testing.T) {
	h := NewHandler(NewService(newMockFaxRepo()), "")
	rec := postCallback(t, h, "", `{"faxSid":"FX123","status":"delivered"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestStatusCallback_UnknownSIDIs404(t *testing.T) {
	h := NewHandler(NewService(newMockFaxRepo()), "shh")
	rec := postCallback(t, h, "shh", `{"faxSid":"FXmissing","status":"delivered"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
