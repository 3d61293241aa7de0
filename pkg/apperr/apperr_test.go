package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(Validation("bad input")); got != KindValidation {
		t.Errorf("expected KindValidation, got %v", got)
	}
	if got := KindOf(errors.New("plain")); got != 0 {
		t.Errorf("expected 0 for unclassified error, got %v", got)
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("already submitted"))
	if !IsKind(err, KindConflict) {
		t.Error("expected wrapped conflict to keep its kind")
	}
}

func TestIs_MatchesByKind(t *testing.T) {
	err := NotFound("schema %s", "abc")
	if !errors.Is(err, NotFound("")) {
		t.Error("expected errors.Is to match by kind")
	}
	if errors.Is(err, Conflict("")) {
		t.Error("expected kinds to differ")
	}
}

func TestExternal_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := External("transcription", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
	if err.Error() != "transcription: connection refused" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{Conflict("x"), http.StatusConflict},
		{Authorization("x"), http.StatusForbidden},
		{Storage(errors.New("down")), http.StatusBadGateway},
		{External("ai", errors.New("down")), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
