package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(Conflict, "visit already claimed")
	if KindOf(err) != Conflict {
		t.Errorf("expected Conflict, got %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Error("expected 0 kind for plain error")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(NotFound, "no such visit")
	outer := fmt.Errorf("claim consultation: %w", inner)
	if !IsKind(outer, NotFound) {
		t.Error("expected NotFound through fmt.Errorf wrap")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(Storage, cause, "update visit")
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
	if KindOf(err) != Storage {
		t.Errorf("expected Storage, got %v", KindOf(err))
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(Validation, "x"), http.StatusBadRequest},
		{New(NotFound, "x"), http.StatusNotFound},
		{New(Conflict, "x"), http.StatusConflict},
		{New(Precondition, "x"), http.StatusPreconditionFailed},
		{New(Storage, "x"), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestIsMatchesSameKind(t *testing.T) {
	a := New(Conflict, "a")
	b := New(Conflict, "b")
	if !errors.Is(a, b) {
		t.Error("expected two Conflict errors to match via errors.Is")
	}
	c := New(NotFound, "c")
	if errors.Is(a, c) {
		t.Error("expected Conflict not to match NotFound")
	}
}
