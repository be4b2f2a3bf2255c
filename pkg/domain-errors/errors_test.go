package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load lineage graph")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped error to match its cause with errors.Is")
	}
	if CodeOf(err) != CodeInternal {
		t.Fatalf("expected internal code, got %s", CodeOf(err))
	}
}

func TestHasCode(t *testing.T) {
	inner := New(CodeNotFound, "person not found")
	outer := Wrap(inner, CodeInternal, "evaluation failed")

	if !HasCode(outer, CodeInternal) {
		t.Fatal("expected outer code to match")
	}
	if !HasCode(outer, CodeNotFound) {
		t.Fatal("expected inner code to match through the chain")
	}
	if HasCode(outer, CodeConflict) {
		t.Fatal("did not expect conflict code")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Fatal("plain errors carry no code")
	}
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Fatal("expected plain errors to default to internal")
	}
	wrapped := fmt.Errorf("context: %w", New(CodeBadRequest, "bad depth"))
	if CodeOf(wrapped) != CodeBadRequest {
		t.Fatal("expected code to survive fmt wrapping")
	}
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeInternal:     http.StatusInternalServerError,
		Code("unknown"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := ToHTTPStatus(code); got != want {
			t.Fatalf("ToHTTPStatus(%s) = %d, want %d", code, got, want)
		}
	}
}
