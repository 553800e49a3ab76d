package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodeUnwrapsChain(t *testing.T) {
	base := Validation("file_too_large", errors.New("file exceeds 10 MiB"))
	wrapped := fmt.Errorf("ingest: %w", base)

	status, code := StatusCode(wrapped)
	if status != http.StatusBadRequest || code != "file_too_large" {
		t.Fatalf("want=400/file_too_large got=%d/%s", status, code)
	}
	if !IsKind(wrapped, KindValidation) {
		t.Fatalf("expected validation kind")
	}
	if IsKind(wrapped, KindUpstream) {
		t.Fatalf("unexpected upstream kind")
	}
}

func TestStatusCodeDefaultsToInternal(t *testing.T) {
	status, code := StatusCode(errors.New("boom"))
	if status != http.StatusInternalServerError || code != "internal_error" {
		t.Fatalf("want=500/internal_error got=%d/%s", status, code)
	}
}

func TestNewDerivesKind(t *testing.T) {
	cases := map[int]Kind{
		http.StatusNotFound:             KindNotFound,
		http.StatusUnauthorized:         KindPrecondition,
		http.StatusConflict:             KindPrecondition,
		http.StatusUnsupportedMediaType: KindValidation,
		http.StatusBadGateway:           KindUpstream,
		http.StatusInternalServerError:  KindInternal,
	}
	for status, want := range cases {
		if got := New(status, "x", nil).Kind; got != want {
			t.Fatalf("status %d: want=%s got=%s", status, want, got)
		}
	}
}
