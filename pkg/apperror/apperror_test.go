package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCode(t *testing.T) {
	cases := map[*AppError]int{
		Validation("bad"):                  http.StatusBadRequest,
		Authentication("nope"):             http.StatusUnauthorized,
		Forbidden("denied"):                http.StatusForbidden,
		NotFound("missing"):                http.StatusNotFound,
		Conflict("taken"):                  http.StatusConflict,
		TooManyRequests("slow down"):       http.StatusTooManyRequests,
		Internal("boom", errors.New("db")): http.StatusInternalServerError,
	}

	for appErr, expected := range cases {
		if got := appErr.StatusCode(); got != expected {
			t.Fatalf("kind %s: expected status %d, got %d", appErr.Kind, expected, got)
		}
	}
}

func TestWrappedErrors(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("load user: %w", Internal("failed loading user", cause))

	t.Run("As finds the app error through wrapping", func(t *testing.T) {
		appErr, ok := As(wrapped)
		if !ok {
			t.Fatal("expected AppError in chain")
		}
		if appErr.Message != "failed loading user" {
			t.Fatalf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("Is matches on kind", func(t *testing.T) {
		if !Is(wrapped, KindInternal) {
			t.Fatal("expected internal kind")
		}
		if Is(wrapped, KindConflict) {
			t.Fatal("did not expect conflict kind")
		}
	})

	t.Run("underlying error stays reachable", func(t *testing.T) {
		if !errors.Is(wrapped, cause) {
			t.Fatal("expected errors.Is to reach the cause")
		}
	})

	t.Run("plain errors are not app errors", func(t *testing.T) {
		if _, ok := As(errors.New("plain")); ok {
			t.Fatal("expected no AppError")
		}
	})
}

func TestErrorString(t *testing.T) {
	if got := NotFound("User not found").Error(); got != "User not found" {
		t.Fatalf("unexpected error string %q", got)
	}
	if got := Internal("failed", errors.New("timeout")).Error(); got != "failed: timeout" {
		t.Fatalf("unexpected error string %q", got)
	}
}
