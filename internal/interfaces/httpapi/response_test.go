package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/pitchsider/match-context/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantHTTP   int
		wantStatus string
	}{
		{"invalid input", fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput), http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"not found", fmt.Errorf("%w: fixture 42", usecase.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"fixture not found", fmt.Errorf("%w: fixture 42", usecase.ErrFixtureNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"busy", fmt.Errorf("%w: fixture 42", usecase.ErrBusy), http.StatusConflict, "ABORTED"},
		{"timeout", fmt.Errorf("%w: 180s", usecase.ErrTimeout), http.StatusGatewayTimeout, "DEADLINE_EXCEEDED"},
		{"unauthorized", fmt.Errorf("%w: token", usecase.ErrUnauthorized), http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"dependency", fmt.Errorf("%w: upstream", usecase.ErrDependencyUnavailable), http.StatusBadGateway, "UNAVAILABLE"},
		{"store failure", fmt.Errorf("%w: disk", usecase.ErrStoreFailure), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(context.Background(), rec, tc.err)

			if rec.Code != tc.wantHTTP {
				t.Fatalf("expected status %d, got %d", tc.wantHTTP, rec.Code)
			}

			var body map[string]any
			if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal response body: %v", err)
			}
			errorObj, ok := body["error"].(map[string]any)
			if !ok {
				t.Fatalf("expected error object in response")
			}
			if got, _ := errorObj["status"].(string); got != tc.wantStatus {
				t.Fatalf("expected error status %s, got %v", tc.wantStatus, errorObj["status"])
			}
		})
	}
}
