package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestNormalizePath verifies dynamic segments collapse to keep metric
// cardinality bounded.
func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/api/courses", "/api/courses"},
		{"/api/courses/intro-streaming", "/api/courses/{id}"},
		{"/api/lessons/42", "/api/lessons/{id}"},
		{"/videos/video-1755900000000-a1b2c3.mp4", "/videos/video-1755900000000-a1b2c3.mp4"},
		{"/admin/lessons/42", "/admin/lessons/{id}"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsPassesThrough verifies the middleware does not alter responses.
func TestMetricsPassesThrough(t *testing.T) {
	t.Parallel()

	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("accepted"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/courses", nil))

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if rec.Body.String() != "accepted" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "accepted")
	}
}

// TestMetricsSkipsConfiguredPaths verifies skipped paths still serve.
func TestMetricsSkipsConfiguredPaths(t *testing.T) {
	t.Parallel()

	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/metrics", "/healthz", "/livez", "/readyz"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}
