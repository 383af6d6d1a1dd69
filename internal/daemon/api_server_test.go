package daemon

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		token  string
		path   string
		header string
		want   int
	}{
		{"no token configured", "", "/api/sessions", "", http.StatusNoContent},
		{"missing header", "abc", "/api/sessions", "", http.StatusUnauthorized},
		{"wrong scheme", "abc", "/api/sessions", "Basic abc", http.StatusUnauthorized},
		{"wrong token", "abc", "/api/sessions", "Bearer abd", http.StatusUnauthorized},
		{"valid token", "abc", "/api/sessions", "Bearer abc", http.StatusNoContent},
		{"health is open", "abc", "/api/health", "", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			authMiddleware(tc.token)(ok).ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestAPIServerDisabledWithoutBind(t *testing.T) {
	var srv *apiServer
	if err := srv.start(t.Context()); err != nil {
		t.Fatalf("nil server start: %v", err)
	}
	srv.stop()
	if srv.addr() != "" {
		t.Fatal("nil server should have no address")
	}
}
