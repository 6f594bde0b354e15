package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(cfg ...RouterConfig) chi.Router {
	r := chi.NewRouter()
	SetupRouter(r, cfg...)
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestHealthz(t *testing.T) {
	rr := serve(newTestRouter(), http.MethodGet, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("expected body 'ok', got %q", rr.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name string
		cfg  []RouterConfig
		code int
	}{
		{"no ready func", nil, http.StatusOK},
		{"ready func ok", []RouterConfig{{ReadyFunc: func() error { return nil }}}, http.StatusOK},
		{"ready func error", []RouterConfig{{ReadyFunc: func() error { return errors.New("db down") }}}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(newTestRouter(tt.cfg...), http.MethodGet, "/readyz")
			if rr.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rr.Code)
			}
			if rr.Body.String() == "" {
				t.Fatal("expected non-empty body")
			}
		})
	}
}

func TestPanicRecovery(t *testing.T) {
	r := newTestRouter()
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	rr := serve(r, http.MethodGet, "/boom")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on panic, got %d", rr.Code)
	}
}

func TestCORS_DefaultWildcard(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	r := newTestRouter()
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected CORS header to be set")
	}
}

func TestCORS_ConfiguredOriginRejectsOthers(t *testing.T) {
	r := newTestRouter(RouterConfig{CORSOrigins: "https://blog.example.com"})
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for foreign origin, got %q", got)
	}
}

func TestParseCORSOrigins(t *testing.T) {
	tests := map[string][]string{
		"":          {"*"},
		" , ":       {"*"},
		"https://a": {"https://a"},
		"https://blog.example.com , https://www.blog.example.com": {"https://blog.example.com", "https://www.blog.example.com"},
	}
	for raw, want := range tests {
		if got := parseCORSOrigins(raw); !reflect.DeepEqual(got, want) {
			t.Fatalf("parseCORSOrigins(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestRequestIDInjected(t *testing.T) {
	r := newTestRouter()
	var capturedID string
	r.Get("/id", func(w http.ResponseWriter, r *http.Request) {
		capturedID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := serve(r, http.MethodGet, "/id")
	if capturedID == "" {
		t.Fatal("expected request ID to be injected into context")
	}
	if rr.Header().Get("X-Request-Id") != capturedID {
		t.Fatalf("expected X-Request-Id %q, got %q", capturedID, rr.Header().Get("X-Request-Id"))
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newTestRouter(RouterConfig{Logger: zap.New(core)})
	r.Get("/teapot", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	serve(r, http.MethodGet, "/teapot")

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 access log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Fatalf("expected status 418 in log, got %v", fields["status"])
	}
	if fields["path"] != "/teapot" {
		t.Fatalf("expected path in log, got %v", fields["path"])
	}
}
