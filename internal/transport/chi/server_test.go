package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	healthuc "github.com/laminadb/lamina/internal/usecase/health"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func TestHealthCheck_OK(t *testing.T) {
	srv := NewServer(healthuc.New(okPinger{}), zap.NewNop())
	h := srv.Routes(nil)

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != string(healthuc.Healthy) {
		t.Errorf("status = %q, want %q", resp.Status, healthuc.Healthy)
	}
	if resp.Checks["store"] != healthuc.CheckOK {
		t.Errorf("store check = %q, want %q", resp.Checks["store"], healthuc.CheckOK)
	}
}

func TestHealthCheck_Degraded_503(t *testing.T) {
	srv := NewServer(healthuc.New(failingPinger{}), zap.NewNop())
	h := srv.Routes(nil)

	req := httptest.NewRequest("GET", "/readyz", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestVersion(t *testing.T) {
	srv := NewServer(healthuc.New(nil), zap.NewNop())
	h := srv.Routes(nil)

	req := httptest.NewRequest("GET", "/version", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp versionResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Version == "" {
		t.Error("version must not be empty")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := NewServer(healthuc.New(nil), zap.NewNop())
	h := srv.Routes(nil)

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthGuardsVersion(t *testing.T) {
	srv := NewServer(healthuc.New(nil), zap.NewNop())
	h := srv.Routes([]string{"secret"})

	req := httptest.NewRequest("GET", "/version", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
