package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/configvars/pkg/configvars"
)

var fixedNow = time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

type staticSource struct {
	snap *Snapshot
}

func (s *staticSource) Snapshot() *Snapshot {
	return s.snap
}

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Variables: []configvars.ConfigVariable{
			{Name: "PORT", Value: "9000", Default: "8080", Desc: "listen port", Source: configvars.SourceEnv},
			{Name: "DEBUG", Value: "false", Default: "false", Source: configvars.SourceDefault},
			{Name: "API_TOKEN", Value: configvars.MaskedValue, Default: "", Secret: true, Source: configvars.SourceFile},
		},
		LocalModule:  "project.settings.local",
		ImportFailed: "project.settings.local",
		ResolvedAt:   fixedNow.Add(-time.Minute),
	}
}

func setupTestRouter(t *testing.T, snap *Snapshot) http.Handler {
	t.Helper()

	handler := NewHandler(&staticSource{snap: snap}, WithClock(func() time.Time { return fixedNow }))
	logger := zaptest.NewLogger(t)
	return NewRouter(handler, logger, WithLogging(false))
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	if got := requestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %s", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t, sampleSnapshot())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || !resp.Timestamp.Equal(fixedNow) {
		t.Fatalf("unexpected health response: %+v", resp)
	}
	if resp.ImportFailed != "project.settings.local" {
		t.Fatalf("expected import failure to be reported, got %q", resp.ImportFailed)
	}
}

func TestHealthEndpointBeforeFirstSnapshot(t *testing.T) {
	router := setupTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestVariablesEndpoint(t *testing.T) {
	router := setupTestRouter(t, sampleSnapshot())

	tests := map[string]struct {
		query     string
		wantNames []string
		wantValue map[string]string
	}{
		"all": {
			query:     "",
			wantNames: []string{"PORT", "DEBUG", "API_TOKEN"},
			wantValue: map[string]string{"PORT": "9000", "API_TOKEN": configvars.MaskedValue},
		},
		"changed": {
			query:     "?mode=changed",
			wantNames: []string{"PORT", "API_TOKEN"},
			wantValue: map[string]string{"PORT": "9000"},
		},
		"defaults": {
			query:     "?mode=defaults",
			wantNames: []string{"PORT", "DEBUG", "API_TOKEN"},
			wantValue: map[string]string{"PORT": "8080", "API_TOKEN": ""},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/variables"+tt.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rec.Code)
			}

			var resp variablesResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Count != len(tt.wantNames) || len(resp.Variables) != len(tt.wantNames) {
				t.Fatalf("expected %d variables, got %+v", len(tt.wantNames), resp)
			}
			for i, v := range resp.Variables {
				if v.Name != tt.wantNames[i] {
					t.Fatalf("variable %d: expected %s, got %s", i, tt.wantNames[i], v.Name)
				}
				if want, ok := tt.wantValue[v.Name]; ok && v.Value != want {
					t.Fatalf("%s: expected value %q, got %q", v.Name, want, v.Value)
				}
			}
			if resp.LocalModule != "project.settings.local" {
				t.Fatalf("unexpected local module %q", resp.LocalModule)
			}
		})
	}
}

func TestVariablesEndpointRejectsUnknownMode(t *testing.T) {
	router := setupTestRouter(t, sampleSnapshot())

	req := httptest.NewRequest(http.MethodGet, "/api/variables?mode=secret", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Suggestion == "" {
		t.Fatalf("expected suggestion in error response")
	}
}

func TestVariablesEndpointNotReady(t *testing.T) {
	router := setupTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/variables", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestVariableEndpoint(t *testing.T) {
	router := setupTestRouter(t, sampleSnapshot())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/variables/API_TOKEN", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var v configvars.ConfigVariable
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !v.Secret || v.Value != configvars.MaskedValue || v.Source != configvars.SourceFile {
		t.Fatalf("unexpected variable: %+v", v)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/variables/MISSING", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
