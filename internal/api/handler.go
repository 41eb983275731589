package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/eugenenazirov/configvars/internal/report"
	"github.com/eugenenazirov/configvars/pkg/configvars"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Snapshot is an immutable view of a resolved variable registry.
type Snapshot struct {
	Variables    []configvars.ConfigVariable
	LocalModule  string
	SettingsRoot string
	ImportFailed string
	ResolvedAt   time.Time
}

// SnapshotSource provides the latest snapshot. Implementations must be safe
// for concurrent use.
type SnapshotSource interface {
	Snapshot() *Snapshot
}

// ErrNoSnapshot is reported when no resolution has completed yet.
var ErrNoSnapshot = errors.New("no resolved configuration available")

// Handler serves resolved configuration over HTTP.
type Handler struct {
	source SnapshotSource
	clock  func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler reading snapshots from source.
func NewHandler(source SnapshotSource, opts ...HandlerOption) *Handler {
	h := &Handler{
		source: source,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	if snap := h.source.Snapshot(); snap != nil {
		resp.LocalModule = snap.LocalModule
		resp.ImportFailed = snap.ImportFailed
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleVariables(w http.ResponseWriter, r *http.Request) {
	mode, err := report.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid mode", err.Error(), "use one of: all, changed, defaults")
		return
	}

	snap := h.source.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "Not ready", ErrNoSnapshot.Error())
		return
	}

	vars := report.Select(snap.Variables, mode)
	resp := variablesResponse{
		Mode:        string(mode),
		Variables:   vars,
		Count:       len(vars),
		LocalModule: snap.LocalModule,
		ResolvedAt:  snap.ResolvedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleVariable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	snap := h.source.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "Not ready", ErrNoSnapshot.Error())
		return
	}

	for _, v := range snap.Variables {
		if v.Name == name {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Unknown variable", name+" is not registered")
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type variablesResponse struct {
	Mode        string                      `json:"mode"`
	Variables   []configvars.ConfigVariable `json:"variables"`
	Count       int                         `json:"count"`
	LocalModule string                      `json:"localModule,omitempty"`
	ResolvedAt  time.Time                   `json:"resolvedAt"`
}

type healthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	LocalModule  string    `json:"localModule,omitempty"`
	ImportFailed string    `json:"importFailed,omitempty"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}
