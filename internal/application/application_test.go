package application

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/configvars/internal/config"
	"github.com/eugenenazirov/configvars/internal/manifest"
	"github.com/eugenenazirov/configvars/pkg/configvars"
)

const testManifest = `
variables:
  - name: PORT
    default: "8080"
    desc: listen port
  - name: DEBUG
    default: "false"
  - name: API_TOKEN
    secret: true
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// setupProject lays out a manifest and a project/local.yaml module below a
// temporary root.
func setupProject(t *testing.T, local string) config.Config {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "configvars.yaml"), testManifest)
	writeFile(t, filepath.Join(root, "project", "local.yaml"), local)

	cfg := baseTestConfig(":0")
	cfg.ManifestPath = filepath.Join(root, "configvars.yaml")
	cfg.SettingsRoot = root
	cfg.LocalModule = "project.local"
	cfg.EnvPrefix = "CFGTEST_"
	return cfg
}

func TestResolve(t *testing.T) {
	cfg := setupProject(t, "DEBUG: true\nAPI_TOKEN: s3cr3t\n")
	t.Setenv("CFGTEST_PORT", "9000")

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	engine, err := Resolve(cfg, m, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	vars := engine.Variables()
	names := make([]string, 0, len(vars))
	for _, v := range vars {
		names = append(names, v.Name)
	}
	if want := []string{"PORT", "DEBUG", "API_TOKEN"}; !slices.Equal(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	if vars[0].Value != "9000" || vars[0].Source != configvars.SourceEnv {
		t.Fatalf("expected PORT from env, got %+v", vars[0])
	}
	if vars[1].Value != "true" || vars[1].Source != configvars.SourceLocal {
		t.Fatalf("expected DEBUG from local module, got %+v", vars[1])
	}
	if vars[2].Value != configvars.MaskedValue {
		t.Fatalf("expected masked secret, got %+v", vars[2])
	}
}

func TestResolveMissingExplicitModule(t *testing.T) {
	cfg := setupProject(t, "")
	cfg.LocalModule = "project.missing"

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	_, err = Resolve(cfg, m, zaptest.NewLogger(t))
	if !errors.Is(err, configvars.ErrImproperlyConfigured) {
		t.Fatalf("expected ErrImproperlyConfigured, got %v", err)
	}
}

func TestNewInitializesDependencies(t *testing.T) {
	cfg := setupProject(t, "DEBUG: true\n")

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}

	snap := app.Snapshot()
	if snap == nil || len(snap.Variables) != 3 {
		t.Fatalf("expected snapshot with 3 variables, got %+v", snap)
	}
	if snap.LocalModule != "project.local" || snap.ImportFailed != "" || snap.SettingsRoot != cfg.SettingsRoot {
		t.Fatalf("unexpected module state: %+v", snap)
	}
}

func TestNewFailsOnBadManifest(t *testing.T) {
	cfg := setupProject(t, "")
	writeFile(t, cfg.ManifestPath, "variables:\n  - default: x\n")

	if _, err := New(cfg, zaptest.NewLogger(t)); !errors.Is(err, manifest.ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest, got %v", err)
	}
}

func TestReloadKeepsPreviousSnapshotOnError(t *testing.T) {
	cfg := setupProject(t, "DEBUG: true\n")
	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	before := app.Snapshot()

	writeFile(t, filepath.Join(cfg.SettingsRoot, "project", "local.yaml"), "DEBUG: [nested, [list]]\n")
	if err := app.Reload(); err == nil {
		t.Fatalf("expected reload error for unsupported value")
	}
	if app.Snapshot() != before {
		t.Fatalf("expected previous snapshot to be kept")
	}

	writeFile(t, filepath.Join(cfg.SettingsRoot, "project", "local.yaml"), "DEBUG: off\n")
	if err := app.Reload(); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if got := app.Snapshot().Variables[1].Value; got != "off" {
		t.Fatalf("expected reloaded DEBUG=off, got %q", got)
	}
}

func TestRouterServesSnapshotAndMetrics(t *testing.T) {
	cfg := setupProject(t, "API_TOKEN: s3cr3t\n")
	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	app.Server().Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/variables", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "s3cr3t") {
		t.Fatalf("secret value leaked: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	app.Server().Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"configvars_reloads_total", "configvars_resolutions_total", "configvars_variables"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in metrics output", want)
		}
	}
}

func TestWatchPaths(t *testing.T) {
	cfg := setupProject(t, "")
	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	base := filepath.Join(cfg.SettingsRoot, "project", "local")
	want := []string{cfg.ManifestPath, base + ".yaml", base + ".yml", base + ".toml"}
	if got := app.WatchPaths(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	cfg := setupProject(t, "DEBUG: true\n")
	cfg.Watch = true
	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := app.startWatcher(context.Background()); err != nil {
		t.Fatalf("startWatcher returned error: %v", err)
	}
	t.Cleanup(app.Close)

	writeFile(t, filepath.Join(cfg.SettingsRoot, "project", "local.yaml"), "DEBUG: changed\n")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if app.Snapshot().Variables[1].Value == "changed" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected watcher to reload DEBUG, got %q", app.Snapshot().Variables[1].Value)
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		ManifestPath:         "configvars.yaml",
		Port:                 port,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}
