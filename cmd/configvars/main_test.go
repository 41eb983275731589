package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/configvars/internal/config"
	"github.com/eugenenazirov/configvars/internal/report"
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

func setupProject(t *testing.T, local string) config.Config {
	t.Helper()
	root := t.TempDir()
	write := func(path, content string) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	write(filepath.Join(root, "configvars.yaml"), testManifest)
	write(filepath.Join(root, "project", "local.yaml"), local)

	return config.Config{
		ManifestPath: filepath.Join(root, "configvars.yaml"),
		SettingsRoot: root,
		LocalModule:  "project.local",
		EnvPrefix:    "CLITEST_",
	}
}

func TestRunShow(t *testing.T) {
	cfg := setupProject(t, "DEBUG: \"true\"\nAPI_TOKEN: hunter2\n")
	t.Setenv("CLITEST_PORT", "9000")

	tests := map[string]struct {
		opts showOptions
		want string
	}{
		"all": {
			opts: showOptions{format: "text"},
			want: "PORT = \"9000\"\nDEBUG = \"true\"\nAPI_TOKEN = \"*****\"\n",
		},
		"changed with comments": {
			opts: showOptions{changed: true, comment: true, format: "text"},
			want: "PORT = \"9000\"  # listen port\nDEBUG = \"true\"\nAPI_TOKEN = \"*****\"\n",
		},
		"defaults": {
			opts: showOptions{defaults: true, format: "text"},
			want: "PORT = \"8080\"\nDEBUG = \"false\"\nAPI_TOKEN = \"\"\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			if err := runShow(cfg, tt.opts, &out, zaptest.NewLogger(t)); err != nil {
				t.Fatalf("runShow returned error: %v", err)
			}
			if out.String() != tt.want {
				t.Fatalf("unexpected output:\n%s\nwant:\n%s", out.String(), tt.want)
			}
		})
	}
}

func TestRunShowYAML(t *testing.T) {
	cfg := setupProject(t, "")

	var out bytes.Buffer
	if err := runShow(cfg, showOptions{format: "yaml"}, &out, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("runShow returned error: %v", err)
	}
	if !strings.Contains(out.String(), "name: PORT") {
		t.Fatalf("expected YAML output, got:\n%s", out.String())
	}
}

func TestRunShowRejectsConflictingModes(t *testing.T) {
	cfg := setupProject(t, "")

	err := runShow(cfg, showOptions{changed: true, defaults: true}, &bytes.Buffer{}, zaptest.NewLogger(t))
	if !errors.Is(err, errConflictingModes) {
		t.Fatalf("expected errConflictingModes, got %v", err)
	}
}

func TestRunCheck(t *testing.T) {
	t.Run("no issues", func(t *testing.T) {
		cfg := setupProject(t, "")

		var out bytes.Buffer
		if err := runCheck(cfg, &out, zaptest.NewLogger(t)); err != nil {
			t.Fatalf("runCheck returned error: %v", err)
		}
		if out.String() != "no issues found\n" {
			t.Fatalf("unexpected output %q", out.String())
		}
	})

	t.Run("missing derived module", func(t *testing.T) {
		cfg := setupProject(t, "")
		cfg.LocalModule = ""
		t.Setenv("SETTINGS_MODULE", "other.settings")

		var out bytes.Buffer
		if err := runCheck(cfg, &out, zaptest.NewLogger(t)); err != nil {
			t.Fatalf("runCheck returned error: %v", err)
		}
		if !strings.HasPrefix(out.String(), report.LocalSettingsCheckID) {
			t.Fatalf("expected %s warning, got %q", report.LocalSettingsCheckID, out.String())
		}
		if !strings.Contains(out.String(), "other.local") {
			t.Fatalf("expected derived module in warning, got %q", out.String())
		}
	})
}
