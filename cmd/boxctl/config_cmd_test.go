package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitCreatesFile(t *testing.T) {
	cfg, _ := isolate(t, "")
	target := filepath.Join(t.TempDir(), "my-config.yml")

	code, stdout, stderr := runCLI(t, "--config", cfg, "config", "init", target)
	if code != exitOK {
		t.Fatalf("config init failed (%d): %s", code, stderr)
	}
	if !strings.Contains(stdout, "Configuration file created at: "+target) {
		t.Errorf("unexpected output: %q", stdout)
	}

	contents, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("failed to read generated config: %v", err)
	}
	if !strings.Contains(string(contents), "# boxctl - Global Configuration") {
		t.Fatalf("generated config missing header comments: %s", contents)
	}

	code, _, _ = runCLI(t, "--config", target, "version")
	if code != exitOK {
		t.Errorf("generated config does not load (exit %d)", code)
	}
}

func TestConfigShow(t *testing.T) {
	cfg, _ := isolate(t, "http_timeout: 15s\n")
	cacheDir := filepath.Join(t.TempDir(), "c")

	code, stdout, stderr := runCLI(t, "--config", cfg, "--cache-dir", cacheDir, "config", "show")
	if code != exitOK {
		t.Fatalf("config show failed (%d): %s", code, stderr)
	}
	for _, want := range []string{"# source: " + cfg, "# resolved cache directory: " + cacheDir, "http_timeout: 15s", "level: error", "# active log level: error"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestConfigShowLogLevelOverride(t *testing.T) {
	cfg, _ := isolate(t, "")

	code, stdout, _ := runCLI(t, "--config", cfg, "--log-level", "DEBUG", "config", "show")
	if code != exitOK || !strings.Contains(stdout, "level: debug") || !strings.Contains(stdout, "# active log level: debug") {
		t.Errorf("override not applied: code=%d stdout=%q", code, stdout)
	}
}
