package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompletionPrintsScript(t *testing.T) {
	cfg, _ := isolate(t, "")

	for _, shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "--config", cfg, "completion", shell)
			if code != exitOK {
				t.Fatalf("exit code %d: %s", code, stderr)
			}
			if !strings.Contains(stdout, "boxctl") {
				t.Errorf("%s script does not mention boxctl", shell)
			}
		})
	}
}

func TestCompletionInstall(t *testing.T) {
	cfg, home := isolate(t, "")
	t.Setenv("XDG_DATA_HOME", "")

	tests := []struct {
		shell string
		path  string
	}{
		{"bash", filepath.Join(home, ".local", "share", "bash-completion", "completions", "boxctl")},
		{"zsh", filepath.Join(home, ".zsh", "completion", "_boxctl")},
		{"fish", filepath.Join(home, ".config", "fish", "completions", "boxctl.fish")},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "--config", cfg, "completion", tt.shell, "--install")
			if code != exitOK {
				t.Fatalf("install failed (%d): %s", code, stderr)
			}
			if !strings.Contains(stdout, tt.path) {
				t.Errorf("output does not name %s: %q", tt.path, stdout)
			}
			if info, err := os.Stat(tt.path); err != nil || info.Size() == 0 {
				t.Fatalf("completion file not written: %v", err)
			}

			code, _, _ = runCLI(t, "--config", cfg, "completion", tt.shell, "--install")
			if code != exitFailure {
				t.Errorf("reinstall without --force: exit %d, want %d", code, exitFailure)
			}
			code, _, _ = runCLI(t, "--config", cfg, "completion", tt.shell, "--install", "--force")
			if code != exitOK {
				t.Errorf("reinstall with --force: exit %d", code)
			}
		})
	}
}

func TestCompletionPathHonoursXDGDataHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	got, err := completionPath("bash")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "bash-completion", "completions", "boxctl"); got != want {
		t.Errorf("completionPath(bash) = %s, want %s", got, want)
	}
	if _, err := completionPath("tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
