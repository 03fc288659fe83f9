package fetcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWorkspace(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "tmp")

	ws, err := NewWorkspace(parent)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	dir := ws.Dir
	if !strings.HasPrefix(filepath.Base(dir), "boxctl-") || filepath.Dir(dir) != parent {
		t.Fatalf("unexpected workspace path %s", dir)
	}
	if err := os.WriteFile(filepath.Join(dir, "SHA256SUMS"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	other, err := NewWorkspace(parent)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	if other.Dir == dir {
		t.Fatal("workspaces must be unique per run")
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("workspace not removed: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	var nilWS *Workspace
	if err := nilWS.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}
