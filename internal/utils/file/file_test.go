package file

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsSubPath(t *testing.T) {
	base := t.TempDir()
	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{"same dir", base, true},
		{"child", filepath.Join(base, "ubuntu.img"), true},
		{"nested", filepath.Join(base, "a", "b"), true},
		{"dotdot-prefixed name", filepath.Join(base, "..hidden"), true},
		{"parent", filepath.Dir(base), false},
		{"escape", filepath.Join(base, "..", "other"), false},
		{"unrelated", "/etc/passwd", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsSubPath(base, tt.target)
			if err != nil {
				t.Fatalf("IsSubPath: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsSubPath(%q, %q) = %v, want %v", base, tt.target, got, tt.want)
			}
		})
	}
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "x")
	if err := os.WriteFile(f, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if ok, err := PathExists(f); !ok || err != nil {
		t.Errorf("existing file: %v, %v", ok, err)
	}
	if ok, err := PathExists(filepath.Join(dir, "missing")); ok || err != nil {
		t.Errorf("missing file: %v, %v", ok, err)
	}
	if _, err := PathExists(""); err == nil {
		t.Error("expected error for empty path")
	}

	link := filepath.Join(dir, "dangling")
	if err := os.Symlink(filepath.Join(dir, "gone"), link); err == nil {
		if ok, err := PathExists(link); !ok || err != nil {
			t.Errorf("dangling symlink should exist: %v, %v", ok, err)
		}
	}
}
