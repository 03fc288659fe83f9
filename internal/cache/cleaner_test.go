package cache

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func populate(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "boxctl-leftover.img"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

var sample = map[string]string{
	"ubuntu-18.04-server-cloudimg-amd64.img":      "aaaa",
	"ubuntu-20.04-server-cloudimg-arm64.img":      "bb",
	"Fedora-Cloud-Base-34-1.2.x86_64.qcow2":       "ccc",
	"ubuntu-22.04-server-cloudimg-amd64.img.part": "d",
	"notes.txt":                                   "ignore me",
}

func TestList(t *testing.T) {
	dir := populate(t, sample)

	entries, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	var names, distros []string
	for _, e := range entries {
		names = append(names, e.Name)
		distros = append(distros, e.Distro)
		if e.Path != filepath.Join(dir, e.Name) {
			t.Errorf("unexpected path %s", e.Path)
		}
		if e.Size != int64(len(sample[e.Name])) {
			t.Errorf("%s: size %d", e.Name, e.Size)
		}
		if e.ModTime.IsZero() {
			t.Errorf("%s: zero mtime", e.Name)
		}
	}

	wantNames := []string{
		"Fedora-Cloud-Base-34-1.2.x86_64.qcow2",
		"ubuntu-18.04-server-cloudimg-amd64.img",
		"ubuntu-20.04-server-cloudimg-arm64.img",
	}
	if !reflect.DeepEqual(names, wantNames) {
		t.Errorf("names = %v, want %v", names, wantNames)
	}
	if !reflect.DeepEqual(distros, []string{"fedora", "ubuntu", "ubuntu"}) {
		t.Errorf("distros = %v", distros)
	}
}

func TestListMissingDir(t *testing.T) {
	entries, err := List(filepath.Join(t.TempDir(), "absent"))
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty list, got %v, %v", entries, err)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		opts     CleanOptions
		removed  []string
		remained []string
	}{
		{
			name:     "all images",
			opts:     CleanOptions{},
			removed:  []string{"Fedora-Cloud-Base-34-1.2.x86_64.qcow2", "ubuntu-18.04-server-cloudimg-amd64.img", "ubuntu-20.04-server-cloudimg-arm64.img"},
			remained: []string{"notes.txt", "ubuntu-22.04-server-cloudimg-amd64.img.part"},
		},
		{
			name:     "distro filter",
			opts:     CleanOptions{Distro: "Fedora"},
			removed:  []string{"Fedora-Cloud-Base-34-1.2.x86_64.qcow2"},
			remained: []string{"ubuntu-18.04-server-cloudimg-amd64.img", "ubuntu-20.04-server-cloudimg-arm64.img"},
		},
		{
			name:     "partial downloads",
			opts:     CleanOptions{Partial: true},
			removed:  []string{"ubuntu-22.04-server-cloudimg-amd64.img.part"},
			remained: []string{"ubuntu-18.04-server-cloudimg-amd64.img"},
		},
		{
			name:     "dry run",
			opts:     CleanOptions{Distro: "ubuntu", DryRun: true},
			removed:  []string{"ubuntu-18.04-server-cloudimg-amd64.img", "ubuntu-20.04-server-cloudimg-arm64.img"},
			remained: []string{"ubuntu-18.04-server-cloudimg-amd64.img", "ubuntu-20.04-server-cloudimg-arm64.img"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := populate(t, sample)
			tt.opts.CacheDir = dir

			res, err := Clean(tt.opts)
			if err != nil {
				t.Fatalf("Clean: %v", err)
			}

			want := make([]string, len(tt.removed))
			for i, n := range tt.removed {
				want[i] = filepath.Join(dir, n)
			}
			if !reflect.DeepEqual(res.RemovedPaths, want) {
				t.Errorf("removed = %v, want %v", res.RemovedPaths, want)
			}
			if !tt.opts.DryRun {
				for _, p := range want {
					if _, err := os.Stat(p); !os.IsNotExist(err) {
						t.Errorf("%s still present", p)
					}
				}
			}
			for _, n := range tt.remained {
				if _, err := os.Stat(filepath.Join(dir, n)); err != nil {
					t.Errorf("%s should remain: %v", n, err)
				}
			}
			if _, err := os.Stat(filepath.Join(dir, "boxctl-leftover.img")); err != nil {
				t.Error("directories must never be removed")
			}
		})
	}
}

func TestCleanErrors(t *testing.T) {
	if _, err := Clean(CleanOptions{}); err == nil {
		t.Error("expected error without cache dir")
	}
	res, err := Clean(CleanOptions{CacheDir: filepath.Join(t.TempDir(), "absent")})
	if err != nil {
		t.Fatalf("missing cache dir should not fail: %v", err)
	}
	if len(res.RemovedPaths) != 0 || len(res.SkippedPaths) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestDistroOf(t *testing.T) {
	tests := map[string]string{
		"ubuntu-18.04-server-cloudimg-amd64.img": "ubuntu",
		"Fedora-Cloud-Base-34-1.2.x86_64.qcow2":  "fedora",
		"custom.img":                             "",
		"-odd.img":                               "",
	}
	for in, want := range tests {
		if got := distroOf(in); got != want {
			t.Errorf("distroOf(%q) = %q, want %q", in, got, want)
		}
	}
}
