package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	fileutil "github.com/open-edge-platform/boxctl/internal/utils/file"
	"github.com/open-edge-platform/boxctl/internal/utils/logger"
)

// partialSuffix marks an interrupted download.
const partialSuffix = ".part"

var imageExts = []string{".img", ".qcow2"}

// Entry is one cached image.
type Entry struct {
	Name    string
	Path    string
	Distro  string // guessed from the file name; empty when unknown
	Size    int64
	ModTime time.Time
}

// List returns the images in dir sorted by name. Interrupted downloads are skipped; a
// missing dir yields an empty list.
func List(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache directory: %w", err)
	}

	var out []Entry
	for _, e := range entries {
		if !e.Type().IsRegular() || !isImage(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		out = append(out, Entry{
			Name:    e.Name(),
			Path:    filepath.Join(dir, e.Name()),
			Distro:  distroOf(e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CleanOptions defines what cache artifacts should be removed.
type CleanOptions struct {
	CacheDir string // image cache to clean
	Distro   string // optional distribution filter, e.g. "ubuntu"
	Partial  bool   // only remove interrupted downloads (*.part)
	DryRun   bool   // report actions without deleting anything
}

// CleanResult contains the outcome of a cache cleanup run.
type CleanResult struct {
	RemovedPaths []string
	SkippedPaths []string
}

// Clean removes cached images (or, with Partial, leftover .part files) according to opts.
func Clean(opts CleanOptions) (*CleanResult, error) {
	log := logger.Logger()

	if opts.CacheDir == "" {
		return nil, fmt.Errorf("cache directory must be specified")
	}
	distro := strings.ToLower(strings.TrimSpace(opts.Distro))

	targets, err := gatherTargets(opts.CacheDir, distro, opts.Partial)
	if err != nil {
		return nil, err
	}

	result := &CleanResult{
		RemovedPaths: make([]string, 0, len(targets)),
		SkippedPaths: []string{},
	}
	for _, target := range targets {
		if err := ensureSubPath(opts.CacheDir, target); err != nil {
			return nil, err
		}

		exists, err := fileutil.PathExists(target)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", target, err)
		}
		if !exists {
			result.SkippedPaths = append(result.SkippedPaths, target)
			continue
		}

		if opts.DryRun {
			result.RemovedPaths = append(result.RemovedPaths, target)
			continue
		}

		if err := os.Remove(target); err != nil {
			return nil, fmt.Errorf("removing %s: %w", target, err)
		}
		log.Debugf("Removed %s", target)
		result.RemovedPaths = append(result.RemovedPaths, target)
	}

	sort.Strings(result.RemovedPaths)
	sort.Strings(result.SkippedPaths)
	return result, nil
}

func gatherTargets(dir, distro string, partial bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache directory: %w", err)
	}

	var targets []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if partial {
			if !strings.HasSuffix(name, partialSuffix) || !isImage(strings.TrimSuffix(name, partialSuffix)) {
				continue
			}
			name = strings.TrimSuffix(name, partialSuffix)
		} else if !isImage(name) {
			continue
		}
		if distro != "" && distroOf(name) != distro {
			continue
		}
		targets = append(targets, filepath.Join(dir, e.Name()))
	}
	sort.Strings(targets)
	return targets, nil
}

func isImage(name string) bool {
	if strings.HasSuffix(name, partialSuffix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// distroOf maps "ubuntu-18.04-..." to "ubuntu" and "Fedora-Cloud-Base-..." to "fedora".
func distroOf(name string) string {
	n := strings.ToLower(name)
	i := strings.IndexByte(n, '-')
	if i <= 0 {
		return ""
	}
	return n[:i]
}

func ensureSubPath(base, target string) error {
	ok, err := fileutil.IsSubPath(base, target)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("refusing to operate on %s because it is outside %s", target, base)
	}
	return nil
}
