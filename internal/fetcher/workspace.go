package fetcher

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/open-edge-platform/boxctl/internal/utils/logger"
)

// Workspace is the per-run scratch directory that holds downloaded manifests.
type Workspace struct {
	Dir string
}

// NewWorkspace creates parent/boxctl-<uuid>. An empty parent means os.TempDir().
func NewWorkspace(parent string) (*Workspace, error) {
	log := logger.Logger()

	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp parent %s: %w", parent, err)
	}

	dir := filepath.Join(parent, "boxctl-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	log.Debugf("Created work directory %s", dir)
	return &Workspace{Dir: dir}, nil
}

// Close removes the workspace and everything in it. It is safe to call more than once.
func (w *Workspace) Close() error {
	log := logger.Logger()

	if w == nil || w.Dir == "" {
		return nil
	}
	dir := w.Dir
	w.Dir = ""
	if err := os.RemoveAll(dir); err != nil {
		log.Warnf("Failed to remove work directory %s: %v", dir, err)
		return fmt.Errorf("failed to remove work directory %s: %w", dir, err)
	}
	log.Debugf("Removed work directory %s", dir)
	return nil
}
