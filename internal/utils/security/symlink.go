package security

import (
	"fmt"
	"os"
	"path/filepath"
)

// SymlinkPolicy says what file helpers do when the final path component is a symlink.
type SymlinkPolicy int

const (
	// RejectSymlinks fails with an error.
	RejectSymlinks SymlinkPolicy = iota
	// ResolveSymlinks operates on the link target.
	ResolveSymlinks
	// AllowSymlinks operates on the path as given.
	AllowSymlinks
)

// SafeFileInfo is the outcome of CheckSymlink.
type SafeFileInfo struct {
	OriginalPath string
	ResolvedPath string
	IsSymlink    bool
	FileInfo     os.FileInfo
}

// CheckSymlink lstat's path and applies policy.
func CheckSymlink(path string, policy SymlinkPolicy) (*SafeFileInfo, error) {
	if policy < RejectSymlinks || policy > AllowSymlinks {
		return nil, fmt.Errorf("invalid symlink policy: %d", policy)
	}

	fi, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info for %s: %w", path, err)
	}

	info := &SafeFileInfo{
		OriginalPath: path,
		ResolvedPath: path,
		IsSymlink:    fi.Mode()&os.ModeSymlink != 0,
		FileInfo:     fi,
	}
	if !info.IsSymlink || policy == AllowSymlinks {
		return info, nil
	}
	if policy == RejectSymlinks {
		return nil, fmt.Errorf("symlinks are not allowed: %s", path)
	}

	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve symlink %s: %w", path, err)
	}
	tfi, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("failed to access symlink target %s: %w", target, err)
	}
	info.ResolvedPath = target
	info.FileInfo = tfi
	return info, nil
}

// SafeReadFile reads path after applying policy.
func SafeReadFile(path string, policy SymlinkPolicy) ([]byte, error) {
	info, err := CheckSymlink(path, policy)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(info.ResolvedPath)
}

// SafeWriteFile writes data to path after applying policy to an existing file and to the
// parent directory.
func SafeWriteFile(path string, data []byte, perm os.FileMode, policy SymlinkPolicy) error {
	resolved, err := resolveForWrite(path, policy)
	if err != nil {
		return err
	}
	return os.WriteFile(resolved, data, perm)
}

// SafeOpenFile opens path with flag after the same checks as SafeWriteFile. Without
// O_CREATE the file must exist and pass the policy itself.
func SafeOpenFile(path string, flag int, perm os.FileMode, policy SymlinkPolicy) (*os.File, error) {
	if flag&os.O_CREATE == 0 {
		info, err := CheckSymlink(path, policy)
		if err != nil {
			return nil, err
		}
		return os.OpenFile(info.ResolvedPath, flag, perm)
	}

	resolved, err := resolveForWrite(path, policy)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(resolved, flag, perm)
}

func resolveForWrite(path string, policy SymlinkPolicy) (string, error) {
	if _, err := os.Lstat(path); err == nil {
		info, err := CheckSymlink(path, policy)
		if err != nil {
			return "", fmt.Errorf("existing file symlink check failed: %w", err)
		}
		path = info.ResolvedPath
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == string(filepath.Separator) {
		return path, nil
	}
	if _, err := os.Stat(dir); err != nil {
		// let the open/write report the missing directory
		return path, nil
	}
	info, err := CheckSymlink(dir, policy)
	if err != nil {
		return "", fmt.Errorf("parent directory symlink check failed: %w", err)
	}
	return filepath.Join(info.ResolvedPath, filepath.Base(path)), nil
}
