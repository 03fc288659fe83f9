// Package fetcher keeps a verified copy of a distribution cloud image in a local cache.
//
// Every check fetches the vendor's checksum manifest afresh, optionally verifies its OpenPGP
// signature, and compares the recorded SHA-256 against the cached file. The image itself is
// downloaded only when the cached copy is missing or stale.
package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/open-edge-platform/boxctl/internal/utils/logger"
	"github.com/open-edge-platform/boxctl/internal/utils/network"
	"github.com/open-edge-platform/boxctl/internal/utils/security"
)

const (
	maxManifestSize        = 8 << 20 // manifest and signature bodies
	defaultManifestTimeout = 60 * time.Second
)

// Options configures a Fetcher.
type Options struct {
	CacheDir   string       // where verified images live; created on first download
	WorkDir    string       // per-run scratch directory for manifests
	HTTPClient *http.Client // manifest and signature requests; nil uses a 60s secure client
	Downloader Downloader   // image transfer; nil uses an HTTPDownloader
	Keyring    string       // optional OpenPGP keyring; empty skips signature checks
	Progress   io.Writer    // progress bar output for the default downloader
}

// Fetcher implements the cache-aware, checksum-verified image download.
type Fetcher struct {
	cacheDir   string
	workDir    string
	client     *http.Client
	downloader Downloader
	keyring    openpgp.EntityList
}

// New validates opts and loads the keyring, if any.
func New(opts Options) (*Fetcher, error) {
	log := logger.Logger()

	if opts.CacheDir == "" {
		return nil, fmt.Errorf("cache directory is not set")
	}
	if opts.WorkDir == "" {
		return nil, fmt.Errorf("work directory is not set")
	}

	f := &Fetcher{
		cacheDir:   opts.CacheDir,
		workDir:    opts.WorkDir,
		client:     opts.HTTPClient,
		downloader: opts.Downloader,
	}
	if f.client == nil {
		f.client = network.NewSecureHTTPClientWithTimeout(defaultManifestTimeout)
	}
	if f.downloader == nil {
		f.downloader = &HTTPDownloader{Progress: opts.Progress}
	}
	if opts.Keyring != "" {
		kr, err := LoadKeyring(opts.Keyring)
		if err != nil {
			return nil, err
		}
		f.keyring = kr
		log.Debugf("Loaded %d key(s) from %s", len(kr), opts.Keyring)
	}
	return f, nil
}

// CachePath is where spec's image lives in the cache.
func (f *Fetcher) CachePath(spec ImageSpec) string {
	return filepath.Join(f.cacheDir, spec.Filename)
}

// VerifyCached reports whether the cached image matches the manifest digest. A missing
// manifest entry is an error even when nothing is cached; a missing or non-regular cached
// file is not.
func (f *Fetcher) VerifyCached(ctx context.Context, spec ImageSpec) (bool, error) {
	log := logger.Logger()

	if err := spec.Validate(); err != nil {
		return false, err
	}

	expected, err := f.expectedDigest(ctx, spec)
	if err != nil {
		return false, err
	}

	path := f.CachePath(spec)
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("No cached copy of %s", spec.Filename)
			return false, nil
		}
		return false, fmt.Errorf("failed to stat cached image %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		// a symlink or other special entry is stale; the download renames over it
		log.Warnf("Cached image %s is not a regular file, treating it as stale", path)
		return false, nil
	}

	actual, err := fileSHA256(path)
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum for %s: %w", path, err)
	}
	if !strings.EqualFold(actual, expected) {
		log.Debugf("Checksum mismatch for %s: expected %s, got %s", spec.Filename, expected, actual)
		return false, nil
	}
	return true, nil
}

// EnsureImage makes sure the cache holds a verified copy of spec's image, downloading it at
// most once. A download that still fails verification is ErrChecksumMismatch; there is no
// retry.
func (f *Fetcher) EnsureImage(ctx context.Context, spec ImageSpec) error {
	log := logger.Logger()

	ok, err := f.VerifyCached(ctx, spec)
	if err != nil {
		return err
	}
	if ok {
		log.Infof("Image already downloaded: %s", f.CachePath(spec))
		return nil
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", f.cacheDir, err)
	}

	log.Infof("Downloading %s from %s", spec.Filename, spec.ImageURL)
	if err := f.downloader.Download(ctx, spec.ImageURL, f.CachePath(spec)); err != nil {
		if errors.Is(err, ErrDownloadFailed) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrDownloadFailed, spec.ImageURL, err)
	}

	ok, err = f.VerifyCached(ctx, spec)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, spec.Filename)
	}
	log.Infof("Image verified: %s", f.CachePath(spec))
	return nil
}

func (f *Fetcher) expectedDigest(ctx context.Context, spec ImageSpec) (string, error) {
	manifest, err := f.fetchToWorkDir(ctx, spec.ManifestURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch checksum manifest: %w", err)
	}

	if f.keyring != nil {
		manifest, err = f.verifyManifest(ctx, spec, manifest)
		if err != nil {
			return "", err
		}
	}

	return ParseDigest(manifest, spec.Format, spec.Filename)
}

// verifyManifest returns the signed content to parse.
func (f *Fetcher) verifyManifest(ctx context.Context, spec ImageSpec, manifest []byte) ([]byte, error) {
	log := logger.Logger()

	if spec.SignatureURL != "" {
		sig, err := f.fetchToWorkDir(ctx, spec.SignatureURL)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching signature: %v", ErrSignatureInvalid, err)
		}
		if err := VerifyDetached(f.keyring, manifest, sig); err != nil {
			return nil, err
		}
		log.Debugf("Detached signature verified for %s", urlBase(spec.ManifestURL))
		return manifest, nil
	}

	plain, err := VerifyClearsigned(f.keyring, manifest)
	if err != nil {
		return nil, err
	}
	log.Debugf("Clear-signed manifest verified for %s", urlBase(spec.ManifestURL))
	return plain, nil
}

// fetchToWorkDir downloads a small text resource and keeps a copy in the work directory.
func (f *Fetcher) fetchToWorkDir(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDownloadFailed, url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDownloadFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: bad status: %s", ErrDownloadFailed, url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDownloadFailed, url, err)
	}
	if len(data) > maxManifestSize {
		return nil, fmt.Errorf("%w: %s: response exceeds %d bytes", ErrDownloadFailed, url, maxManifestSize)
	}

	dest := filepath.Join(f.workDir, urlBase(url))
	if err := security.SafeWriteFile(dest, data, 0o600, security.RejectSymlinks); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", dest, err)
	}
	return data, nil
}

func fileSHA256(path string) (string, error) {
	file, err := security.SafeOpenFile(path, os.O_RDONLY, 0, security.RejectSymlinks)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
