package fetcher

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Format names a checksum manifest layout.
type Format string

const (
	// FormatSHA256Sums is the coreutils layout: "<hex>  <file>" or "<hex> *<file>".
	FormatSHA256Sums Format = "sha256sums"
	// FormatFedoraChecksum is the BSD-style layout "SHA256 (<file>) = <hex>", optionally
	// inside a PGP clear-signed envelope.
	FormatFedoraChecksum Format = "fedora-checksum"
)

// ImageSpec identifies one cloud image and where its bytes and checksums live.
type ImageSpec struct {
	Distro       string
	Version      string
	Arch         string
	Filename     string
	ImageURL     string
	ManifestURL  string
	SignatureURL string // detached signature over the manifest; empty when none is published
	Format       Format
}

// Validate checks that the spec is complete enough to fetch.
func (s ImageSpec) Validate() error {
	if s.Filename == "" {
		return fmt.Errorf("image spec has no file name")
	}
	if strings.ContainsAny(s.Filename, `/\`) || s.Filename == "." || s.Filename == ".." {
		return fmt.Errorf("image file name %q must not contain path separators", s.Filename)
	}
	for name, raw := range map[string]string{"image": s.ImageURL, "manifest": s.ManifestURL} {
		if err := checkURL(raw); err != nil {
			return fmt.Errorf("invalid %s URL: %w", name, err)
		}
	}
	if s.SignatureURL != "" {
		if err := checkURL(s.SignatureURL); err != nil {
			return fmt.Errorf("invalid signature URL: %w", err)
		}
	}
	switch s.Format {
	case FormatSHA256Sums, FormatFedoraChecksum:
	default:
		return fmt.Errorf("unsupported manifest format %q", s.Format)
	}
	return nil
}

func (s ImageSpec) String() string {
	return fmt.Sprintf("%s %s (%s)", s.Distro, s.Version, s.Arch)
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q: missing host", raw)
	}
	return nil
}

// urlBase returns the last path element of a URL, used to name files in the work directory.
func urlBase(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "download"
	}
	b := path.Base(u.Path)
	if b == "/" || b == "." {
		return "download"
	}
	return b
}
