// Package ubuntu describes the Ubuntu server cloud images published on cloud-images.ubuntu.com.
package ubuntu

import (
	"fmt"
	"regexp"

	"github.com/open-edge-platform/boxctl/internal/fetcher"
	"github.com/open-edge-platform/boxctl/internal/provider"
)

const (
	OsName         = "ubuntu"
	DefaultBaseURL = "https://cloud-images.ubuntu.com/releases"
	DefaultVersion = "18.04"

	manifestName  = "SHA256SUMS"
	signatureName = "SHA256SUMS.gpg"
)

var versionRe = regexp.MustCompile(`^[0-9]{2}\.[0-9]{2}$`)

// archs maps accepted spellings to Ubuntu's arch names.
var archs = map[string]string{
	"amd64":   "amd64",
	"x86_64":  "amd64",
	"arm64":   "arm64",
	"aarch64": "arm64",
}

// ubuntu implements provider.Provider
type ubuntu struct {
	baseURL string
}

func init() {
	provider.Register(New(DefaultBaseURL))
}

// New returns a provider rooted at baseURL, which must hold the <version>/release/ tree.
func New(baseURL string) provider.Provider {
	return &ubuntu{baseURL: baseURL}
}

// Name returns the unique name of the provider
func (p *ubuntu) Name() string {
	return OsName
}

func (p *ubuntu) DefaultVersion() string {
	return DefaultVersion
}

func (p *ubuntu) WithMirror(baseURL string) provider.Provider {
	return New(baseURL)
}

// ImageSpec builds the spec for ubuntu-<version>-server-cloudimg-<arch>.img.
func (p *ubuntu) ImageSpec(version, arch string) (fetcher.ImageSpec, error) {
	if version == "" {
		version = DefaultVersion
	}
	if !versionRe.MatchString(version) {
		return fetcher.ImageSpec{}, fmt.Errorf("invalid Ubuntu version %q (expected e.g. 18.04)", version)
	}
	if arch == "" {
		arch = "amd64"
	}
	ua, ok := archs[arch]
	if !ok {
		return fetcher.ImageSpec{}, fmt.Errorf("unsupported architecture %q for Ubuntu (supported: amd64, arm64)", arch)
	}

	filename := fmt.Sprintf("ubuntu-%s-server-cloudimg-%s.img", version, ua)
	release := provider.JoinURL(p.baseURL, version, "release")
	return fetcher.ImageSpec{
		Distro:       OsName,
		Version:      version,
		Arch:         ua,
		Filename:     filename,
		ImageURL:     provider.JoinURL(release, filename),
		ManifestURL:  provider.JoinURL(release, manifestName),
		SignatureURL: provider.JoinURL(release, signatureName),
		Format:       fetcher.FormatSHA256Sums,
	}, nil
}
