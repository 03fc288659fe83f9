// Package fedora describes the Fedora Cloud Base qcow2 images.
package fedora

import (
	"fmt"
	"sort"

	"github.com/open-edge-platform/boxctl/internal/fetcher"
	"github.com/open-edge-platform/boxctl/internal/provider"
)

const (
	OsName         = "fedora"
	DefaultBaseURL = "https://download.fedoraproject.org/pub/fedora/linux/releases"
	DefaultVersion = "34"
)

// releases maps a Fedora version to the compose respin of its Cloud Base image.
var releases = map[string]string{
	"32": "1.6",
	"33": "1.2",
	"34": "1.2",
}

var archs = map[string]string{
	"amd64":   "x86_64",
	"x86_64":  "x86_64",
	"arm64":   "aarch64",
	"aarch64": "aarch64",
}

type fedora struct {
	baseURL string
}

func init() {
	provider.Register(New(DefaultBaseURL))
}

// New returns a provider rooted at baseURL, which must hold the <version>/Cloud/ tree.
func New(baseURL string) provider.Provider {
	return &fedora{baseURL: baseURL}
}

func (p *fedora) Name() string {
	return OsName
}

func (p *fedora) DefaultVersion() string {
	return DefaultVersion
}

func (p *fedora) WithMirror(baseURL string) provider.Provider {
	return New(baseURL)
}

// Versions lists the releases this provider knows how to name.
func Versions() []string {
	v := make([]string, 0, len(releases))
	for k := range releases {
		v = append(v, k)
	}
	sort.Strings(v)
	return v
}

func (p *fedora) ImageSpec(version, arch string) (fetcher.ImageSpec, error) {
	if version == "" {
		version = DefaultVersion
	}
	respin, ok := releases[version]
	if !ok {
		return fetcher.ImageSpec{}, fmt.Errorf("unsupported Fedora version %q (supported: %v)", version, Versions())
	}
	if arch == "" {
		arch = "amd64"
	}
	fa, ok := archs[arch]
	if !ok {
		return fetcher.ImageSpec{}, fmt.Errorf("unsupported architecture %q for Fedora (supported: amd64, arm64)", arch)
	}

	dir := provider.JoinURL(p.baseURL, version, "Cloud", fa, "images")
	filename := fmt.Sprintf("Fedora-Cloud-Base-%s-%s.%s.qcow2", version, respin, fa)
	manifest := fmt.Sprintf("Fedora-Cloud-%s-%s-%s-CHECKSUM", version, respin, fa)
	return fetcher.ImageSpec{
		Distro:      OsName,
		Version:     version,
		Arch:        fa,
		Filename:    filename,
		ImageURL:    provider.JoinURL(dir, filename),
		ManifestURL: provider.JoinURL(dir, manifest),
		Format:      fetcher.FormatFedoraChecksum,
	}, nil
}
