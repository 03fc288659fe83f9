// Package provider maps a distribution name, version and architecture to the cloud image
// and checksum manifest that describe it.
package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/open-edge-platform/boxctl/internal/fetcher"
)

// Provider is the interface every distribution plugin implements.
type Provider interface {
	// Name is a unique ID, e.g. "ubuntu" or "fedora".
	Name() string

	// DefaultVersion is used when the user gives no --version.
	DefaultVersion() string

	// ImageSpec derives file name and URLs for one release.
	ImageSpec(version, arch string) (fetcher.ImageSpec, error)
}

// Mirrorable providers can serve the same layout from another base URL.
type Mirrorable interface {
	Provider
	WithMirror(baseURL string) Provider
}

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register makes a Provider available under its Name().
func Register(p Provider) {
	mu.Lock()
	defer mu.Unlock()
	providers[p.Name()] = p
}

// Get returns the Provider by name.
func Get(name string) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := providers[strings.ToLower(name)]
	return p, ok
}

// Names lists registered providers in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for n := range providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named provider, rebased on mirror when one is given.
func Lookup(name, mirror string) (Provider, error) {
	p, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown distribution %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	if mirror == "" {
		return p, nil
	}
	m, ok := p.(Mirrorable)
	if !ok {
		return nil, fmt.Errorf("distribution %q does not support mirrors", name)
	}
	return m.WithMirror(mirror), nil
}

// JoinURL appends path elements to base with single slashes.
func JoinURL(base string, elems ...string) string {
	u := strings.TrimRight(base, "/")
	for _, e := range elems {
		u += "/" + strings.Trim(e, "/")
	}
	return u
}
