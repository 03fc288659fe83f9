package main

import (
	"fmt"

	"github.com/open-edge-platform/boxctl/internal/config"
	"github.com/open-edge-platform/boxctl/internal/fetcher"
	"github.com/open-edge-platform/boxctl/internal/provider"
	"github.com/open-edge-platform/boxctl/internal/utils/network"
	"github.com/spf13/cobra"
)

const (
	defaultDistro  = "ubuntu"
	defaultVersion = "18.04"
	defaultArch    = "amd64"
)

// imageFlags are shared by create and verify.
type imageFlags struct {
	version string
	distro  string
	arch    string
}

func (f *imageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.version, "version", "v", defaultVersion,
		"Distribution release; defaults to the distribution's own default when --distro is not ubuntu")
	cmd.Flags().StringVar(&f.distro, "distro", defaultDistro, "Distribution (ubuntu, fedora)")
	cmd.Flags().StringVar(&f.arch, "arch", defaultArch, "Architecture (amd64, arm64)")

	_ = cmd.RegisterFlagCompletionFunc("distro", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return provider.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("arch", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"amd64", "arm64"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// imageSpec resolves the flags into an ImageSpec. Bad input is a usage error.
func (f *imageFlags) imageSpec(cmd *cobra.Command) (fetcher.ImageSpec, error) {
	p, err := provider.Lookup(f.distro, config.Global().Mirror(f.distro))
	if err != nil {
		return fetcher.ImageSpec{}, &usageError{err: err}
	}

	version := f.version
	if !cmd.Flags().Changed("version") {
		version = p.DefaultVersion()
	}

	spec, err := p.ImageSpec(version, f.arch)
	if err != nil {
		return fetcher.ImageSpec{}, &usageError{err: err}
	}
	return spec, nil
}

// newFetcher builds a Fetcher over a fresh work directory. The caller closes the workspace.
func newFetcher(cmd *cobra.Command) (*fetcher.Fetcher, *fetcher.Workspace, error) {
	cfg := config.Global()

	cacheDir, err := resolveCacheDir()
	if err != nil {
		return nil, nil, err
	}

	ws, err := fetcher.NewWorkspace(cfg.TempDirOrDefault())
	if err != nil {
		return nil, nil, err
	}

	f, err := fetcher.New(fetcher.Options{
		CacheDir:   cacheDir,
		WorkDir:    ws.Dir,
		HTTPClient: network.NewSecureHTTPClientWithTimeout(cfg.Timeout()),
		Keyring:    cfg.Keyring,
		Progress:   cmd.ErrOrStderr(),
	})
	if err != nil {
		_ = ws.Close()
		return nil, nil, fmt.Errorf("setting up fetcher: %w", err)
	}
	return f, ws, nil
}
