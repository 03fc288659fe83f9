package main

import (
	"fmt"
	"regexp"

	"github.com/dustin/go-humanize"
	"github.com/open-edge-platform/boxctl/internal/utils/convert"
	"github.com/open-edge-platform/boxctl/internal/utils/logger"
	"github.com/spf13/cobra"
)

const (
	defaultMemoryMiB = 12288
	defaultCPUs      = 6
	defaultDiskMiB   = 20480
)

var vmNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,62}$`)

// vmOptions are accepted and validated for the VM that will use the image.
type vmOptions struct {
	memoryMiB uint64
	cpus      int
	diskMiB   uint64
}

// createCreateCommand creates the create subcommand
func createCreateCommand() *cobra.Command {
	var (
		img imageFlags
		vm  vmOptions
	)

	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Fetch and verify the cloud image for a new VM",
		Long: `Ensure the local cache holds a verified cloud image for the requested
distribution release. The image is downloaded only when it is missing or its
checksum no longer matches the vendor's manifest.

Sizes accept plain MiB values or suffixed values such as 12G or 512M.`,
		Example: `  boxctl create dev
  boxctl create dev -v 22.04 -m 8G -c 4 -d 40G
  boxctl create f34 --distro fedora -v 34`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeCreate(cmd, args[0], &img, vm)
		},
	}

	img.register(createCmd)
	createCmd.Flags().VarP(newSizeValue(defaultMemoryMiB, &vm.memoryMiB), "memory", "m", "VM memory")
	createCmd.Flags().IntVarP(&vm.cpus, "cpus", "c", defaultCPUs, "Number of virtual CPUs")
	createCmd.Flags().VarP(newSizeValue(defaultDiskMiB, &vm.diskMiB), "disk-size", "d", "VM disk size")

	return createCmd
}

func executeCreate(cmd *cobra.Command, name string, img *imageFlags, vm vmOptions) error {
	log := logger.Logger()

	if !vmNameRe.MatchString(name) {
		return newUsageError("invalid VM name %q: use letters, digits, '.', '_' or '-'", name)
	}
	if vm.cpus < 1 {
		return newUsageError("--cpus must be at least 1, got %d", vm.cpus)
	}

	spec, err := img.imageSpec(cmd)
	if err != nil {
		return err
	}

	log.Infof("VM %s: %d CPUs, %s memory, %s disk, image %s",
		name, vm.cpus, humanize.IBytes(vm.memoryMiB<<20), humanize.IBytes(vm.diskMiB<<20), spec.Filename)
	log.Debugf("VM %s sizes: memory=%s disk=%s", name, convert.FormatMiB(vm.memoryMiB), convert.FormatMiB(vm.diskMiB))

	f, ws, err := newFetcher(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := f.EnsureImage(cmd.Context(), spec); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", f.CachePath(spec))
	return nil
}
