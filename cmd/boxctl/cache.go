package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/open-edge-platform/boxctl/internal/cache"
	"github.com/spf13/cobra"
)

func createCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached images",
		Long: `Manage the directory holding verified cloud images.

Available commands:
  list     Show cached images
  clean    Remove cached images or interrupted downloads`,
	}

	cacheCmd.AddCommand(createCacheListCommand())
	cacheCmd.AddCommand(createCacheCleanCommand())

	return cacheCmd
}

func createCacheListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show cached images",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveCacheDir()
			if err != nil {
				return err
			}
			entries, err := cache.List(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No cached images in %s\n", dir)
				return nil
			}

			fmt.Fprintf(out, "Cache: %s\n", dir)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDISTRO\tSIZE\tMODIFIED")
			var total uint64
			for _, e := range entries {
				total += uint64(e.Size)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, e.Distro, humanize.IBytes(uint64(e.Size)), humanize.Time(e.ModTime))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d image(s), %s total\n", len(entries), humanize.IBytes(total))
			return nil
		},
	}
}

func createCacheCleanCommand() *cobra.Command {
	var opts cache.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove cached images",
		Long: `Remove cached images to reclaim disk space.

By default every cached image is removed. Use --distro to restrict cleanup to one
distribution, or --partial to remove only interrupted downloads.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveCacheDir()
			if err != nil {
				return err
			}
			opts.CacheDir = dir

			result, err := cache.Clean(opts)
			if err != nil {
				return err
			}

			output := []string{}
			if opts.DryRun {
				output = append(output, "Dry run: no files were deleted.")
			}

			if len(result.RemovedPaths) > 0 {
				header := "Removed paths:"
				if opts.DryRun {
					header = "Would remove:"
				}
				output = append(output, header)
				output = append(output, indentPaths(result.RemovedPaths)...)
			}

			if len(result.RemovedPaths) == 0 && len(result.SkippedPaths) == 0 {
				scopeDesc := "cached image"
				if opts.Partial {
					scopeDesc = "partial download"
				}
				if opts.Distro != "" {
					scopeDesc += fmt.Sprintf(" for distribution '%s'", opts.Distro)
				}
				output = append(output, fmt.Sprintf("No %s entries found.", scopeDesc))
			}

			if len(result.SkippedPaths) > 0 {
				output = append(output, "Skipped (not found):")
				output = append(output, indentPaths(result.SkippedPaths)...)
			}

			writer := cmd.OutOrStdout()
			for _, line := range output {
				fmt.Fprintln(writer, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Distro, "distro", "", "Restrict cleanup to one distribution (ubuntu, fedora)")
	cmd.Flags().BoolVar(&opts.Partial, "partial", false, "Remove only interrupted downloads (*.part)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show what would be removed without deleting anything")

	return cmd
}

func indentPaths(values []string) []string {
	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = "  " + v
	}
	return lines
}
