package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// createVerifyCommand creates the verify subcommand
func createVerifyCommand() *cobra.Command {
	var img imageFlags

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the cached image against the vendor's checksum manifest",
		Long: `Fetch the checksum manifest and report whether the cached image for the
requested release matches it. Nothing is downloaded besides the manifest
(and its signature when a keyring is configured).`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeVerify(cmd, &img)
		},
	}

	img.register(verifyCmd)
	return verifyCmd
}

func executeVerify(cmd *cobra.Command, img *imageFlags) error {
	spec, err := img.imageSpec(cmd)
	if err != nil {
		return err
	}

	f, ws, err := newFetcher(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	ok, err := f.VerifyCached(cmd.Context(), spec)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ok {
		fmt.Fprintf(out, "verified: %s\n", f.CachePath(spec))
	} else {
		fmt.Fprintf(out, "not verified: %s is missing or does not match the manifest\n", f.CachePath(spec))
	}
	return nil
}
