package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-edge-platform/boxctl/internal/utils/security"
	"github.com/spf13/cobra"
)

var completionShells = []string{"bash", "zsh", "fish"}

// createCompletionCommand creates the completion subcommand
func createCompletionCommand() *cobra.Command {
	var install, force bool

	completionCmd := &cobra.Command{
		Use:   "completion <bash|zsh|fish>",
		Short: "Generate or install the shell completion script",
		Long: `Print the completion script for the given shell to stdout, or write it to
the shell's per-user completion directory with --install.

  source <(boxctl completion bash)
  boxctl completion zsh --install`,
		Args:      usageArgs(cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
		ValidArgs: completionShells,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeCompletion(cmd, args[0], install, force)
		},
	}

	completionCmd.Flags().BoolVar(&install, "install", false, "Install the script instead of printing it")
	completionCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing completion file")

	return completionCmd
}

func executeCompletion(cmd *cobra.Command, shell string, install, force bool) error {
	var buf bytes.Buffer
	root := cmd.Root()

	switch shell {
	case "bash":
		if err := root.GenBashCompletionV2(&buf, true); err != nil {
			return fmt.Errorf("error generating Bash completion: %w", err)
		}
	case "zsh":
		if err := root.GenZshCompletion(&buf); err != nil {
			return fmt.Errorf("error generating Zsh completion: %w", err)
		}
	case "fish":
		if err := root.GenFishCompletion(&buf, true); err != nil {
			return fmt.Errorf("error generating Fish completion: %w", err)
		}
	default:
		return newUsageError("unsupported shell type: %s", shell)
	}

	if !install {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	targetPath, err := completionPath(shell)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o700); err != nil {
		return fmt.Errorf("could not create directory %s: %w", filepath.Dir(targetPath), err)
	}
	if _, err := os.Lstat(targetPath); err == nil && !force {
		return fmt.Errorf("completion file already exists at %s. Use --force to overwrite", targetPath)
	}
	if err := security.SafeWriteFile(targetPath, buf.Bytes(), 0o600, security.RejectSymlinks); err != nil {
		return fmt.Errorf("could not write completion file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Shell completion installed for %s at %s\n", shell, targetPath)
	return nil
}

// completionPath is the per-user location each shell loads completions from.
func completionPath(shell string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	switch shell {
	case "bash":
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			dataHome = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(dataHome, "bash-completion", "completions", "boxctl"), nil
	case "zsh":
		return filepath.Join(home, ".zsh", "completion", "_boxctl"), nil
	case "fish":
		return filepath.Join(home, ".config", "fish", "completions", "boxctl.fish"), nil
	}
	return "", newUsageError("unsupported shell type: %s", shell)
}
