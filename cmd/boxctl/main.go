package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/open-edge-platform/boxctl/internal/config"
	"github.com/open-edge-platform/boxctl/internal/utils/logger"
	"github.com/open-edge-platform/boxctl/internal/utils/security"
	"github.com/spf13/cobra"

	_ "github.com/open-edge-platform/boxctl/internal/provider/fedora"
	_ "github.com/open-edge-platform/boxctl/internal/provider/ubuntu"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// Command-line flags that can override config file settings
var (
	configFile   string // Path to config file
	logLevel     string // Empty means use config file value
	cacheDirFlag string // Empty means config file, then XDG/platform default

	actualConfigFile string
	loggerCleanup    func()
)

// usageError marks bad arguments, flags or configuration. main prints help for these and
// exits with exitUsage; everything else is a runtime failure.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newUsageError(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// usageArgs converts positional-argument validation failures into usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and maps the outcome to an exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if loggerCleanup != nil {
			loggerCleanup()
			loggerCleanup = nil
		}
	}()

	// route log output to the same stream as usage and progress
	defer logger.ReplaceStderrWriter(logger.ReplaceStderrWriter(stderr))

	rootCmd := createRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return exitOK
	}
	if cmd == nil {
		cmd = rootCmd
	}

	var uerr *usageError
	if errors.As(err, &uerr) || errors.Is(err, security.ErrInvalidInput) ||
		strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		fmt.Fprint(stderr, cmd.UsageString())
		return exitUsage
	}

	logger.Logger().Errorf("%s failed: %v", cmd.CommandPath(), err)
	return exitFailure
}

// createRootCommand creates and configures the root cobra command with all subcommands
func createRootCommand() *cobra.Command {
	// Let every level's PersistentPreRunE run: input validation is attached to all of them.
	cobra.EnableTraverseRunHooks = true

	configFile, logLevel, cacheDirFlag = "", "", ""

	rootCmd := &cobra.Command{
		Use:   "boxctl",
		Short: "Fetch and verify cloud images for local VMs",
		Long: `boxctl downloads distribution cloud images, verifies them against the
vendor's checksum manifest and keeps a verified copy in a local cache.

Supported distributions: ubuntu, fedora.

Use 'boxctl <command> --help' for more information about a command.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return initConfig() },
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "",
		"Image cache directory (overrides configuration file)")

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	rootCmd.AddCommand(createCreateCommand())
	rootCmd.AddCommand(createVerifyCommand())
	rootCmd.AddCommand(createCompletionCommand())
	rootCmd.AddCommand(createCacheCommand())
	rootCmd.AddCommand(createConfigCommand())
	rootCmd.AddCommand(createVersionCommand())

	security.AttachRecursive(rootCmd, security.DefaultLimits())
	return rootCmd
}

// initConfig loads the config file, applies flag overrides and (re)initialises the logger.
func initConfig() error {
	actualConfigFile = configFile
	if actualConfigFile == "" {
		actualConfigFile = config.FindConfigFile()
	}

	globalConfig, err := config.LoadGlobalConfig(actualConfigFile)
	if err != nil {
		return &usageError{err: fmt.Errorf("loading configuration: %w", err)}
	}

	if logLevel != "" {
		switch strings.ToLower(logLevel) {
		case "debug", "info", "warn", "error":
		default:
			return newUsageError("invalid --log-level %q, must be one of: debug, info, warn, error", logLevel)
		}
	}

	if loggerCleanup != nil {
		loggerCleanup()
	}
	_, cleanup, err := logger.InitWithConfig(logger.Config{
		Level:    globalConfig.Logging.Level,
		FilePath: globalConfig.Logging.File,
		NoColor:  globalConfig.Logging.NoColor,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	loggerCleanup = cleanup

	// Handle log level override after the config file level is in place
	if logLevel != "" {
		globalConfig.Logging.Level = strings.ToLower(logLevel)
		logger.SetLogLevel(logLevel)
	}
	config.SetGlobal(globalConfig)

	log := logger.Logger()
	if actualConfigFile != "" {
		log.Debugf("Using configuration from: %s", actualConfigFile)
	}
	return nil
}

// resolveCacheDir applies the --cache-dir > config > XDG > platform precedence.
func resolveCacheDir() (string, error) {
	dir, err := config.ResolveCacheDir(cacheDirFlag, config.Global(), config.OSEnv())
	if err != nil {
		return "", newUsageError("resolving cache directory: %v", err)
	}
	return dir, nil
}
