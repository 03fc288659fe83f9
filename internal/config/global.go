// Package config holds boxctl's tool-level configuration and its resolution rules.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/open-edge-platform/boxctl/internal/config/validate"
	"github.com/open-edge-platform/boxctl/internal/utils/logger"
	"github.com/open-edge-platform/boxctl/internal/utils/security"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigName is what `config init` writes when no path is given.
	DefaultConfigName = "boxctl.yml"

	defaultHTTPTimeout = 60 * time.Second
)

var log = logger.Logger()

// GlobalConfig holds tool-level settings shared by every command.
type GlobalConfig struct {
	CacheDir    string            `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`       // verified image cache; empty = XDG/platform default
	TempDir     string            `yaml:"temp_dir,omitempty" json:"temp_dir,omitempty"`         // parent of per-run work dirs; empty = os.TempDir()
	HTTPTimeout string            `yaml:"http_timeout,omitempty" json:"http_timeout,omitempty"` // manifest/signature request timeout
	Keyring     string            `yaml:"keyring,omitempty" json:"keyring,omitempty"`           // OpenPGP keyring for manifest signatures
	Mirrors     map[string]string `yaml:"mirrors,omitempty" json:"mirrors,omitempty"`           // per-distro base URL overrides

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LoggingConfig controls console verbosity and the optional log file.
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file,omitempty" json:"file,omitempty"`
	NoColor bool   `yaml:"no_color,omitempty" json:"no_color,omitempty"`
}

var (
	globalInstance *GlobalConfig
	globalMutex    sync.RWMutex
)

// SetGlobal installs cfg as the process-wide configuration.
func SetGlobal(cfg *GlobalConfig) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalInstance = cfg
}

// Global returns the process-wide configuration, falling back to defaults.
func Global() *GlobalConfig {
	globalMutex.RLock()
	cfg := globalInstance
	globalMutex.RUnlock()
	if cfg != nil {
		return cfg
	}

	globalMutex.Lock()
	defer globalMutex.Unlock()
	if globalInstance == nil {
		globalInstance = DefaultGlobalConfig()
	}
	return globalInstance
}

// DefaultGlobalConfig returns the configuration used when no file is found.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		HTTPTimeout: "60s",
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadGlobalConfig reads configPath over the defaults. An empty or missing path yields the
// defaults unchanged.
func LoadGlobalConfig(configPath string) (*GlobalConfig, error) {
	cfg := DefaultGlobalConfig()
	if configPath == "" {
		return cfg, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		if errors.Is(err, os.ErrPermission) {
			log.Warnf("Config file %s is not accessible (%v); using defaults", configPath, err)
			return cfg, nil
		}
		return nil, fmt.Errorf("accessing config file %s: %w", configPath, err)
	}

	ext := strings.ToLower(filepath.Ext(configPath))
	if ext != ".yml" && ext != ".yaml" {
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml)", ext)
	}

	data, err := security.SafeReadFile(configPath, security.RejectSymlinks)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Errorf("Error parsing YAML config %s: %v", configPath, err)
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}

	if err := security.ValidateStructStrings(cfg, security.DefaultLimits()); err != nil {
		return nil, fmt.Errorf("config contains invalid values: %w", err)
	}

	jsonData, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("converting config to JSON for validation: %w", err)
	}
	if err := validate.ValidateConfigJSON(jsonData); err != nil {
		log.Errorf("Schema validation failed for %s: %v", configPath, err)
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks constraints the schema cannot express and normalises whitespace.
func (gc *GlobalConfig) Validate() error {
	switch gc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", gc.Logging.Level)
	}

	if gc.HTTPTimeout != "" {
		d, err := time.ParseDuration(gc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("invalid http_timeout %q: %w", gc.HTTPTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("http_timeout must be positive, got %s", gc.HTTPTimeout)
		}
	}

	for distro, mirror := range gc.Mirrors {
		gc.Mirrors[distro] = strings.TrimRight(strings.TrimSpace(mirror), "/")
	}

	gc.CacheDir = strings.TrimSpace(gc.CacheDir)
	gc.TempDir = strings.TrimSpace(gc.TempDir)
	gc.Keyring = strings.TrimSpace(gc.Keyring)
	gc.Logging.File = strings.TrimSpace(gc.Logging.File)
	return nil
}

// Timeout returns the manifest request timeout.
func (gc *GlobalConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(gc.HTTPTimeout)
	if err != nil || d <= 0 {
		return defaultHTTPTimeout
	}
	return d
}

// Mirror returns the configured base URL override for distro, or "".
func (gc *GlobalConfig) Mirror(distro string) string {
	return gc.Mirrors[distro]
}

// SaveGlobalConfigWithComments writes the config as annotated YAML, refusing symlinks.
func (gc *GlobalConfig) SaveGlobalConfigWithComments(configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config path is empty")
	}

	if dir := filepath.Dir(configPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	jsonData, err := json.Marshal(gc)
	if err != nil {
		return fmt.Errorf("converting config to JSON for validation: %w", err)
	}
	if err := validate.ValidateConfigJSON(jsonData); err != nil {
		return fmt.Errorf("config validation failed before save: %w", err)
	}

	if err := security.SafeWriteFile(configPath, []byte(gc.renderCommentedYAML()), 0o600, security.RejectSymlinks); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (gc *GlobalConfig) renderCommentedYAML() string {
	var b strings.Builder

	b.WriteString("# boxctl - Global Configuration\n\n")

	b.WriteString("# Directory holding verified cloud images.\n")
	b.WriteString("# Empty uses $XDG_CACHE_HOME, then ~/.cache (platform cache dir outside Linux).\n")
	fmt.Fprintf(&b, "cache_dir: %q\n\n", gc.CacheDir)

	b.WriteString("# Parent of the per-run work directory holding checksum manifests.\n")
	b.WriteString("# Empty uses the system temp directory.\n")
	fmt.Fprintf(&b, "temp_dir: %q\n\n", gc.TempDir)

	b.WriteString("# Timeout for checksum manifest and signature requests.\n")
	fmt.Fprintf(&b, "http_timeout: %q\n\n", gc.HTTPTimeout)

	b.WriteString("# OpenPGP keyring used to verify SHA256SUMS.gpg / signed CHECKSUM files.\n")
	b.WriteString("# Leave empty to skip signature verification.\n")
	if gc.Keyring != "" {
		fmt.Fprintf(&b, "keyring: %q\n\n", gc.Keyring)
	} else {
		b.WriteString("# keyring: \"/usr/share/keyrings/ubuntu-cloudimage-keyring.gpg\"\n\n")
	}

	b.WriteString("# Base URL overrides per distribution.\n")
	if len(gc.Mirrors) > 0 {
		b.WriteString("mirrors:\n")
		for _, distro := range []string{"ubuntu", "fedora"} {
			if m, ok := gc.Mirrors[distro]; ok {
				fmt.Fprintf(&b, "  %s: %q\n", distro, m)
			}
		}
		b.WriteString("\n")
	} else {
		b.WriteString("# mirrors:\n#   ubuntu: \"https://cloud-images.ubuntu.com/releases\"\n\n")
	}

	b.WriteString("logging:\n")
	fmt.Fprintf(&b, "  level: %q\n", gc.Logging.Level)
	b.WriteString("  # debug | info | warn | error\n")
	if gc.Logging.File != "" {
		fmt.Fprintf(&b, "  file: %q\n", gc.Logging.File)
		b.WriteString("  # Tee logs to this file (overwritten on each run)\n")
	}
	if gc.Logging.NoColor {
		b.WriteString("  no_color: true\n")
	}

	return b.String()
}

// GetConfigPaths lists the locations searched for a config file, in order.
func GetConfigPaths() []string {
	paths := []string{
		"boxctl.yml",
		".boxctl.yml",
		"boxctl.yaml",
		".boxctl.yaml",
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths,
			filepath.Join(xdg, "boxctl", "config.yml"),
			filepath.Join(xdg, "boxctl", "config.yaml"),
		)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths,
			filepath.Join(home, ".config", "boxctl", "config.yml"),
			filepath.Join(home, ".config", "boxctl", "config.yaml"),
		)
	}

	return append(paths, "/etc/boxctl/config.yml", "/etc/boxctl/config.yaml")
}

// FindConfigFile returns the first existing path from GetConfigPaths, or "".
func FindConfigFile() string {
	for _, p := range GetConfigPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Env abstracts the process environment for path resolution.
type Env struct {
	Getenv  func(string) string
	HomeDir func() (string, error)
	GOOS    string
}

// OSEnv reads the real process environment.
func OSEnv() Env {
	return Env{Getenv: os.Getenv, HomeDir: os.UserHomeDir, GOOS: runtime.GOOS}
}

// ResolveCacheDir picks the image cache directory at call time: explicit override, config
// file, $XDG_CACHE_HOME, then the platform default.
func ResolveCacheDir(override string, cfg *GlobalConfig, env Env) (string, error) {
	dir := strings.TrimSpace(override)
	if dir == "" && cfg != nil {
		dir = cfg.CacheDir
	}
	if dir == "" && env.Getenv != nil {
		dir = env.Getenv("XDG_CACHE_HOME")
	}
	if dir == "" {
		var err error
		dir, err = platformCacheDir(env)
		if err != nil {
			return "", err
		}
	}

	dir, err := expandHome(dir, env)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	return abs, nil
}

func platformCacheDir(env Env) (string, error) {
	switch env.GOOS {
	case "darwin", "windows", "plan9", "ios":
		dir, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("determining user cache directory: %w", err)
		}
		return dir, nil
	}

	if env.HomeDir == nil {
		return "", fmt.Errorf("cannot determine home directory")
	}
	home, err := env.HomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, ".cache"), nil
}

func expandHome(path string, env Env) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	if env.HomeDir == nil {
		return "", fmt.Errorf("cannot expand %q: no home directory", path)
	}
	home, err := env.HomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// TempDirOrDefault returns the parent directory for per-run work directories.
func (gc *GlobalConfig) TempDirOrDefault() string {
	if gc.TempDir == "" {
		return os.TempDir()
	}
	return gc.TempDir
}
