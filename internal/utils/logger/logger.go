// Package logger owns the process-wide zap logger used by boxctl.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the verbosity and an optional file the console output is teed to.
type Config struct {
	Level    string
	FilePath string
	NoColor  bool
}

// swapWriter lets tests and the CLI redirect console output after init.
type swapWriter struct {
	mu  sync.RWMutex
	out io.Writer
}

func (w *swapWriter) Write(p []byte) (int, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.out == nil {
		return len(p), nil
	}
	return w.out.Write(p)
}

func (w *swapWriter) Sync() error {
	return nil
}

var (
	sugar     *zap.SugaredLogger
	base      *zap.Logger
	level     zap.AtomicLevel
	once      sync.Once
	mu        sync.RWMutex
	logFile   *os.File
	active    Config
	console   = &swapWriter{out: os.Stderr}
	levelsSet bool
)

func defaultInit() {
	if err := apply(Config{Level: "info"}); err != nil {
		panic(fmt.Sprintf("logger initialization failed: %v", err))
	}
}

func apply(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	lvl := ParseLevel(cfg.Level)
	if !levelsSet {
		level = zap.NewAtomicLevelAt(lvl)
		levelsSet = true
	} else {
		level.SetLevel(lvl)
	}

	encCfg := zap.NewDevelopmentConfig().EncoderConfig
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if cfg.NoColor {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(console), level),
	}

	path := strings.TrimSpace(cfg.FilePath)
	switch {
	case path != "":
		core, f, err := fileCore(encCfg, path)
		if err != nil {
			return err
		}
		if logFile != nil && logFile != f {
			_ = logFile.Close()
		}
		logFile = f
		cores = append(cores, core)
	case logFile != nil:
		_ = logFile.Close()
		logFile = nil
	}

	base = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	sugar = base.Sugar()
	zap.ReplaceGlobals(base)

	active = Config{Level: lvl.String(), FilePath: path, NoColor: cfg.NoColor}
	return nil
}

func fileCore(encCfg zapcore.EncoderConfig, path string) (zapcore.Core, *os.File, error) {
	path = filepath.Clean(path)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory %q: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %q: %w", path, err)
	}

	// no colour escapes in files
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), level), f, nil
}

// InitWithConfig installs the global logger, reconfiguring it when called again with a
// different Config. The returned func flushes and closes the log file.
func InitWithConfig(cfg Config) (*zap.SugaredLogger, func(), error) {
	var initErr error
	first := false
	once.Do(func() {
		first = true
		initErr = apply(cfg)
	})
	if initErr != nil {
		return nil, nil, fmt.Errorf("logger initialization failed: %w", initErr)
	}

	if !first {
		want := Config{Level: ParseLevel(cfg.Level).String(), FilePath: strings.TrimSpace(cfg.FilePath), NoColor: cfg.NoColor}
		mu.RLock()
		same := active == want
		mu.RUnlock()
		if !same {
			if err := apply(cfg); err != nil {
				return nil, nil, fmt.Errorf("logger reconfiguration failed: %w", err)
			}
		}
	}

	mu.RLock()
	defer mu.RUnlock()
	return sugar, cleanupFunc(logFile), nil
}

// Logger returns the global sugared logger, initialising it at info level on first use.
func Logger() *zap.SugaredLogger {
	once.Do(defaultInit)

	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func cleanupFunc(f *os.File) func() {
	return func() {
		mu.Lock()
		defer mu.Unlock()

		if base != nil {
			// stderr sync returns EINVAL on most terminals
			_ = base.Sync()
		}
		if f != nil {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "error closing log file: %v\n", err)
			}
			if logFile == f {
				logFile = nil
				// force the next InitWithConfig to reopen the file
				active.FilePath = ""
			}
		}
	}
}

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogLevel changes the level of an initialised logger in place.
func SetLogLevel(name string) {
	mu.Lock()
	defer mu.Unlock()

	if !levelsSet {
		return
	}
	lvl := ParseLevel(name)
	level.SetLevel(lvl)
	active.Level = lvl.String()
}

// CurrentLevel reports the active level name.
func CurrentLevel() string {
	Logger()
	mu.RLock()
	defer mu.RUnlock()
	return level.Level().String()
}

// ReplaceStderrWriter swaps the console writer and returns the previous one.
func ReplaceStderrWriter(w io.Writer) io.Writer {
	if w == nil {
		w = os.Stderr
	}

	console.mu.Lock()
	defer console.mu.Unlock()

	old := console.out
	if old == nil {
		old = os.Stderr
	}
	console.out = w
	return old
}
