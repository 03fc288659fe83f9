package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// resetLogger drops all global state so each test starts from scratch.
func resetLogger() {
	mu.Lock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	sugar = nil
	base = nil
	level = zap.AtomicLevel{}
	levelsSet = false
	active = Config{}
	mu.Unlock()
	once = sync.Once{}
}

func TestSwapWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &swapWriter{out: &buf}

	n, err := w.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 5 || buf.String() != "hello" {
		t.Errorf("unexpected write result n=%d buf=%q", n, buf.String())
	}
	if err := w.Sync(); err != nil {
		t.Errorf("Sync should be a no-op, got %v", err)
	}

	empty := &swapWriter{}
	if n, err := empty.Write([]byte("dropped")); err != nil || n != 7 {
		t.Errorf("nil writer should swallow output, got n=%d err=%v", n, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{" error ", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerDefaultsToInfo(t *testing.T) {
	resetLogger()

	if Logger() == nil {
		t.Fatal("Logger() returned nil")
	}
	if got := CurrentLevel(); got != "info" {
		t.Errorf("expected info level, got %s", got)
	}
}

func TestInitWithConfigReconfigures(t *testing.T) {
	resetLogger()

	first, cleanup1, err := InitWithConfig(Config{Level: "debug"})
	if err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}
	defer cleanup1()
	second, cleanup2, err := InitWithConfig(Config{Level: "error"})
	if err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}
	defer cleanup2()

	if first == nil || second == nil {
		t.Fatal("InitWithConfig returned nil logger")
	}
	if second != Logger() {
		t.Error("latest InitWithConfig did not replace the global logger")
	}
	if level.Level() != zapcore.ErrorLevel {
		t.Errorf("expected error level, got %v", level.Level())
	}
}

func TestInitWithConfigSameConfigKeepsLogger(t *testing.T) {
	resetLogger()

	a, c1, err := InitWithConfig(Config{Level: "warn"})
	if err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}
	defer c1()
	b, c2, err := InitWithConfig(Config{Level: "warning"})
	if err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}
	defer c2()

	if a != b {
		t.Error("equivalent config should not rebuild the logger")
	}
}

func TestInitWithConfigFile(t *testing.T) {
	resetLogger()

	logPath := filepath.Join(t.TempDir(), "nested", "boxctl.log")
	s, cleanup, err := InitWithConfig(Config{Level: "info", FilePath: logPath})
	if err != nil {
		t.Fatalf("InitWithConfig returned error: %v", err)
	}

	s.Info("file logging test")
	cleanup()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "file logging test") {
		t.Errorf("log file missing message: %q", text)
	}
	if strings.Contains(text, "\x1b[") {
		t.Errorf("log file should not contain colour escapes: %q", text)
	}
}

func TestSetLogLevelAndStderrCapture(t *testing.T) {
	resetLogger()

	var buf bytes.Buffer
	old := ReplaceStderrWriter(&buf)
	defer ReplaceStderrWriter(old)

	_, cleanup, err := InitWithConfig(Config{Level: "info", NoColor: true})
	if err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}
	defer cleanup()

	Logger().Debug("hidden")
	SetLogLevel("debug")
	Logger().Debug("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message leaked at info level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("debug message missing after SetLogLevel: %q", out)
	}
	if !strings.Contains(out, "DEBUG") {
		t.Errorf("expected plain level name with NoColor: %q", out)
	}
}

func TestSetLogLevelBeforeInitIsNoop(t *testing.T) {
	resetLogger()
	SetLogLevel("debug")
	if levelsSet {
		t.Error("SetLogLevel must not initialise the logger")
	}
}
