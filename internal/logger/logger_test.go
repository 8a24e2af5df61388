package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogRotation(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "import.log")

	cfg := FileConfig{
		Path:       logFile,
		MaxSizeMB:  1, // smallest lumberjack allows
		MaxBackups: 2,
		MaxAgeDays: 1,
		Compress:   false,
	}

	l, err := New("debug", cfg, nil)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	longMessage := strings.Repeat("x", 200)
	for i := 0; i < 8000; i++ {
		l.Info("layer imported", zap.Int("entry", i), zap.String("pad", longMessage))
	}
	_ = l.Sync()

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("main log file does not exist")
	}

	files, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}

	rotated := 0
	for _, f := range files {
		name := f.Name()
		if name == "import.log" || !strings.HasPrefix(name, "import") {
			continue
		}
		rotated++
		// import-YYYY-MM-DDTHH-MM-SS.SSS.log
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s doesn't have expected timestamp format", name)
		}
	}
	if rotated == 0 {
		t.Error("no rotated files found")
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{level: "error", expected: []string{"ERROR"}, excluded: []string{"WARN", "INFO", "DEBUG"}},
		{level: "warn", expected: []string{"ERROR", "WARN"}, excluded: []string{"INFO", "DEBUG"}},
		{level: "info", expected: []string{"ERROR", "WARN", "INFO"}, excluded: []string{"DEBUG"}},
		{level: "debug", expected: []string{"ERROR", "WARN", "INFO", "DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			if err := InitWithFileConfig(tt.level, FileConfig{}, &buf); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			out := buf.String()
			for _, exp := range tt.expected {
				if !strings.Contains(out, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(out, exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestInit_RebindsSugar(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFileConfig("debug", FileConfig{}, &buf); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer func() { Log, Sugar = zap.NewNop(), zap.NewNop().Sugar() }()

	Sugar.Debugf("config: root=%s workers=%d", "maps", 4)
	Sync()

	if !strings.Contains(buf.String(), "config: root=maps workers=4") {
		t.Errorf("expected sugared message in output, got %q", buf.String())
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("loud", FileConfig{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew_FileIsJSON(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "import.log")
	l, err := New("info", DefaultFileConfig(logFile), nil)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	l.Warn("no template for object type", zap.String("type", "enemy"))
	_ = l.Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", data, err)
	}
	if entry["type"] != "enemy" || entry["level"] != "WARN" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNew_NoOutputs(t *testing.T) {
	l, err := New("info", FileConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zap.ErrorLevel) {
		t.Error("expected a no-op logger without outputs")
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/import.log")

	if cfg.Path != "/tmp/import.log" {
		t.Errorf("expected path /tmp/import.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 20 {
		t.Errorf("expected MaxSizeMB 20, got %d", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 3 {
		t.Errorf("expected MaxBackups 3, got %d", cfg.MaxBackups)
	}
	if cfg.MaxAgeDays != 14 {
		t.Errorf("expected MaxAgeDays 14, got %d", cfg.MaxAgeDays)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}
