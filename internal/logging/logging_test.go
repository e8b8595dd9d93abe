package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_EmptyFileIsNop(t *testing.T) {
	l, err := New("info", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(0) {
		t.Error("no-op logger reports enabled")
	}
}

func TestNew_WritesToFile(t *testing.T) {
	// Given: a log file in a directory that does not exist yet
	path := filepath.Join(t.TempDir(), "nested", "campdesk.log")

	// When: a warning is logged at info level and a debug line is dropped
	l, err := New("info", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Debug("hidden")
	l.Warn("fetch failed")
	_ = l.Sync()

	// Then: only the warning lands in the file
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "fetch failed") {
		t.Errorf("log missing warning: %s", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("debug line written at info level: %s", data)
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New("loud", filepath.Join(t.TempDir(), "x.log")); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
