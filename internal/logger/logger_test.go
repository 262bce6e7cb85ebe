package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Setup("warn", "json", &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("op", "fetch").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["message"] != "shown" || entry["op"] != "fetch" || entry["level"] != "warn" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestSetupUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := Setup("loud", "json", &buf)

	log.Debug().Msg("debug")
	log.Info().Msg("info")

	if strings.Contains(buf.String(), `"debug"`) {
		t.Errorf("debug should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"info"`) {
		t.Errorf("info missing: %q", buf.String())
	}
}

func TestSetupPretty(t *testing.T) {
	var buf bytes.Buffer
	log := Setup("info", "pretty", &buf)
	log.Info().Msg("hello")

	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("pretty output looks like JSON: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("message missing: %q", buf.String())
	}
}

func TestOpenFileCreatesParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "app.log")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat: %v", err)
	}
}

func TestDefaultPathUsesXDGState(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != "/tmp/state/repeticio/repeticio.log" {
		t.Errorf("path = %q", p)
	}
}
