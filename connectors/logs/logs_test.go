package logs

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_FileGetsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.log")
	var console bytes.Buffer
	logger, closer, err := New(Options{Level: "info", File: path, Console: &console})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug().Msg("hidden")
	logger.Info().Str("run_id", "abc").Msg("calculate.done")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines: %q", lines)
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("json: %v", err)
	}
	if ev["message"] != "calculate.done" || ev["run_id"] != "abc" || ev["level"] != "info" {
		t.Errorf("event: %v", ev)
	}
	if !strings.Contains(console.String(), "calculate.done") {
		t.Errorf("console: %q", console.String())
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error")
	}
}
