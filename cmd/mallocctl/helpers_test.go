package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testTracePath returns a trace from the trace package's testdata.
func testTracePath(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("..", "..", "internal", "trace", "testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("missing trace %s: %v", path, err)
	}
	return path
}

func resetGlobalFlags() {
	verbose = false
	quiet = false
	jsonOut = false
	noColor = true
}

// captureOutput runs fn with command output redirected into a buffer.
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()
	err := fn()
	return buf.String(), err
}

func assertJSON(t *testing.T, output string) {
	t.Helper()
	if !json.Valid([]byte(output)) {
		t.Errorf("output is not valid JSON:\n%s", output)
	}
}

func assertContains(t *testing.T, output string, want []string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("output missing %q\ngot:\n%s", w, output)
		}
	}
}

func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(output, u) {
			t.Errorf("output unexpectedly contains %q\ngot:\n%s", u, output)
		}
	}
}
