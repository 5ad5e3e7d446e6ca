// Package testutil provides helpers for generating log files in tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ApachePattern matches the Apache error-log lines produced by
// GenerateErrorLog.
const ApachePattern = `^\[{{time:datetime("%a %b %d %H:%M:%S %Y")}}\] \[{{level:var_name}}\] {{message:any}}$`

// errorLogLines are fictional Apache error-log samples cycled by
// GenerateErrorLog.
var errorLogLines = []string{
	`[Sun Dec 04 04:47:44 2005] [notice] workerEnv.init() ok /etc/httpd/conf/workers2.properties`,
	`[Sun Dec 04 04:47:44 2005] [error] mod_jk child workerEnv in error state 6`,
	`[Sun Dec 04 04:51:08 2005] [notice] jk2_init() Found child 6725 in scoreboard slot 10`,
	`[Sun Dec 04 04:51:09 2005] [notice] jk2_init() Found child 6726 in scoreboard slot 8`,
	`[Sun Dec 04 04:51:52 2005] [error] mod_jk child init 1 -2`,
	`[Mon Dec 05 07:57:02 2005] [warn] jk2_init() Can't find child 1566 in scoreboard`,
}

// GenerateErrorLog writes numLines of Apache error-log samples into a temp
// file and returns its path. The file is removed when the test finishes.
func GenerateErrorLog(t *testing.T, numLines int) string {
	t.Helper()

	var content strings.Builder
	for i := 0; i < numLines; i++ {
		content.WriteString(errorLogLines[i%len(errorLogLines)])
		content.WriteByte('\n')
	}
	return WriteTempLog(t, "error_*.log", content.String())
}

// WriteTempLog writes content into a temp file matching pattern and returns
// its path.
func WriteTempLog(t *testing.T, pattern, content string) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("Failed to create temp log file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("Failed to write temp log file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close temp log file: %v", err)
	}
	return f.Name()
}

// WriteLogAt writes content to dir/name, for tests that need predictable
// glob layouts.
func WriteLogAt(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write log file %s: %v", path, err)
	}
	return path
}
