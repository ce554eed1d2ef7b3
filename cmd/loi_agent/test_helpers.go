package main

import (
	"os"
	"path/filepath"
	"testing"
)

// binaryEnv points CLI tests at a prebuilt binary outside the repo's bin/.
const binaryEnv = "LOI_AGENT_BIN"

// agentBinary returns the loi_agent binary used by exec-based CLI tests,
// skipping the test when none has been built.
func agentBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("exec-based CLI tests are skipped in short mode")
	}

	path := os.Getenv(binaryEnv)
	if path == "" {
		path = filepath.Join("..", "..", "bin", "loi_agent")
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		t.Skipf("no loi_agent binary at %s; run 'go build -o bin/loi_agent ./cmd/loi_agent' or set %s", path, binaryEnv)
	}
	return path
}
