package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// newTestCmd returns a command whose output is captured in the buffer.
func newTestCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetContext(context.Background())
	return cmd, buf
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// writeConfig writes a config file and points --config at it.
func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := writeFile(t, t.TempDir(), "config.yaml", content)
	orig := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = orig })
}
