package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/symdex/internal/store"
	"github.com/Aman-CERP/symdex/pkg/version"
)

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	cmd.SetIn(stdin)
	cmd.SetArgs(args)
	err := cmd.Execute()
	t.Cleanup(func() { _ = stopRun(nil, nil) })
	return out.String(), err
}

// newProjectDir creates a git-rooted project with one Go file.
func newProjectDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	writeFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc Main() {}\n")
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	out, err := runCmd(t, nil, "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "symdex")
	for _, sub := range []string{"reindex", "status", "watch", "serve", "init", "logs", "doctor", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmd_Version(t *testing.T) {
	out, err := runCmd(t, nil, "--version")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "symdex version "))
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, err := runCmd(t, nil, "search", "foo")
	assert.Error(t, err)
}

func TestRootCmd_ProfilesAreWritten(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")

	_, err := runCmd(t, nil, "version", "--short", "--profile-cpu", cpu)

	require.NoError(t, err)
	info, err := os.Stat(cpu)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestVersionCmd_JSON(t *testing.T) {
	out, err := runCmd(t, nil, "version", "--json")

	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Contains(t, report, "go_version")
	assert.EqualValues(t, store.CurrentSchemaVersion, report["schema_version"])
	assert.Contains(t, report["builtin_languages"], "go")
}

func TestVersionCmd_Text(t *testing.T) {
	out, err := runCmd(t, nil, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "symdex "+version.Version)
	assert.Contains(t, out, "schema:")
	assert.Contains(t, out, "go,")
}
