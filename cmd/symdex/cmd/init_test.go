package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/symdex/internal/config"
)

func TestInitCmd_WritesConfigAndGitignore(t *testing.T) {
	// Given: an empty project directory
	root := t.TempDir()

	// When: running init
	out, err := runCmd(t, nil, "init", root)

	// Then: the config loads and .symdex/ is ignored
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	_, err = config.Load(root)
	require.NoError(t, err)
	ignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "# symdex index\n.symdex/\n", string(ignore))
}

func TestInitCmd_RefusesToOverwrite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.FileName), "version: 1\n")

	_, err := runCmd(t, nil, "init", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, err = runCmd(t, nil, "init", root, "--force")
	require.NoError(t, err)
}

func TestEnsureGitignore(t *testing.T) {
	tests := []struct {
		name      string
		existing  string
		wantAdded bool
		want      string
	}{
		{
			name:      "appends after existing entries",
			existing:  "bin/\n",
			wantAdded: true,
			want:      "bin/\n\n# symdex index\n.symdex/\n",
		},
		{
			name:      "adds missing trailing newline",
			existing:  "bin/",
			wantAdded: true,
			want:      "bin/\n\n# symdex index\n.symdex/\n",
		},
		{
			name:      "keeps CRLF line endings",
			existing:  "bin/\r\n",
			wantAdded: true,
			want:      "bin/\r\n\r\n# symdex index\r\n.symdex/\r\n",
		},
		{
			name:     "leaves a covering entry alone",
			existing: "/.symdex\n",
			want:     "/.symdex\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, ".gitignore")
			writeFile(t, path, tt.existing)

			added, err := ensureGitignore(root)

			require.NoError(t, err)
			assert.Equal(t, tt.wantAdded, added)
			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestInitCmd_MCPMergesExistingServers(t *testing.T) {
	// Given: an .mcp.json that already lists another server
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".mcp.json"),
		`{"mcpServers": {"other": {"type": "stdio", "command": "other"}}, "extra": true}`)

	// When: running init --mcp
	_, err := runCmd(t, nil, "init", root, "--mcp")
	require.NoError(t, err)

	// Then: symdex is added and the rest is kept
	data, err := os.ReadFile(filepath.Join(root, ".mcp.json"))
	require.NoError(t, err)
	var doc struct {
		MCPServers map[string]mcpServerConfig `json:"mcpServers"`
		Extra      bool                       `json:"extra"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.True(t, doc.Extra)
	assert.Equal(t, "other", doc.MCPServers["other"].Command)
	entry := doc.MCPServers["symdex"]
	assert.Equal(t, "stdio", entry.Type)
	assert.Equal(t, []string{"serve"}, entry.Args)
	assert.Equal(t, root, entry.Cwd)
}

func TestDiscoveryDir(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	file := filepath.Join(sub, "a.go")
	writeFile(t, file, "package pkg\n")

	assert.Equal(t, sub, discoveryDir(sub))
	assert.Equal(t, sub, discoveryDir(file))
	assert.Equal(t, sub, discoveryDir(filepath.Join(sub, "missing", "b.go")))
}
