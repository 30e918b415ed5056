package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/symdex/configs"
	"github.com/Aman-CERP/symdex/internal/config"
	"github.com/Aman-CERP/symdex/internal/output"
)

const stateDir = ".symdex"

func newInitCmd() *cobra.Command {
	var (
		force    bool
		writeMCP bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a .symdex.yaml and ignore the index directory",
		Long: `Create .symdex.yaml in the project root from the built-in template and
add .symdex/ to .gitignore. With --mcp, also register 'symdex serve' in
.mcp.json so MCP clients started in this project can use it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			root, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			return runInit(output.New(cmd.OutOrStdout()), root, force, writeMCP)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&writeMCP, "mcp", false, "Register the MCP server in .mcp.json")
	return cmd
}

func runInit(out *output.Writer, root string, force, writeMCP bool) error {
	cfgPath := filepath.Join(root, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}
	if err := os.WriteFile(cfgPath, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfgPath, err)
	}
	out.Successf("Created %s", cfgPath)

	added, err := ensureGitignore(root)
	switch {
	case err != nil:
		out.Warningf("Could not update .gitignore: %v", err)
	case added:
		out.Successf("Added %s/ to .gitignore", stateDir)
	}

	if writeMCP {
		path, err := writeMCPConfig(root)
		if err != nil {
			return err
		}
		out.Successf("Registered symdex in %s", path)
	}
	return nil
}

// hasStateIgnore reports whether a .gitignore already covers .symdex/.
func hasStateIgnore(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		switch strings.TrimSpace(line) {
		case stateDir, stateDir + "/", "/" + stateDir, "/" + stateDir + "/":
			return true
		}
	}
	return false
}

// ensureGitignore appends .symdex/ to root/.gitignore unless present.
// It keeps the file's line endings.
func ensureGitignore(root string) (bool, error) {
	path := filepath.Join(root, ".gitignore")
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("reading .gitignore: %w", err)
	}
	if hasStateIgnore(string(content)) {
		return false, nil
	}

	eol := "\n"
	if bytes.Contains(content, []byte("\r\n")) {
		eol = "\r\n"
	}
	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		content = append(content, eol...)
	}
	if len(content) > 0 {
		content = append(content, eol...)
	}
	content = append(content, "# symdex index"+eol+stateDir+"/"+eol...)

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("writing .gitignore: %w", err)
	}
	return true, nil
}

type mcpServerConfig struct {
	Type    string   `json:"type"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Cwd     string   `json:"cwd,omitempty"`
}

// writeMCPConfig adds a "symdex" entry to root/.mcp.json, keeping every
// other server already listed there.
func writeMCPConfig(root string) (string, error) {
	path := filepath.Join(root, ".mcp.json")

	doc := map[string]json.RawMessage{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	servers := map[string]json.RawMessage{}
	if raw, ok := doc["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return "", fmt.Errorf("failed to parse mcpServers in %s: %w", path, err)
		}
	}

	command, err := os.Executable()
	if err != nil {
		command = "symdex"
	}
	entry, err := json.Marshal(mcpServerConfig{
		Type:    "stdio",
		Command: command,
		Args:    []string{"serve"},
		Cwd:     root,
	})
	if err != nil {
		return "", err
	}
	servers["symdex"] = entry

	if doc["mcpServers"], err = json.Marshal(servers); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
