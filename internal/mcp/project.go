package mcp

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	goModuleRe      = regexp.MustCompile(`^module\s+(\S+)`)
	pyprojectNameRe = regexp.MustCompile(`^\s*name\s*=\s*["']([^"']+)["']`)
)

// DetectProject returns project information read from the manifest files
// in root. Detection order: go.mod, package.json, composer.json,
// pyproject.toml, then the directory name.
func DetectProject(root string) ProjectInfo {
	info := ProjectInfo{
		RootPath: root,
		Name:     filepath.Base(root),
		Type:     "unknown",
	}

	detectors := []struct {
		kind   string
		detect func(string) string
	}{
		{"go", detectGoMod},
		{"node", detectPackageJSON},
		{"php", detectComposerJSON},
		{"python", detectPyproject},
	}
	for _, d := range detectors {
		if name := d.detect(root); name != "" {
			info.Name = name
			info.Type = d.kind
			return info
		}
	}
	return info
}

func detectGoMod(root string) string {
	f, err := os.Open(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if m := goModuleRe.FindStringSubmatch(strings.TrimSpace(sc.Text())); m != nil {
			return filepath.Base(m[1])
		}
	}
	return ""
}

// jsonName reads the "name" field of a JSON manifest and drops any
// "vendor/" or "@scope/" prefix.
func jsonName(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var manifest struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	name := manifest.Name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func detectPackageJSON(root string) string {
	return jsonName(filepath.Join(root, "package.json"))
}

func detectComposerJSON(root string) string {
	return jsonName(filepath.Join(root, "composer.json"))
}

// detectPyproject reads name from the [project] table of pyproject.toml.
func detectPyproject(root string) string {
	f, err := os.Open(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	inProject := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "[") {
			inProject = line == "[project]"
			continue
		}
		if inProject {
			if m := pyprojectNameRe.FindStringSubmatch(line); m != nil {
				return m[1]
			}
		}
	}
	return ""
}
