package gitignore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		isDir   bool
		want    bool
	}{
		{"exact filename", "foo.txt", "foo.txt", false, true},
		{"filename in subdir", "foo.txt", "a/b/foo.txt", false, true},
		{"different name", "foo.txt", "bar.txt", false, false},
		{"extension wildcard", "*.log", "logs/error.log", false, true},
		{"wildcard does not cross slash", "src/*.go", "src/pkg/a.go", false, false},
		{"question mark", "file?.go", "file1.go", false, true},
		{"character class", "file[0-9].go", "file7.go", false, true},
		{"negated class", "file[!0-9].go", "file7.go", false, false},
		{"dir only matches dir", "build/", "build", true, true},
		{"dir only skips file", "build/", "build", false, false},
		{"dir only covers contents", "build/", "build/out/app", false, true},
		{"dir only nested", "node_modules/", "web/node_modules/x/index.js", false, true},
		{"rooted", "/vendor", "vendor", true, true},
		{"rooted not nested", "/vendor", "pkg/vendor", true, false},
		{"inner slash anchors", "doc/frotz", "doc/frotz", false, true},
		{"inner slash anchors not nested", "doc/frotz", "a/doc/frotz", false, false},
		{"leading double star", "**/gen", "a/b/gen", true, true},
		{"trailing double star", "out/**", "out/a/b.txt", false, true},
		{"middle double star", "a/**/z", "a/b/c/z", false, true},
		{"escaped hash", `\#notes`, "#notes", false, true},
		{"dot is literal", "*.go", "filexgo", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.AddPattern(tt.pattern)
			assert.Equal(t, tt.want, m.Match(tt.path, tt.isDir))
		})
	}
}

func TestMatcher_CommentsAndBlankLinesIgnored(t *testing.T) {
	m := New()
	m.AddPattern("")
	m.AddPattern("   ")
	m.AddPattern("# comment")

	assert.Equal(t, 0, m.Len())
}

func TestMatcher_NegationLastRuleWins(t *testing.T) {
	// Given: all logs ignored except one
	m := New()
	m.AddPattern("*.log")
	m.AddPattern("!keep.log")

	// Then: the negated file is re-included
	assert.True(t, m.Match("debug.log", false))
	assert.False(t, m.Match("keep.log", false))
}

func TestMatcher_CacheInvalidatedOnNewRule(t *testing.T) {
	m := New()
	assert.False(t, m.Match("tmp.txt", false))

	m.AddPattern("*.txt")

	assert.True(t, m.Match("tmp.txt", false))
}

func TestMatcher_BaseScopesRules(t *testing.T) {
	m := New()
	m.AddPatternWithBase("dist/", "web")

	assert.True(t, m.Match("web/dist/app.js", false))
	assert.False(t, m.Match("dist/app.js", false))
}

func TestMatcher_AddFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(path, []byte("# deps\nvendor/\n*.tmp\n"), 0o644))

	m := New()
	require.NoError(t, m.AddFromFile(path, ""))

	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Match("vendor/lib.go", false))
	assert.True(t, m.Match("x.tmp", false))
	assert.False(t, m.Match("main.go", false))
}

func TestMatcher_AddFromFileMissing(t *testing.T) {
	assert.Error(t, New().AddFromFile(filepath.Join(t.TempDir(), "nope"), ""))
}

func TestMatcher_ConcurrentMatch(t *testing.T) {
	m := New()
	m.AddPattern("*.log")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.True(t, m.Match("a/b.log", false))
				assert.False(t, m.Match("a/b.go", false))
			}
		}()
	}
	wg.Wait()
}
