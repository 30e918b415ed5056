package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Detect(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"src/app.ts", "typescript"},
		{"src/App.tsx", "tsx"},
		{"lib/index.js", "javascript"},
		{"lib/index.mjs", "javascript"},
		{"ui/Button.jsx", "jsx"},
		{"tool.py", "python"},
		{"index.php", "php"},
		{"UPPER.GO", "go"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			lang, ok := r.Detect(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.want, lang.Name)
		})
	}
}

func TestRegistry_DetectUnsupported(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Detect("README.md")
	assert.False(t, ok)

	_, ok = r.Detect("Makefile")
	assert.False(t, ok)
}

func TestRegistry_ByExtensionWithoutDot(t *testing.T) {
	lang, ok := NewRegistry().ByExtension("py")
	require.True(t, ok)
	assert.Equal(t, "python", lang.Name)
}

func TestRegistry_Extensions(t *testing.T) {
	exts := NewRegistry().Extensions()

	assert.Contains(t, exts, ".go")
	assert.Contains(t, exts, ".php")
	assert.IsIncreasing(t, exts)
}
