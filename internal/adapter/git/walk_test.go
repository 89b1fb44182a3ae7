package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/chatagent/code-analyzer/internal/adapter/llm/http"
)

func TestWalkProject(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"main.go":         "package main",
		"lib/util.py":     "def util(): pass",
		"web/app.tsx":     "export {}",
		"README.md":       "# readme",
		"assets/logo.svg": "<svg/>",
		".git/config":     "[core]",
	} {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	m := NewManager("", nil, llmhttp.NopLogger{}, 0)

	files, err := m.WalkProject(context.Background(), &Clone{Dir: dir})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "lib/util.py", "web/app.tsx"}, files)
}

func TestWalkProjectEmptyTree(t *testing.T) {
	m := NewManager("", nil, llmhttp.NopLogger{}, 0)

	files, err := m.WalkProject(context.Background(), &Clone{Dir: t.TempDir()})

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestHasProjectExtension(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"cmd/server/main.go", true},
		{"src/App.TSX", true},
		{"docs/guide.md", false},
		{"Makefile", false},
		{"native/bridge.cpp", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, hasProjectExtension(tt.path))
		})
	}
}
