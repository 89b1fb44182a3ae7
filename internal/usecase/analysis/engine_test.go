package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatagent/code-analyzer/internal/domain"
)

type fakeGateway struct {
	calls   []string
	failOn  map[string]bool
	failAll bool
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) Complete(ctx context.Context, prompt string) (string, error) {
	g.calls = append(g.calls, prompt)
	if g.failAll {
		return "", errors.New("upstream down")
	}
	for path := range g.failOn {
		if strings.Contains(prompt, "- Codigo: "+path) {
			return "", errors.New("upstream rejected " + path)
		}
	}
	return "analysis output", nil
}

type nopLogger struct{}

func (nopLogger) LogInfo(context.Context, string, map[string]interface{})    {}
func (nopLogger) LogWarning(context.Context, string, map[string]interface{}) {}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func testRequest() *domain.AnalysisRequest {
	return &domain.AnalysisRequest{
		Prompt: "analyze this code for: quality.",
	}
}

func TestAnalyzeFilesBuildsReport(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"main.go":  "package main",
		"util.py":  "def f(): pass",
		"README":   "docs only",
		"empty.go": "   \n",
	})

	gw := &fakeGateway{}
	engine := NewEngine(gw, nopLogger{}, 0)

	report, count, err := engine.AnalyzeFiles(context.Background(), root,
		[]string{"main.go", "util.py", "README", "empty.go"}, testRequest())

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Contains(t, report, "**Arquivos analisados (2):**")
	assert.Contains(t, report, "1. `main.go`")
	assert.Contains(t, report, "2. `util.py`")
	assert.Contains(t, report, "## Arquivo: main.go")
	assert.Contains(t, report, "## Arquivo: util.py")
	assert.NotContains(t, report, "README")
	assert.Len(t, gw.calls, 2)
}

func TestAnalyzeFilesToleratesPerFileFailures(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"ok.go":  "package ok",
		"bad.go": "package bad",
	})

	gw := &fakeGateway{failOn: map[string]bool{"bad.go": true}}
	engine := NewEngine(gw, nopLogger{}, 0)

	report, count, err := engine.AnalyzeFiles(context.Background(), root,
		[]string{"ok.go", "bad.go"}, testRequest())

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, report, "## Arquivo: ok.go")
	assert.NotContains(t, report, "## Arquivo: bad.go")
}

func TestAnalyzeFilesFallbackWhenAllCallsFail(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.go": "package a",
		"b.go": "package b",
	})

	gw := &fakeGateway{failAll: true}
	engine := NewEngine(gw, nopLogger{}, 0)

	report, count, err := engine.AnalyzeFiles(context.Background(), root,
		[]string{"a.go", "b.go"}, testRequest())

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Contains(t, report, "Erro ao analisar o código do PR")
	assert.Contains(t, report, "- a.go")
	assert.Contains(t, report, "- b.go")
}

func TestAnalyzeFilesCapsFileCount(t *testing.T) {
	files := map[string]string{}
	var names []string
	for i := 0; i < 25; i++ {
		name := fmt.Sprintf("file%02d.go", i)
		files[name] = "package p"
		names = append(names, name)
	}
	root := writeFiles(t, files)

	gw := &fakeGateway{}
	engine := NewEngine(gw, nopLogger{}, 20)

	_, count, err := engine.AnalyzeFiles(context.Background(), root, names, testRequest())

	require.NoError(t, err)
	assert.Equal(t, 20, count)
	assert.Len(t, gw.calls, 20)
}

func TestAnalyzeFilesEmptySet(t *testing.T) {
	engine := NewEngine(&fakeGateway{}, nopLogger{}, 0)

	report, count, err := engine.AnalyzeFiles(context.Background(), t.TempDir(), nil, testRequest())

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Contains(t, report, "Nenhuma modificação encontrada para análise.")
	assert.Contains(t, report, "token de acesso")
}

func TestAnalyzeFilesFallsBackToAllWhenNoCodeFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"config.yaml": "key: value",
	})

	gw := &fakeGateway{}
	engine := NewEngine(gw, nopLogger{}, 0)

	report, count, err := engine.AnalyzeFiles(context.Background(), root,
		[]string{"config.yaml"}, testRequest())

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, report, "## Arquivo: config.yaml")
}

func TestAnalyzeProjectEmptySet(t *testing.T) {
	engine := NewEngine(&fakeGateway{}, nopLogger{}, 0)

	report, count, err := engine.AnalyzeProject(context.Background(), t.TempDir(), nil, testRequest())

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, "Nenhum arquivo de código fonte encontrado para análise.", report)
}

func TestAnalyzeSnippet(t *testing.T) {
	gw := &fakeGateway{}
	engine := NewEngine(gw, nopLogger{}, 0)

	report, count, err := engine.AnalyzeSnippet(context.Background(), "func main() {}", testRequest())

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "analysis output", report)
}

func TestAnalyzeForwardsLanguagePreference(t *testing.T) {
	root := writeFiles(t, map[string]string{"main.py": "print(1)"})

	gw := &fakeGateway{}
	engine := NewEngine(gw, nopLogger{}, 0)
	req := testRequest()
	req.Language = "python"

	_, _, err := engine.AnalyzeFiles(context.Background(), root, []string{"main.py"}, req)

	require.NoError(t, err)
	require.Len(t, gw.calls, 1)
	assert.Contains(t, gw.calls[0], "O código está escrito em python.")

	gw.calls = nil
	_, _, err = engine.AnalyzeSnippet(context.Background(), "print(1)", req)
	require.NoError(t, err)
	require.Len(t, gw.calls, 1)
	assert.Contains(t, gw.calls[0], "O código está escrito em python.")
}

func TestAnalyzeSnippetError(t *testing.T) {
	gw := &fakeGateway{failAll: true}
	engine := NewEngine(gw, nopLogger{}, 0)

	_, count, err := engine.AnalyzeSnippet(context.Background(), "func main() {}", testRequest())

	require.Error(t, err)
	assert.Equal(t, 0, count)
}
