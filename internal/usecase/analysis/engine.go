package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chatagent/code-analyzer/internal/domain"
)

// ModelGateway abstracts the LLM provider used for analysis.
type ModelGateway interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Logger is the structured logging port used by the engine.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// DefaultMaxFiles bounds how many files a single request may analyze.
const DefaultMaxFiles = 20

// codeExtensions is the source-file allow-list for pull request analysis.
var codeExtensions = []string{
	".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".go",
	".rb", ".c", ".cpp", ".h", ".hpp", ".cs", ".php",
	".swift", ".kt", ".rs", ".scala", ".sh", ".bash",
}

const (
	msgNoModifications = "Nenhuma modificação encontrada para análise.\n\nVerifique se o PR contém alterações e se o token de acesso tem permissões suficientes para acessar o repositório."
	msgNoSourceFiles   = "Nenhum arquivo de código fonte encontrado para análise."
	msgNoValidContent  = "Não foi encontrado conteúdo de código válido nos arquivos modificados no PR."
)

// Engine runs per-file LLM analysis and assembles the markdown report.
type Engine struct {
	gateway  ModelGateway
	logger   Logger
	maxFiles int
}

// NewEngine constructs an Engine. maxFiles <= 0 selects the default cap.
func NewEngine(gateway ModelGateway, logger Logger, maxFiles int) *Engine {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &Engine{
		gateway:  gateway,
		logger:   logger,
		maxFiles: maxFiles,
	}
}

// AnalyzeFiles analyzes the given modified files relative to root and returns
// the assembled report plus the number of files actually analyzed. Files that
// cannot be read or analyzed are logged and skipped; the report degrades
// instead of failing.
func (e *Engine) AnalyzeFiles(ctx context.Context, root string, files []string, req *domain.AnalysisRequest) (string, int, error) {
	if len(files) == 0 {
		return msgNoModifications, 0, nil
	}

	codeFiles := filterCodeFiles(files)
	if len(codeFiles) == 0 {
		e.logger.LogWarning(ctx, "no source files among modifications, analyzing all modified files", map[string]interface{}{
			"files": len(files),
		})
		codeFiles = files
	}

	return e.analyze(ctx, root, e.capFiles(ctx, codeFiles), req)
}

// AnalyzeProject analyzes an already-walked project file set rooted at root.
// The walker applies its own extension filter, so none is applied here.
func (e *Engine) AnalyzeProject(ctx context.Context, root string, files []string, req *domain.AnalysisRequest) (string, int, error) {
	if len(files) == 0 {
		return msgNoSourceFiles, 0, nil
	}
	return e.analyze(ctx, root, e.capFiles(ctx, files), req)
}

// AnalyzeSnippet analyzes a standalone code snippet with no clone involved.
func (e *Engine) AnalyzeSnippet(ctx context.Context, code string, req *domain.AnalysisRequest) (string, int, error) {
	out, err := e.gateway.Complete(ctx, BuildSnippetPrompt(code, req.Language, req.Prompt))
	if err != nil {
		return "", 0, fmt.Errorf("analyzing snippet: %w", err)
	}
	return out, 1, nil
}

func (e *Engine) capFiles(ctx context.Context, files []string) []string {
	if len(files) <= e.maxFiles {
		return files
	}
	e.logger.LogWarning(ctx, "too many files, truncating", map[string]interface{}{
		"found": len(files),
		"limit": e.maxFiles,
	})
	return files[:e.maxFiles]
}

func (e *Engine) analyze(ctx context.Context, root string, files []string, req *domain.AnalysisRequest) (string, int, error) {
	type fileEntry struct {
		path    string
		content string
	}

	var entries []fileEntry
	for _, f := range files {
		abs := filepath.Join(root, f)
		data, err := os.ReadFile(abs)
		if err != nil {
			e.logger.LogWarning(ctx, "skipping unreadable file", map[string]interface{}{
				"file":  f,
				"error": err.Error(),
			})
			continue
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			e.logger.LogInfo(ctx, "skipping empty file", map[string]interface{}{"file": f})
			continue
		}
		entries = append(entries, fileEntry{path: f, content: content})
	}

	if len(entries) == 0 {
		return msgNoValidContent, 0, nil
	}

	var report strings.Builder
	fmt.Fprintf(&report, "**Arquivos analisados (%d):**\n", len(entries))
	for i, entry := range entries {
		fmt.Fprintf(&report, "%d. `%s`\n", i+1, entry.path)
	}
	report.WriteString("\n")

	analyzed := 0
	var lastErr error
	for _, entry := range entries {
		e.logger.LogInfo(ctx, "analyzing file", map[string]interface{}{
			"file":     entry.path,
			"upstream": e.gateway.Name(),
		})

		out, err := e.gateway.Complete(ctx, BuildPrompt(entry.path, entry.content, req.Language, req.Prompt))
		if err != nil {
			lastErr = err
			e.logger.LogWarning(ctx, "file analysis failed", map[string]interface{}{
				"file":  entry.path,
				"error": err.Error(),
			})
			continue
		}

		fmt.Fprintf(&report, "\n## Arquivo: %s\n\n%s\n\n", entry.path, out)
		analyzed++
	}

	// Every call failed: return a fallback that still names the files so the
	// posted comment is useful.
	if analyzed == 0 {
		var fallback strings.Builder
		fmt.Fprintf(&fallback, "Erro ao analisar o código do PR. Detalhes: %v\n\n", lastErr)
		fmt.Fprintf(&fallback, "Foram encontrados %d arquivos modificados no PR:\n", len(entries))
		for _, entry := range entries {
			fmt.Fprintf(&fallback, "- %s\n", entry.path)
		}
		return fallback.String(), 0, nil
	}

	return report.String(), analyzed, nil
}

func filterCodeFiles(files []string) []string {
	var out []string
	for _, f := range files {
		for _, ext := range codeExtensions {
			if strings.HasSuffix(f, ext) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
