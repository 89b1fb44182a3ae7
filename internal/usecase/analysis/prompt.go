package analysis

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the per-file analysis prompt. The closing template
// pins the response format so downstream report assembly stays stable across
// providers.
func BuildPrompt(path, content, language, userPrompt string) string {
	categories := ParseCategories(userPrompt)
	sections := TemplateSections(categories)

	var b strings.Builder
	b.WriteString("Você é um expert em análise de código. Analise o seguinte código e forneça feedback seguindo exatamente o formato abaixo.\n\n")
	fmt.Fprintf(&b, "- Codigo: %s\n%s\n\n", path, content)
	if language != "" {
		fmt.Fprintf(&b, "O código está escrito em %s.\n\n", language)
	}
	if userPrompt != "" {
		b.WriteString(userPrompt)
		b.WriteString("\n\n")
	}
	b.WriteString("Formate sua resposta seguindo EXATAMENTE este template:\n\n")
	b.WriteString(strings.Join(sections, "\n\n"))
	b.WriteString("\n")
	return b.String()
}

// BuildSnippetPrompt assembles the prompt for a standalone code snippet.
func BuildSnippetPrompt(code, language, userPrompt string) string {
	return BuildPrompt("trecho", code, language, userPrompt)
}
