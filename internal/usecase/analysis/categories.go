package analysis

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const promptMarker = "analyze this code for:"

// prefixMappings maps terms found after the "analyze this code for:" marker
// to canonical category names.
var prefixMappings = []struct {
	term     string
	category string
}{
	{"code quality", "code quality"},
	{"quality", "code quality"},
	{"security issues", "security issues"},
	{"security", "security issues"},
	{"performance optimizations", "performance optimizations"},
	{"performance", "performance optimizations"},
	{"bugs", "bugs and logical errors"},
	{"logical errors", "bugs and logical errors"},
	{"code smells", "code smells"},
	{"vulnerabilities", "security vulnerabilities"},
	{"owasp principles", "OWASP principles"},
	{"owasp", "OWASP principles"},
	{"solid principles", "SOLID principles"},
	{"solid", "SOLID principles"},
	{"componentization", "componentization"},
	{"componentizacao", "componentization"},
	{"componentização", "componentization"},
	{"optimization", "optimization"},
	{"otimizacao", "optimization"},
	{"otimização", "optimization"},
	{"big o", "algorithmic complexity"},
	{"algorithmic complexity", "algorithmic complexity"},
	{"duplication", "duplication"},
	{"duplicidade", "duplication"},
	{"duplicação", "duplication"},
}

// fallbackMappings is scanned against the whole prompt when the marker is
// absent. The keyword set is bilingual because customer prompts arrive in
// both English and Portuguese.
var fallbackMappings = []struct {
	term     string
	category string
}{
	{"quality", "code quality"},
	{"qualidade", "code quality"},
	{"security", "security issues"},
	{"seguranca", "security issues"},
	{"performance", "performance optimizations"},
	{"desempenho", "performance optimizations"},
	{"bugs", "bugs and logical errors"},
	{"erros", "bugs and logical errors"},
	{"code smell", "code smells"},
	{"vulnerabilit", "security vulnerabilities"},
	{"owasp", "OWASP principles"},
	{"solid", "SOLID principles"},
	{"componentizacao", "componentization"},
	{"componentização", "componentization"},
	{"otimizacao", "optimization"},
	{"otimização", "optimization"},
	{"big o", "algorithmic complexity"},
	{"complexidade", "algorithmic complexity"},
	{"duplicidade", "duplication"},
	{"duplicação", "duplication"},
}

// ParseCategories extracts analysis categories from a user prompt.
// When the prompt contains "analyze this code for:", only the clause after
// the marker (up to the first period) is scanned; otherwise the whole prompt
// is matched against a broader bilingual keyword set. Results are
// deduplicated preserving detection order.
func ParseCategories(prompt string) []string {
	lower := strings.ToLower(prompt)

	var haystack string
	mappings := fallbackMappings
	if idx := strings.Index(lower, promptMarker); idx >= 0 {
		haystack = lower[idx+len(promptMarker):]
		if dot := strings.Index(haystack, "."); dot >= 0 {
			haystack = haystack[:dot]
		}
		mappings = prefixMappings
	} else {
		haystack = lower
	}

	seen := make(map[string]bool)
	var categories []string
	for _, m := range mappings {
		if strings.Contains(haystack, m.term) && !seen[m.category] {
			seen[m.category] = true
			categories = append(categories, m.category)
		}
	}
	return categories
}

// sectionTemplates maps canonical categories to the fixed report sections
// the product exposes to users.
var sectionTemplates = map[string]string{
	"SOLID principles":          "Princípios SOLID:\n  [Avalie se o código segue os princípios SOLID (Single Responsibility, Open-Closed, Liskov Substitution, Interface Segregation, Dependency Inversion) e sugira melhorias.]",
	"code quality":              "Código Limpo:\n  [Avalie a legibilidade, simplicidade e organização do código. Sugira melhorias para tornar o código mais limpo e fácil de manter.]",
	"code smells":               "Code Smells:\n  [Identifique code smells (indicadores de problemas potenciais no código) e sugira refatorações para melhorar a qualidade do código.]",
	"bugs and logical errors":   "Code Smells:\n  [Identifique code smells (indicadores de problemas potenciais no código) e sugira refatorações para melhorar a qualidade do código.]",
	"security issues":           "Vulnerabilidades (OWASP):\n  [Identifique vulnerabilidades de segurança relacionadas aos princípios do OWASP (Open Web Application Security Project) e sugira correções.]",
	"security vulnerabilities":  "Vulnerabilidades (OWASP):\n  [Identifique vulnerabilidades de segurança relacionadas aos princípios do OWASP (Open Web Application Security Project) e sugira correções.]",
	"OWASP principles":          "Vulnerabilidades (OWASP):\n  [Identifique vulnerabilidades de segurança relacionadas aos princípios do OWASP (Open Web Application Security Project) e sugira correções.]",
	"componentization":          "Componentização:\n  [Avalie a estrutura de componentes do código, a separação de responsabilidades e a reutilização. Sugira melhorias na organização dos componentes.]",
	"performance optimizations": "Otimização (BIG O):\n  [Analise a complexidade algorítmica (Big O) do código e sugira otimizações para melhorar a eficiência e o desempenho.]",
	"optimization":              "Otimização (BIG O):\n  [Analise a complexidade algorítmica (Big O) do código e sugira otimizações para melhorar a eficiência e o desempenho.]",
	"algorithmic complexity":    "Otimização (BIG O):\n  [Analise a complexidade algorítmica (Big O) do código e sugira otimizações para melhorar a eficiência e o desempenho.]",
	"duplication":               "Duplicação:\n  [Identifique código duplicado ou repetitivo e sugira refatorações para melhorar a reutilização e manutenibilidade.]",
	"language best practices":   "Boas práticas da Linguagem:\n  [Avalie se o código segue as boas práticas e convenções da linguagem de programação utilizada. Sugira melhorias específicas da linguagem.]",
	"framework best practices":  "Boas práticas do Framework:\n  [Avalie se o código segue as boas práticas e padrões recomendados do framework utilizado. Sugira melhorias específicas do framework.]",
}

const generalSection = "Considerações gerais:\n  [Faça recomendações gerais para melhorar o código, como modularização, legibilidade, uso de boas práticas, etc.]"

var titleCaser = cases.Title(language.Und)

// SectionFor returns the report template section for a category. Unmapped
// categories get a generic section with a title-cased heading.
func SectionFor(category string) string {
	if section, ok := sectionTemplates[category]; ok {
		return section
	}
	title := titleCaser.String(strings.ReplaceAll(category, "_", " "))
	return title + ":\n  [Analise o código em relação a " + category + " e forneça sugestões de melhoria.]"
}

// TemplateSections renders the ordered template block for the given
// categories, always ending with the general considerations section.
func TemplateSections(categories []string) []string {
	sections := make([]string, 0, len(categories)+1)
	seen := make(map[string]bool)
	for _, c := range categories {
		section := SectionFor(c)
		if seen[section] {
			continue
		}
		seen[section] = true
		sections = append(sections, section)
	}
	sections = append(sections, generalSection)
	return sections
}
