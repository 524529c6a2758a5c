package analyzer

import (
	"strings"

	"github.com/src-d/enry/v2"
)

// SupportedLanguages are the tags the service accepts. Anything else is
// analyzed through the fallback heuristics with the tag passed through.
var SupportedLanguages = []string{
	"python", "javascript", "typescript", "java", "cpp", "csharp",
	"go", "rust", "php", "ruby", "swift", "kotlin", "scala", "r",
	"sql", "html", "css",
}

var languageAliases = map[string]string{
	"py":      "python",
	"python3": "python",
	"js":      "javascript",
	"node":    "javascript",
	"ts":      "typescript",
	"golang":  "go",
	"c++":     "cpp",
	"c#":      "csharp",
	"cs":      "csharp",
	"rb":      "ruby",
}

// Normalize lowercases a language tag and resolves common aliases.
// An empty tag normalizes to "plaintext".
func Normalize(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" {
		return "plaintext"
	}
	if canonical, ok := languageAliases[t]; ok {
		return canonical
	}
	return t
}

// Detect identifies the language of a snippet from its filename and content.
func Detect(filename string, content []byte) string {
	lang := enry.GetLanguage(filename, content)
	if lang == "" {
		return "plaintext"
	}
	return Normalize(lang)
}

// capability tags what analysis strategies a language supports. A nil
// grammar, rule set, or check set selects the corresponding fallback path.
type capability struct {
	grammar  *grammar
	security []securityRule
	style    []styleCheck
}

var capabilities = map[string]capability{
	"python": {
		grammar:  pythonGrammar,
		security: pythonSecurityRules,
		style:    pythonStyleChecks,
	},
	"javascript": {
		grammar:  javascriptGrammar,
		security: javascriptSecurityRules,
		style:    javascriptStyleChecks,
	},
	// TypeScript shares the JavaScript rule tables but has no grammar
	// wired; complexity goes through the keyword fallback.
	"typescript": {
		security: javascriptSecurityRules,
		style:    javascriptStyleChecks,
	},
	"go": {
		grammar: goGrammar,
	},
}

func capabilityFor(lang string) capability {
	return capabilities[lang]
}
