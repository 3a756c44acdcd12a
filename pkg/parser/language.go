package parser

import (
	"path/filepath"
	"strings"
)

// Language represents a supported source language.
type Language int

const (
	// LanguageJavaScript covers JavaScript and TypeScript (.js, .jsx, .ts, .tsx, ...)
	LanguageJavaScript Language = iota
	// LanguagePython represents Python (.py, .pyw, .pyi)
	LanguagePython
	// LanguageVue represents Vue single-file components (.vue files)
	LanguageVue
	// LanguageJSON represents JSON documents
	LanguageJSON
	// LanguageYAML represents YAML documents
	LanguageYAML
	// LanguageUnknown represents an unsupported language
	LanguageUnknown
)

// String returns the string representation of the language.
func (l Language) String() string {
	switch l {
	case LanguageJavaScript:
		return "javascript"
	case LanguagePython:
		return "python"
	case LanguageVue:
		return "vue"
	case LanguageJSON:
		return "json"
	case LanguageYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// DetectLanguage detects the language from a file path.
// Returns LanguageUnknown if the file extension is not recognized.
func DetectLanguage(filePath string) Language {
	switch Extension(filePath) {
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts":
		return LanguageJavaScript
	case ".py", ".pyw", ".pyi":
		return LanguagePython
	case ".vue":
		return LanguageVue
	case ".json":
		return LanguageJSON
	case ".yaml", ".yml":
		return LanguageYAML
	default:
		return LanguageUnknown
	}
}

// Extension returns the lower-cased extension of filePath, including the dot.
func Extension(filePath string) string {
	return strings.ToLower(filepath.Ext(filePath))
}

// ParseLanguageString converts a language string to a Language type.
// Returns LanguageUnknown if the string is not recognized.
func ParseLanguageString(lang string) Language {
	switch strings.ToLower(lang) {
	case "javascript", "js", "typescript", "ts":
		return LanguageJavaScript
	case "python", "py":
		return LanguagePython
	case "vue":
		return LanguageVue
	case "json":
		return LanguageJSON
	case "yaml", "yml":
		return LanguageYAML
	default:
		return LanguageUnknown
	}
}

// SupportedLanguages returns a list of all supported languages.
func SupportedLanguages() []Language {
	return []Language{
		LanguageJavaScript,
		LanguagePython,
		LanguageVue,
		LanguageJSON,
		LanguageYAML,
	}
}
