package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// yamlIndentUnit is the assumed indentation width of one nesting level.
const yamlIndentUnit = 2

var (
	yamlKeyPattern   = regexp.MustCompile(`^( *)([A-Za-z0-9_][\w.-]*|"[^"]+"|'[^']+'):(?: (.*))?$`)
	yamlIntPattern   = regexp.MustCompile(`^[-+]?\d+$`)
	yamlFloatPattern = regexp.MustCompile(`^[-+]?(?:\d+\.\d*|\.\d+)(?:[eE][-+]?\d+)?$`)
)

// YAMLParser reads "key: value" lines. Scope is derived from indentation
// only; multi-line scalars, anchors, and flow collections get no special
// handling.
type YAMLParser struct{}

// NewYAMLParser creates a YAML parser.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

func (p *YAMLParser) Language() Language { return LanguageYAML }

func (p *YAMLParser) FileExtensions() []string { return []string{".yaml", ".yml"} }

func (p *YAMLParser) ParseVariables(content, filePath string) []VariableInfo {
	vars := make([]VariableInfo, 0)

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "- ") {
			continue
		}

		m := yamlKeyPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		indent := len(m[1])
		value := strings.TrimSpace(m[3])
		vars = append(vars, VariableInfo{
			Name:            strings.Trim(m[2], `"'`),
			Type:            inferYAMLType(value),
			DeclarationType: "key",
			Line:            i + 1,
			Character:       indent,
			FilePath:        filePath,
			Scope:           fmt.Sprintf("level-%d", indent/yamlIndentUnit),
			Value:           value,
			References:      []ReferenceInfo{},
		})
	}
	return vars
}

func (p *YAMLParser) ParseImports(string) []ImportInfo { return []ImportInfo{} }

func (p *YAMLParser) GetVariableReferences(content, name string) []ReferenceInfo {
	return FindReferences(content, name, 0)
}

func (p *YAMLParser) GetSupportedRefactorings() []RefactoringType {
	return []RefactoringType{RefactoringRename}
}

func inferYAMLType(value string) string {
	n := len(value)
	switch {
	case n == 0:
		return "null"
	case value == "true" || value == "false":
		return "boolean"
	case yamlIntPattern.MatchString(value):
		return "number"
	case yamlFloatPattern.MatchString(value):
		return "float"
	case value[0] == '[' && value[n-1] == ']':
		return "array"
	case value[0] == '{' && value[n-1] == '}':
		return "object"
	default:
		return "string"
	}
}
