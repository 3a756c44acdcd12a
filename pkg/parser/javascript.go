package parser

import (
	"regexp"
	"strings"
)

var (
	// The leading group stands in for a lookbehind: a declaration keyword
	// must start a line or follow whitespace or a statement/grouping
	// delimiter, which keeps "obj.const x" style text out.
	jsDeclPattern = regexp.MustCompile(`(^|[\s;{}(),])(const|let|var)\s+([A-Za-z_$][\w$]*)`)

	// Only paths ending in .js are matched.
	jsImportPattern  = regexp.MustCompile(`import\s+([\w$*{}\s,]+?)\s+from\s+['"]([^'"]+\.js)['"]`)
	jsRequirePattern = regexp.MustCompile(`(?:(?:const|let|var)\s+([\w${}\s,]+?)\s*=\s*)?require\(\s*['"]([^'"]+\.js)['"]\s*\)`)

	jsNumberPattern = regexp.MustCompile(`^[-+]?(?:0[xX][0-9a-fA-F_]+|0[bB][01_]+|0[oO][0-7_]+|(?:\d[\d_]*\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)n?$`)
	jsArrowPattern  = regexp.MustCompile(`^(?:async\s+)?[A-Za-z_$][\w$]*\s*=>`)
	jsFuncPattern   = regexp.MustCompile(`^(?:async\s+)?(?:function\b|\()`)
	jsNewKeyword    = regexp.MustCompile(`^new\b`)
	jsNewPattern    = regexp.MustCompile(`^new\s+([A-Za-z_$][\w$.]*)`)
)

// JavaScriptParser extracts const/let/var declarations from JavaScript and
// TypeScript family sources.
type JavaScriptParser struct{}

// NewJavaScriptParser creates a JavaScript/TypeScript parser.
func NewJavaScriptParser() *JavaScriptParser {
	return &JavaScriptParser{}
}

func (p *JavaScriptParser) Language() Language { return LanguageJavaScript }

func (p *JavaScriptParser) FileExtensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"}
}

// ParseVariables wraps content in a string-backed TextDocument and scans it.
func (p *JavaScriptParser) ParseVariables(content, filePath string) []VariableInfo {
	return p.ScanDocument(NewStringDocument(content, filePath))
}

// ScanDocument extracts declarations from any TextDocument, so editor
// buffers and plain strings go through the same scanner.
func (p *JavaScriptParser) ScanDocument(doc TextDocument) []VariableInfo {
	text := doc.Text()
	matches := jsDeclPattern.FindAllStringSubmatchIndex(text, -1)
	vars := make([]VariableInfo, 0, len(matches))
	refs := make(map[string][]ReferenceInfo)

	depth, scanned := 0, 0
	for _, m := range matches {
		keywordStart := m[4]
		nameStart, nameEnd := m[6], m[7]

		depth += braceDelta(text[scanned:keywordStart])
		scanned = keywordStart

		name := text[nameStart:nameEnd]
		value, assigned := assignedValue(text[nameEnd:])

		typ := "unknown"
		if assigned {
			typ = inferJSType(value)
		}

		scope := "global"
		if depth > 0 {
			scope = "local"
		}

		if _, ok := refs[name]; !ok {
			refs[name] = FindReferences(text, name, 0)
		}

		pos := doc.PositionAt(nameStart)
		vars = append(vars, VariableInfo{
			Name:            name,
			Type:            typ,
			DeclarationType: text[m[4]:m[5]],
			Line:            pos.Line,
			Character:       pos.Character,
			FilePath:        doc.FilePath(),
			Scope:           scope,
			Value:           value,
			References:      refs[name],
		})
	}
	return vars
}

func (p *JavaScriptParser) ParseImports(content string) []ImportInfo {
	doc := NewStringDocument(content, "")
	imports := make([]ImportInfo, 0)

	for _, m := range jsImportPattern.FindAllStringSubmatchIndex(content, -1) {
		pos := doc.PositionAt(m[0])
		imports = append(imports, ImportInfo{
			Name:      strings.Join(strings.Fields(content[m[2]:m[3]]), " "),
			Path:      content[m[4]:m[5]],
			Line:      pos.Line,
			Character: pos.Character,
			Type:      ImportTypeImport,
		})
	}

	for _, m := range jsRequirePattern.FindAllStringSubmatchIndex(content, -1) {
		path := content[m[4]:m[5]]
		name := path
		if m[2] >= 0 {
			name = strings.Join(strings.Fields(content[m[2]:m[3]]), " ")
		}
		pos := doc.PositionAt(m[0])
		imports = append(imports, ImportInfo{
			Name:      name,
			Path:      path,
			Line:      pos.Line,
			Character: pos.Character,
			Type:      ImportTypeRequire,
		})
	}
	return imports
}

func (p *JavaScriptParser) GetVariableReferences(content, name string) []ReferenceInfo {
	return FindReferences(content, name, 0)
}

func (p *JavaScriptParser) GetSupportedRefactorings() []RefactoringType {
	return []RefactoringType{
		RefactoringRename,
		RefactoringExtract,
		RefactoringConvert,
		RefactoringInline,
		RefactoringMove,
		RefactoringSplit,
	}
}

// assignedValue returns the right-hand side following a declared name, up
// to the next ';' or newline. An optional TypeScript annotation is skipped.
func assignedValue(rest string) (string, bool) {
	i := skipBlanks(rest, 0)
	if i < len(rest) && rest[i] == ':' {
		j := strings.IndexAny(rest[i:], "=;\n")
		if j < 0 {
			return "", false
		}
		i += j
	}
	if i >= len(rest) || rest[i] != '=' {
		return "", false
	}
	if i+1 < len(rest) && (rest[i+1] == '=' || rest[i+1] == '>') {
		return "", false
	}

	value := rest[i+1:]
	if end := strings.IndexAny(value, ";\n"); end >= 0 {
		value = value[:end]
	}
	return strings.TrimSpace(value), true
}

// inferJSType tags a right-hand side by its literal shape.
func inferJSType(value string) string {
	switch {
	case value == "":
		return "unknown"
	case value[0] == '"' || value[0] == '\'' || value[0] == '`':
		return "string"
	case value[0] == '[':
		return "array"
	case value[0] == '{':
		return "object"
	case value == "true" || value == "false":
		return "boolean"
	case value == "null":
		return "null"
	case value == "undefined":
		return "undefined"
	case jsNumberPattern.MatchString(value):
		return "number"
	case jsFuncPattern.MatchString(value), jsArrowPattern.MatchString(value):
		return "function"
	case jsNewKeyword.MatchString(value):
		if m := jsNewPattern.FindStringSubmatch(value); m != nil {
			return m[1]
		}
		return "instance"
	default:
		return "unknown"
	}
}

func braceDelta(s string) int {
	return strings.Count(s, "{") - strings.Count(s, "}")
}

func skipBlanks(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
