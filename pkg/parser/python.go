package parser

import (
	"regexp"
	"strings"
)

var (
	pyAssignPattern   = regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s*=\s*([^=].*)$`)
	pyFunctionPattern = regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(([^)]*)\)`)
	pyClassPattern    = regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)`)
	pyAttrPattern     = regexp.MustCompile(`^\s*self\.([A-Za-z_]\w*)\s*=\s*([^=].*)$`)
	pyForPattern      = regexp.MustCompile(`^\s*(?:async\s+)?for\s+([A-Za-z_][\w\s,()]*?)\s+in\s+(.+):`)
	pyGlobalPattern   = regexp.MustCompile(`^\s*global\s+([\w\s,]+)$`)
	pyNonlocalPattern = regexp.MustCompile(`^\s*nonlocal\s+([\w\s,]+)$`)

	pyImportPattern     = regexp.MustCompile(`^\s*import\s+(.+)$`)
	pyFromImportPattern = regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\s+(.+)$`)

	pyIntPattern     = regexp.MustCompile(`^-?\d+$`)
	pyFloatPattern   = regexp.MustCompile(`^-?\d*\.\d+$|^-?\d+\.\d*$`)
	pyIdentPattern   = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	pyCommentPattern = regexp.MustCompile(`\s+#.*$`)
)

// PythonParser extracts Python declarations with six independent per-line
// patterns: assignments, function parameters, self attributes, for-loop
// targets, global and nonlocal statements.
type PythonParser struct{}

// NewPythonParser creates a Python parser.
func NewPythonParser() *PythonParser {
	return &PythonParser{}
}

func (p *PythonParser) Language() Language { return LanguagePython }

func (p *PythonParser) FileExtensions() []string { return []string{".py", ".pyw", ".pyi"} }

// pyBlock is an open def/class with the indentation of its header.
type pyBlock struct {
	name   string
	indent int
}

func (p *PythonParser) ParseVariables(content, filePath string) []VariableInfo {
	vars := make([]VariableInfo, 0)
	refs := make(map[string][]ReferenceInfo)
	var blocks []pyBlock

	add := func(name, typ, declType, value, scope string, line, char int) {
		if _, ok := refs[name]; !ok {
			refs[name] = FindReferences(content, name, 0)
		}
		vars = append(vars, VariableInfo{
			Name:            name,
			Type:            typ,
			DeclarationType: declType,
			Line:            line,
			Character:       char,
			FilePath:        filePath,
			Scope:           scope,
			Value:           value,
			References:      refs[name],
		})
	}

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		lineNo := i + 1
		indent := indentWidth(line)
		for len(blocks) > 0 && blocks[len(blocks)-1].indent >= indent {
			blocks = blocks[:len(blocks)-1]
		}
		scope := "global"
		if indent > 0 && len(blocks) > 0 {
			scope = blocks[len(blocks)-1].name
		}

		if m := pyAssignPattern.FindStringSubmatchIndex(line); m != nil {
			value := strings.TrimSpace(line[m[4]:m[5]])
			add(line[m[2]:m[3]], inferPythonType(value), "assignment", value, scope, lineNo, m[2])
		}

		if m := pyFunctionPattern.FindStringSubmatchIndex(line); m != nil {
			fn := line[m[2]:m[3]]
			for _, param := range splitParams(line[m[4]:m[5]], m[4]) {
				add(param.name, param.typ, "parameter", "function", fn, lineNo, param.offset)
			}
			blocks = append(blocks, pyBlock{name: fn, indent: indent})
		} else if m := pyClassPattern.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, pyBlock{name: m[1], indent: indent})
		}

		if m := pyAttrPattern.FindStringSubmatchIndex(line); m != nil {
			value := strings.TrimSpace(line[m[4]:m[5]])
			add(line[m[2]:m[3]], inferPythonType(value), "attribute", value, "instance", lineNo, m[2])
		}

		if m := pyForPattern.FindStringSubmatchIndex(line); m != nil {
			for _, target := range splitNames(line[m[2]:m[3]], m[2]) {
				add(target.name, "Any", "loop", "loop variable", scope, lineNo, target.offset)
			}
		}

		if m := pyGlobalPattern.FindStringSubmatchIndex(line); m != nil {
			for _, n := range splitNames(line[m[2]:m[3]], m[2]) {
				add(n.name, "Any", "global", "global", "global", lineNo, n.offset)
			}
		}

		if m := pyNonlocalPattern.FindStringSubmatchIndex(line); m != nil {
			for _, n := range splitNames(line[m[2]:m[3]], m[2]) {
				add(n.name, "Any", "nonlocal", "nonlocal", scope, lineNo, n.offset)
			}
		}
	}
	return vars
}

func (p *PythonParser) ParseImports(content string) []ImportInfo {
	imports := make([]ImportInfo, 0)

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		lineNo := i + 1
		char := indentWidth(line)

		if m := pyFromImportPattern.FindStringSubmatch(line); m != nil {
			module := m[1]
			list := strings.Trim(stripComment(m[2]), " ()\\")
			for _, item := range strings.Split(list, ",") {
				name, alias := splitAlias(item)
				if name == "" {
					continue
				}
				if alias != "" {
					name = alias
				}
				imports = append(imports, ImportInfo{Name: name, Path: module, Line: lineNo, Character: char, Type: ImportTypeFrom})
			}
			continue
		}

		if m := pyImportPattern.FindStringSubmatch(line); m != nil {
			for _, item := range strings.Split(stripComment(m[1]), ",") {
				module, alias := splitAlias(item)
				if module == "" {
					continue
				}
				name := module
				if alias != "" {
					name = alias
				}
				imports = append(imports, ImportInfo{Name: name, Path: module, Line: lineNo, Character: char, Type: ImportTypeImport})
			}
		}
	}
	return imports
}

func (p *PythonParser) GetVariableReferences(content, name string) []ReferenceInfo {
	return FindReferences(content, name, 0)
}

func (p *PythonParser) GetSupportedRefactorings() []RefactoringType {
	return []RefactoringType{
		RefactoringRename,
		RefactoringExtract,
		RefactoringInline,
		RefactoringMove,
	}
}

// inferPythonType checks literal shapes in a fixed order.
func inferPythonType(value string) string {
	value = strings.TrimSpace(stripComment(value))
	n := len(value)
	switch {
	case n == 0:
		return "Any"
	case n >= 2 && (value[0] == '"' || value[0] == '\'') && value[n-1] == value[0]:
		return "str"
	case pyIntPattern.MatchString(value):
		return "int"
	case pyFloatPattern.MatchString(value):
		return "float"
	case value == "True" || value == "False":
		return "bool"
	case value[0] == '[' && value[n-1] == ']':
		return "list"
	case value[0] == '{' && value[n-1] == '}':
		return "dict"
	case value[0] == '(' && value[n-1] == ')':
		return "tuple"
	default:
		return "Any"
	}
}

// namedOffset is a name and its byte column in the source line.
type namedOffset struct {
	name   string
	typ    string
	offset int
}

// splitParams splits a def parameter list. Annotations become the type,
// defaults are dropped, and self/cls plus bare '*' and '/' are skipped.
func splitParams(list string, base int) []namedOffset {
	var params []namedOffset
	pos := 0
	for _, raw := range strings.Split(list, ",") {
		start := pos
		pos += len(raw) + 1

		decl := raw
		if eq := strings.Index(decl, "="); eq >= 0 {
			decl = decl[:eq]
		}
		typ := "Any"
		if colon := strings.Index(decl, ":"); colon >= 0 {
			if ann := strings.TrimSpace(decl[colon+1:]); ann != "" {
				typ = ann
			}
			decl = decl[:colon]
		}

		lead := len(decl) - len(strings.TrimLeft(decl, " \t*"))
		name := strings.TrimSpace(strings.TrimLeft(decl, " \t*"))
		if !pyIdentPattern.MatchString(name) || name == "self" || name == "cls" {
			continue
		}
		params = append(params, namedOffset{name: name, typ: typ, offset: base + start + lead})
	}
	return params
}

// splitNames splits a comma separated identifier list, ignoring tuple parens.
func splitNames(list string, base int) []namedOffset {
	var names []namedOffset
	pos := 0
	for _, raw := range strings.Split(list, ",") {
		start := pos
		pos += len(raw) + 1

		lead := len(raw) - len(strings.TrimLeft(raw, " \t("))
		name := strings.Trim(raw, " \t()")
		if !pyIdentPattern.MatchString(name) {
			continue
		}
		names = append(names, namedOffset{name: name, offset: base + start + lead})
	}
	return names
}

// splitAlias splits "name as alias".
func splitAlias(item string) (string, string) {
	fields := strings.Fields(item)
	switch {
	case len(fields) == 3 && fields[1] == "as":
		return fields[0], fields[2]
	case len(fields) >= 1:
		return fields[0], ""
	default:
		return "", ""
	}
}

// stripComment drops a trailing "# ..." comment. A '#' directly after
// non-space text is kept so simple quoted values survive.
func stripComment(s string) string {
	if strings.HasPrefix(s, "#") {
		return ""
	}
	return pyCommentPattern.ReplaceAllString(s, "")
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
