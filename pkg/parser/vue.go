package parser

import (
	"regexp"
	"strings"
)

var (
	vueScriptPattern   = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)
	vueTemplatePattern = regexp.MustCompile(`(?s)<template[^>]*>(.*)</template>`)

	vueDirectives = []struct {
		declType string
		pattern  *regexp.Regexp
	}{
		{"v-for", regexp.MustCompile(`v-for="\s*\(?\s*([A-Za-z_$][\w$]*)`)},
		{"v-model", regexp.MustCompile(`v-model(?:\.\w+)*="\s*([A-Za-z_$][\w$]*)`)},
		{"interpolation", regexp.MustCompile(`\{\{\s*([A-Za-z_$][\w$]*)`)},
		{"binding", regexp.MustCompile(`(?:^|\s)(?:v-bind)?:[\w.-]+="\s*([A-Za-z_$][\w$]*)`)},
	}
)

// VueParser handles single-file components. The <script> block is
// delegated to the JavaScript parser; the <template> block is scanned for
// directive and interpolation identifiers.
type VueParser struct {
	script *JavaScriptParser
}

// NewVueParser creates a Vue parser that delegates script content to js.
func NewVueParser(js *JavaScriptParser) *VueParser {
	if js == nil {
		js = NewJavaScriptParser()
	}
	return &VueParser{script: js}
}

func (p *VueParser) Language() Language { return LanguageVue }

func (p *VueParser) FileExtensions() []string { return []string{".vue"} }

// vueSection is the inner text of a block and the 0-based line it starts on.
type vueSection struct {
	text       string
	lineOffset int
}

func (p *VueParser) ParseVariables(content, filePath string) []VariableInfo {
	vars := make([]VariableInfo, 0)

	if script, ok := section(vueScriptPattern, content); ok {
		for _, v := range p.script.ScanDocument(NewStringDocument(script.text, filePath)) {
			v.Line += script.lineOffset
			v.References = shiftReferences(v.References, script.lineOffset)
			vars = append(vars, v)
		}
	}

	if tmpl, ok := section(vueTemplatePattern, content); ok {
		for i, line := range strings.Split(tmpl.text, "\n") {
			for _, d := range vueDirectives {
				for _, m := range d.pattern.FindAllStringSubmatchIndex(line, -1) {
					vars = append(vars, VariableInfo{
						Name:            line[m[2]:m[3]],
						Type:            "any",
						DeclarationType: d.declType,
						Line:            tmpl.lineOffset + i + 1,
						Character:       m[2],
						FilePath:        filePath,
						Scope:           "template",
						References:      []ReferenceInfo{},
					})
				}
			}
		}
	}
	return vars
}

func (p *VueParser) ParseImports(content string) []ImportInfo {
	script, ok := section(vueScriptPattern, content)
	if !ok {
		return []ImportInfo{}
	}

	imports := p.script.ParseImports(script.text)
	for i := range imports {
		imports[i].Line += script.lineOffset
	}
	return imports
}

// GetVariableReferences fans out over the script block and the template
// block independently.
func (p *VueParser) GetVariableReferences(content, name string) []ReferenceInfo {
	refs := make([]ReferenceInfo, 0)
	if script, ok := section(vueScriptPattern, content); ok {
		refs = append(refs, FindReferences(script.text, name, script.lineOffset)...)
	}
	if tmpl, ok := section(vueTemplatePattern, content); ok {
		refs = append(refs, FindReferences(tmpl.text, name, tmpl.lineOffset)...)
	}
	return refs
}

func (p *VueParser) GetSupportedRefactorings() []RefactoringType {
	return []RefactoringType{
		RefactoringRename,
		RefactoringExtract,
		RefactoringConvert,
	}
}

// section returns the first capture of pattern in content with the number
// of lines preceding it.
func section(pattern *regexp.Regexp, content string) (vueSection, bool) {
	m := pattern.FindStringSubmatchIndex(content)
	if m == nil {
		return vueSection{}, false
	}
	return vueSection{
		text:       content[m[2]:m[3]],
		lineOffset: strings.Count(content[:m[2]], "\n"),
	}, true
}

// shiftReferences copies refs with lines moved by offset. Parsers share one
// reference slice between same-name declarations, so it is never mutated.
func shiftReferences(refs []ReferenceInfo, offset int) []ReferenceInfo {
	shifted := make([]ReferenceInfo, len(refs))
	for i, r := range refs {
		r.Line += offset
		shifted[i] = r
	}
	return shifted
}
