package parser

import (
	"regexp"
	"unicode/utf8"
)

// contextRadius is the number of bytes captured on each side of a reference.
const contextRadius = 20

// FindReferences returns every word-boundary occurrence of name in content.
//
// The match is purely textual: an unrelated variable with the same name in
// another scope is indistinguishable, and the declaration site itself is
// included. Positions are shifted by lineOffset lines so embedded sections
// (a Vue <script> block) report file-relative lines.
func FindReferences(content, name string, lineOffset int) []ReferenceInfo {
	if name == "" || content == "" {
		return []ReferenceInfo{}
	}

	pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return []ReferenceInfo{}
	}

	doc := NewStringDocument(content, "")
	matches := pattern.FindAllStringIndex(content, -1)
	refs := make([]ReferenceInfo, 0, len(matches))
	for _, m := range matches {
		pos := doc.PositionAt(m[0])
		refs = append(refs, ReferenceInfo{
			Line:      pos.Line + lineOffset,
			Character: pos.Character,
			Context:   surrounding(content, m[0], m[1]),
		})
	}
	return refs
}

// surrounding returns content[start-20:end+20], widened to rune boundaries.
func surrounding(content string, start, end int) string {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	for from > 0 && !utf8.RuneStart(content[from]) {
		from--
	}

	to := end + contextRadius
	if to > len(content) {
		to = len(content)
	}
	for to < len(content) && !utf8.RuneStart(content[to]) {
		to++
	}
	return content[from:to]
}
