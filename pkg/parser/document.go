package parser

import "sort"

// Position is a location inside a text document.
// Line is 1-based, Character is the 0-based byte column.
type Position struct {
	Line      int
	Character int
}

// TextDocument is the minimal text-buffer capability the scanners need.
//
// Editor hosts can adapt live buffers to it; NewStringDocument synthesizes
// one over plain content so the same scanning logic runs without an editor.
type TextDocument interface {
	// FilePath returns the path the content belongs to.
	FilePath() string

	// Text returns the full document text.
	Text() string

	// PositionAt maps a byte offset to a position. Offsets outside the
	// document are clamped.
	PositionAt(offset int) Position

	// LineAt returns the text of the line containing offset, without the
	// trailing newline.
	LineAt(offset int) string
}

// stringDocument implements TextDocument over a string.
type stringDocument struct {
	path       string
	text       string
	lineStarts []int // byte offset of the first character of each line
}

// NewStringDocument returns a TextDocument backed by content.
func NewStringDocument(content, filePath string) TextDocument {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &stringDocument{path: filePath, text: content, lineStarts: starts}
}

func (d *stringDocument) FilePath() string { return d.path }

func (d *stringDocument) Text() string { return d.text }

func (d *stringDocument) PositionAt(offset int) Position {
	offset = d.clamp(offset)
	line := d.lineIndex(offset)
	return Position{Line: line + 1, Character: offset - d.lineStarts[line]}
}

func (d *stringDocument) LineAt(offset int) string {
	line := d.lineIndex(d.clamp(offset))
	start := d.lineStarts[line]
	end := len(d.text)
	if line+1 < len(d.lineStarts) {
		end = d.lineStarts[line+1] - 1
	}
	if end > start && d.text[end-1] == '\r' {
		end--
	}
	return d.text[start:end]
}

func (d *stringDocument) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(d.text) {
		return len(d.text)
	}
	return offset
}

// lineIndex returns the 0-based index of the line containing offset.
func (d *stringDocument) lineIndex(offset int) int {
	// First line start strictly greater than offset, minus one.
	return sort.SearchInts(d.lineStarts, offset+1) - 1
}
