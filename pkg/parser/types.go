package parser

// VariableInfo describes one textual declaration found in a file.
//
// The same name declared twice yields two entries; uniqueness is never
// enforced. Values are immutable once returned by a Parser.
type VariableInfo struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	DeclarationType string `json:"declaration_type"`

	// Line is 1-based. Formats without declaration positions (JSON) use 0.
	Line int `json:"line"`
	// Character is the 0-based byte column within Line.
	Character int `json:"character"`

	FilePath string `json:"file_path"`

	// Scope is a textual label: "global", an enclosing function name, a
	// dotted JSON path, a YAML "level-N", or "template".
	Scope string `json:"scope"`

	// Value is the raw right-hand side or a placeholder such as
	// "loop variable". Empty when nothing was captured.
	Value string `json:"value,omitempty"`

	References []ReferenceInfo `json:"references"`
}

// ImportInfo describes one import or require statement.
//
// Paths are recorded as written; no filesystem resolution is performed.
type ImportInfo struct {
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	Line      int        `json:"line"`
	Character int        `json:"character"`
	Type      ImportType `json:"type"`
}

// ImportType identifies the import statement form.
type ImportType string

const (
	ImportTypeImport  ImportType = "import"  // import x from "./x.js" / import a.b
	ImportTypeRequire ImportType = "require" // const x = require("./x.js")
	ImportTypeFrom    ImportType = "from"    // from mod import x
)

// ReferenceInfo is a single word-boundary occurrence of an identifier.
type ReferenceInfo struct {
	Line      int    `json:"line"`
	Character int    `json:"character"`
	Context   string `json:"context"`
}

// RefactoringType names a refactoring a parser advertises support for.
type RefactoringType string

const (
	RefactoringRename  RefactoringType = "rename"
	RefactoringExtract RefactoringType = "extract"
	RefactoringConvert RefactoringType = "convert"
	RefactoringInline  RefactoringType = "inline"
	RefactoringMove    RefactoringType = "move"
	RefactoringSplit   RefactoringType = "split"
)
