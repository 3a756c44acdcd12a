// Package extractor runs the registered language parser over a file once and
// collects its variables, imports and supported refactorings.
package extractor

import "github.com/gnana997/varscan/pkg/parser"

// PerFileResult contains all extracted information from a single file.
type PerFileResult struct {
	FilePath     string                   `json:"filePath"`
	Language     parser.Language          `json:"-"`
	LanguageName string                   `json:"language"`
	Variables    []parser.VariableInfo    `json:"variables"`
	Imports      []parser.ImportInfo      `json:"imports"`
	Refactorings []parser.RefactoringType `json:"refactorings"`
}

// Summary aggregates variable counts over one or more files.
type Summary struct {
	Files         int            `json:"files"`
	Variables     int            `json:"variables"`
	ByType        map[string]int `json:"byType"`
	ByDeclaration map[string]int `json:"byDeclaration"`
	ByScope       map[string]int `json:"byScope"`
}
