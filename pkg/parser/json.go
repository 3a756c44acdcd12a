package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/buger/jsonparser"
)

const jsonRootScope = "root"

// JSONParser turns every key of a JSON document, at every depth, into a
// property declaration. JSON has no declaration positions in this model, so
// Line and Character are always 0 and no references are computed.
type JSONParser struct {
	logger *slog.Logger
}

// NewJSONParser creates a JSON parser. Invalid documents are logged to logger.
func NewJSONParser(logger *slog.Logger) *JSONParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONParser{logger: logger}
}

func (p *JSONParser) Language() Language { return LanguageJSON }

func (p *JSONParser) FileExtensions() []string { return []string{".json"} }

// ParseVariables walks the document depth-first in key order. Scope is the
// dotted path of the parent ("root" at the top level); objects nested in
// arrays are reached through an indexed segment such as "items[0]".
// Invalid JSON is logged and yields an empty slice.
func (p *JSONParser) ParseVariables(content, filePath string) []VariableInfo {
	data := []byte(content)
	if !json.Valid(data) {
		p.logger.Warn("invalid JSON, skipping variable extraction", "file", filePath)
		return []VariableInfo{}
	}

	vars := make([]VariableInfo, 0)
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		p.logger.Warn("failed to read JSON document", "file", filePath, "error", err)
		return []VariableInfo{}
	}
	if err := p.walk(value, dataType, "", filePath, &vars); err != nil {
		p.logger.Warn("failed to traverse JSON document", "file", filePath, "error", err)
		return []VariableInfo{}
	}
	return vars
}

// walk visits value, which lives at path ("" for the document root).
func (p *JSONParser) walk(value []byte, dataType jsonparser.ValueType, path, filePath string, vars *[]VariableInfo) error {
	switch dataType {
	case jsonparser.Object:
		scope := path
		if scope == "" {
			scope = jsonRootScope
		}
		return jsonparser.ObjectEach(value, func(key, child []byte, childType jsonparser.ValueType, _ int) error {
			name := string(key)
			if unescaped, err := jsonparser.ParseString(key); err == nil {
				name = unescaped
			}

			v := VariableInfo{
				Name:            name,
				Type:            jsonTypeName(childType),
				DeclarationType: "property",
				FilePath:        filePath,
				Scope:           scope,
				References:      []ReferenceInfo{},
			}
			if childType != jsonparser.Object && childType != jsonparser.Array {
				v.Value = string(child)
			}
			*vars = append(*vars, v)

			return p.walk(child, childType, joinPath(path, name), filePath, vars)
		})

	case jsonparser.Array:
		index := 0
		var walkErr error
		_, err := jsonparser.ArrayEach(value, func(elem []byte, elemType jsonparser.ValueType, _ int, _ error) {
			if walkErr == nil {
				base := path
				if base == "" {
					base = jsonRootScope
				}
				walkErr = p.walk(elem, elemType, fmt.Sprintf("%s[%d]", base, index), filePath, vars)
			}
			index++
		})
		if err != nil {
			return err
		}
		return walkErr
	}
	return nil
}

func (p *JSONParser) ParseImports(string) []ImportInfo { return []ImportInfo{} }

// GetVariableReferences always returns an empty slice; JSON keys carry no references.
func (p *JSONParser) GetVariableReferences(string, string) []ReferenceInfo {
	return []ReferenceInfo{}
}

func (p *JSONParser) GetSupportedRefactorings() []RefactoringType {
	return []RefactoringType{RefactoringRename}
}

func jsonTypeName(t jsonparser.ValueType) string {
	switch t {
	case jsonparser.Object:
		return "object"
	case jsonparser.Array:
		return "array"
	case jsonparser.String:
		return "string"
	case jsonparser.Number:
		return "number"
	case jsonparser.Boolean:
		return "boolean"
	case jsonparser.Null:
		return "null"
	default:
		return "unknown"
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
