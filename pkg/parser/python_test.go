package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pythonSample = `count = 10
name = "bob"

def greet(person: str, times=2, *args):
    message = "hi"
    for i, item in enumerate(items):
        pass

class User:
    def __init__(self, email):
        self.email = email
`

func findVar(vars []VariableInfo, name, declType string) (VariableInfo, bool) {
	for _, v := range vars {
		if v.Name == name && v.DeclarationType == declType {
			return v, true
		}
	}
	return VariableInfo{}, false
}

func TestPythonParser_ParseVariables(t *testing.T) {
	vars := NewPythonParser().ParseVariables(pythonSample, "app.py")
	require.Len(t, vars, 10)

	testCases := []struct {
		name      string
		declType  string
		typ       string
		scope     string
		line      int
		character int
	}{
		{"count", "assignment", "int", "global", 1, 0},
		{"name", "assignment", "str", "global", 2, 0},
		{"person", "parameter", "str", "greet", 4, 10},
		{"times", "parameter", "Any", "greet", 4, 23},
		{"args", "parameter", "Any", "greet", 4, 33},
		{"message", "assignment", "str", "greet", 5, 4},
		{"i", "loop", "Any", "greet", 6, 8},
		{"item", "loop", "Any", "greet", 6, 11},
		{"email", "parameter", "Any", "__init__", 10, 23},
		{"email", "attribute", "Any", "instance", 11, 13},
	}

	for _, tc := range testCases {
		t.Run(tc.name+"/"+tc.declType, func(t *testing.T) {
			v, ok := findVar(vars, tc.name, tc.declType)
			require.True(t, ok)
			assert.Equal(t, tc.typ, v.Type)
			assert.Equal(t, tc.scope, v.Scope)
			assert.Equal(t, tc.line, v.Line)
			assert.Equal(t, tc.character, v.Character)
			assert.Equal(t, "app.py", v.FilePath)
		})
	}

	_, ok := findVar(vars, "self", "parameter")
	assert.False(t, ok, "self must not be reported as a parameter")
}

func TestPythonParser_GlobalAndNonlocal(t *testing.T) {
	source := `def outer():
    total = 0
    def inner():
        nonlocal total
        global config
`
	vars := NewPythonParser().ParseVariables(source, "scopes.py")

	v, ok := findVar(vars, "total", "nonlocal")
	require.True(t, ok)
	assert.Equal(t, "inner", v.Scope)

	v, ok = findVar(vars, "config", "global")
	require.True(t, ok)
	assert.Equal(t, "global", v.Scope)

	v, ok = findVar(vars, "total", "assignment")
	require.True(t, ok)
	assert.Equal(t, "outer", v.Scope)
	assert.Equal(t, "int", v.Type)
}

func TestInferPythonType(t *testing.T) {
	testCases := map[string]string{
		`"text"`:      "str",
		`'text'`:      "str",
		"42":          "int",
		"-7":          "int",
		"3.5":         "float",
		"True":        "bool",
		"False":       "bool",
		"[1, 2]":      "list",
		"{'a': 1}":    "dict",
		"(1, 2)":      "tuple",
		"call()":      "Any",
		"":            "Any",
		"12  # magic": "int",
	}
	for value, expected := range testCases {
		assert.Equal(t, expected, inferPythonType(value), "value %q", value)
	}
}

func TestPythonParser_SkipsComparisonsAndComments(t *testing.T) {
	source := "# x = 1\nif a == b:\n    pass\n"
	vars := NewPythonParser().ParseVariables(source, "c.py")
	assert.Empty(t, vars)
}

func TestPythonParser_ParseImports(t *testing.T) {
	source := `import os
import numpy as np, sys
from typing import List, Dict as D
from .models import (User)  # local
`
	imports := NewPythonParser().ParseImports(source)
	require.Len(t, imports, 6)

	assert.Equal(t, ImportInfo{Name: "os", Path: "os", Line: 1, Type: ImportTypeImport}, imports[0])
	assert.Equal(t, ImportInfo{Name: "np", Path: "numpy", Line: 2, Type: ImportTypeImport}, imports[1])
	assert.Equal(t, ImportInfo{Name: "sys", Path: "sys", Line: 2, Type: ImportTypeImport}, imports[2])
	assert.Equal(t, ImportInfo{Name: "List", Path: "typing", Line: 3, Type: ImportTypeFrom}, imports[3])
	assert.Equal(t, ImportInfo{Name: "D", Path: "typing", Line: 3, Type: ImportTypeFrom}, imports[4])
	assert.Equal(t, ImportInfo{Name: "User", Path: ".models", Line: 4, Type: ImportTypeFrom}, imports[5])
}

func TestPythonParser_References(t *testing.T) {
	refs := NewPythonParser().GetVariableReferences("x = 1\nprint(x)\nxs = [x]", "x")
	require.Len(t, refs, 3)
	assert.Equal(t, 1, refs[0].Line)
	assert.Equal(t, 2, refs[1].Line)
	assert.Equal(t, 6, refs[1].Character)
	assert.Equal(t, 3, refs[2].Line)
}
