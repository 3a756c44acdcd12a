package parser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindReferences_WordBoundaries(t *testing.T) {
	refs := FindReferences("let a = 1;\nconsole.log(a, ab);", "a", 0)
	require.Len(t, refs, 2)

	assert.Equal(t, 1, refs[0].Line)
	assert.Equal(t, 4, refs[0].Character)
	assert.Contains(t, refs[0].Context, "let a = 1")

	assert.Equal(t, 2, refs[1].Line)
	assert.Equal(t, 12, refs[1].Character)
}

func TestFindReferences_LineOffset(t *testing.T) {
	refs := FindReferences("x\nx", "x", 3)
	require.Len(t, refs, 2)
	assert.Equal(t, 4, refs[0].Line)
	assert.Equal(t, 5, refs[1].Line)
}

func TestFindReferences_ContextRadius(t *testing.T) {
	content := strings.Repeat("a", 50) + " target " + strings.Repeat("b", 50)
	refs := FindReferences(content, "target", 0)
	require.Len(t, refs, 1)
	assert.Equal(t, strings.Repeat("a", 19)+" target "+strings.Repeat("b", 19), refs[0].Context)
}

func TestFindReferences_MultiByteContext(t *testing.T) {
	content := strings.Repeat("é", 15) + " x " + strings.Repeat("ü", 15)
	refs := FindReferences(content, "x", 0)
	require.Len(t, refs, 1)
	assert.True(t, utf8.ValidString(refs[0].Context))
	assert.Contains(t, refs[0].Context, " x ")
}

func TestFindReferences_RegexMetacharacters(t *testing.T) {
	refs := FindReferences("a.b = 1; axb = 2;", "a.b", 0)
	require.Len(t, refs, 1)
	assert.Equal(t, 0, refs[0].Character)
}

func TestFindReferences_Empty(t *testing.T) {
	for _, tc := range []struct{ content, name string }{
		{"", "x"},
		{"x = 1", ""},
		{"nothing here", "x"},
	} {
		refs := FindReferences(tc.content, tc.name, 0)
		assert.NotNil(t, refs)
		assert.Empty(t, refs)
	}
}
