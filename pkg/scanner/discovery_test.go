package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/varscan/pkg/util"
)

func supportedExt(path string) bool {
	switch filepath.Ext(path) {
	case ".js", ".py", ".json", ".yaml", ".vue":
		return true
	}
	return false
}

func TestDiscoverFiles_SkipsDirsAndUnsupported(t *testing.T) {
	root := newWorkspace(t, map[string]string{
		"src/app.js":                 "const a = 1;",
		"src/lib/util.py":            "b = 2",
		"README.md":                  "# readme",
		"config.yaml":                "key: value",
		"node_modules/pkg/index.js":  "const c = 3;",
		".git/hooks/post.py":         "d = 4",
		"dist/bundle.js":             "var e = 5;",
		"packages/build/out.json":    `{"f": 1}`,
		"packages/builder/keep.json": `{"g": 1}`,
	})

	files, err := DiscoverFiles(root, DefaultOptions(), supportedExt, util.NopLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "config.yaml"),
		filepath.Join(root, "packages/builder/keep.json"),
		filepath.Join(root, "src/app.js"),
		filepath.Join(root, "src/lib/util.py"),
	}, files)
}

func TestDiscoverFiles_ExcludePatterns(t *testing.T) {
	root := newWorkspace(t, map[string]string{
		"src/app.js":          "const a = 1;",
		"src/app.test.js":     "const a = 1;",
		"fixtures/deep/x.py":  "x = 1",
		"fixtures/shallow.py": "y = 1",
	})

	opts := DefaultOptions()
	opts.Exclude = []string{"**/*.test.js", "fixtures"}

	files, err := DiscoverFiles(root, opts, supportedExt, util.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "src/app.js")}, files)
}

func TestDiscoverFiles_AbsoluteAndSorted(t *testing.T) {
	root := newWorkspace(t, map[string]string{
		"b.js": "", "a.js": "", "c/d.js": "",
	})

	// A relative root still yields absolute paths.
	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, root)
	require.NoError(t, err)

	files, err := DiscoverFiles(rel, DefaultOptions(), nil, util.NopLogger())
	require.NoError(t, err)
	require.Len(t, files, 3)
	for i, f := range files {
		assert.True(t, filepath.IsAbs(f), "expected absolute path, got %s", f)
		if i > 0 {
			assert.LessOrEqual(t, files[i-1], f, "files should be sorted")
		}
	}
}

func TestDiscoverFiles_EmptyDirectory(t *testing.T) {
	files, err := DiscoverFiles(t.TempDir(), DefaultOptions(), supportedExt, util.NopLogger())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverFiles_MissingRoot(t *testing.T) {
	_, err := DiscoverFiles(filepath.Join(t.TempDir(), "nope"), DefaultOptions(), supportedExt, util.NopLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiscoverFiles_InvalidGlob(t *testing.T) {
	opts := DefaultOptions()
	opts.Exclude = []string{"[invalid"}

	_, err := DiscoverFiles(t.TempDir(), opts, supportedExt, util.NopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")
}

// --- helpers ---

func newWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		writeFile(t, root, name, content)
	}
	return root
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func hasSuffix(paths []string, suffix string) bool {
	for _, p := range paths {
		if strings.HasSuffix(filepath.ToSlash(p), suffix) {
			return true
		}
	}
	return false
}
