package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/varscan/pkg/util"
)

// recordingTarget accepts .js files and records notifications.
type recordingTarget struct {
	mu      sync.Mutex
	changed []string
	deleted []string
}

func (r *recordingTarget) Supports(path string) bool {
	return strings.HasSuffix(path, ".js")
}

func (r *recordingTarget) NotifyFileChanged(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, path)
	return true
}

func (r *recordingTarget) NotifyFileDeleted(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, path)
}

func (r *recordingTarget) sawChange(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.changed {
		if p == path {
			return true
		}
	}
	return false
}

func (r *recordingTarget) sawDelete(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.deleted {
		if p == path {
			return true
		}
	}
	return false
}

func (r *recordingTarget) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(append([]string(nil), r.changed...), r.deleted...)
}

func startWatcher(t *testing.T, root string) (*FileWatcher, *recordingTarget) {
	t.Helper()
	target := &recordingTarget{}
	fw, err := NewFileWatcher(target, Options{
		SkipDirs: []string{"node_modules"},
		Ignore:   []string{"*.bak.js"},
	}, util.NopLogger())
	require.NoError(t, err)
	require.NoError(t, fw.Start(root))
	t.Cleanup(func() { fw.Stop() })
	return fw, target
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

func TestFileWatcher_ForwardsChangesAndDeletes(t *testing.T) {
	root := t.TempDir()
	fw, target := startWatcher(t, root)

	app := filepath.Join(root, "app.js")
	write(t, app, "const a = 1;")
	assert.Eventually(t, func() bool { return target.sawChange(app) }, waitFor, tick)

	require.NoError(t, os.Remove(app))
	assert.Eventually(t, func() bool { return target.sawDelete(app) }, waitFor, tick)

	stats := fw.Stats()
	assert.True(t, stats.Running)
	assert.GreaterOrEqual(t, stats.Changes, int64(1))
	assert.GreaterOrEqual(t, stats.Deletions, int64(1))
}

func TestFileWatcher_IgnoresUnsupportedSkippedAndGlobbed(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "dep"), 0755))
	_, target := startWatcher(t, root)

	write(t, filepath.Join(root, "notes.txt"), "x")
	write(t, filepath.Join(root, "old.bak.js"), "x")
	write(t, filepath.Join(root, "node_modules", "dep", "index.js"), "x")

	// A supported file written last acts as a barrier for the events above.
	marker := filepath.Join(root, "marker.js")
	write(t, marker, "x")
	require.Eventually(t, func() bool { return target.sawChange(marker) }, waitFor, tick)

	for _, p := range target.all() {
		assert.Equal(t, marker, p)
	}
}

func TestFileWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	_, target := startWatcher(t, root)

	sub := filepath.Join(root, "src", "lib")
	require.NoError(t, os.MkdirAll(sub, 0755))
	first := filepath.Join(sub, "first.js")
	write(t, first, "x")

	// The file is reported whether it raced the new watch or not.
	assert.Eventually(t, func() bool { return target.sawChange(first) }, waitFor, tick)

	// Files created later are seen through the new watch.
	assert.Eventually(t, func() bool {
		second := filepath.Join(sub, "second.js")
		write(t, second, "x")
		return target.sawChange(second)
	}, waitFor, 50*time.Millisecond)
}

func TestFileWatcher_Lifecycle(t *testing.T) {
	target := &recordingTarget{}

	_, err := NewFileWatcher(nil, Options{}, util.NopLogger())
	assert.Error(t, err)

	_, err = NewFileWatcher(target, Options{Ignore: []string{"[unclosed"}}, util.NopLogger())
	assert.Error(t, err)

	fw, err := NewFileWatcher(target, Options{}, util.NopLogger())
	require.NoError(t, err)

	assert.Error(t, fw.Start(filepath.Join(t.TempDir(), "missing")))

	file := filepath.Join(t.TempDir(), "a.js")
	write(t, file, "x")
	assert.Error(t, fw.Start(file), "a file is not a watch root")

	root := t.TempDir()
	require.NoError(t, fw.Start(root))
	assert.Error(t, fw.Start(root))

	require.NoError(t, fw.Stop())
	require.NoError(t, fw.Stop())
	assert.False(t, fw.Stats().Running)
	assert.Error(t, fw.Start(root))
}

func TestFileWatcher_StopWithoutStart(t *testing.T) {
	fw, err := NewFileWatcher(&recordingTarget{}, Options{}, util.NopLogger())
	require.NoError(t, err)
	assert.NoError(t, fw.Stop())
}
