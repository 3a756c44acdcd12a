package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/varscan/pkg/monitor"
	"github.com/gnana997/varscan/pkg/parser"
	"github.com/gnana997/varscan/pkg/util"
)

const testDelay = 50 * time.Millisecond

type heapReader struct {
	heap atomic.Uint64
}

func (h *heapReader) read() monitor.MemoryStats {
	return monitor.MemoryStats{HeapUsed: h.heap.Load()}
}

func newTestService(t *testing.T) (*Service, *heapReader) {
	t.Helper()
	heap := &heapReader{}
	heap.heap.Store(10 << 20)

	cfg := DefaultConfig()
	cfg.DebounceDelay = testDelay
	cfg.FileCache = util.UnboundedFileCacheConfig()
	cfg.ReadMemory = heap.read
	cfg.Memory.FreeMemory = func() {}
	cfg.Logger = util.NopLogger()

	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc, heap
}

func writeFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// rewrite replaces content and pushes the mtime strictly forward.
func rewrite(t *testing.T, path, content string, bump time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	later := time.Now().Add(bump)
	require.NoError(t, os.Chtimes(path, later, later))
}

func names(vars []parser.VariableInfo) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name
	}
	return out
}

// collector records updates delivered to a listener.
type collector struct {
	mu      sync.Mutex
	updates []Update
}

func (c *collector) listen(u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
}

func (c *collector) snapshot() []Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Update(nil), c.updates...)
}

func TestService_ScanFileUsesCache(t *testing.T) {
	svc, _ := newTestService(t)
	path := writeFile(t, t.TempDir(), "app.js", "const a = 1;\n")

	vars, err := svc.ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(vars))

	_, err = svc.ScanFile(context.Background(), path)
	require.NoError(t, err)

	stats := svc.CacheStats()
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)
	assert.Equal(t, 1, stats.EntryCount)

	// A strictly newer mtime forces a rescan with the new content.
	rewrite(t, path, "let b = 'x';\nlet c = [];\n", 2*time.Second)
	vars, err = svc.ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names(vars))
	assert.Equal(t, int64(2), svc.CacheStats().MissCount)

	report := svc.PerformanceReport()
	assert.Equal(t, 3, report.Operations[OpScanFile].Count)
	assert.InDelta(t, 0.0, report.CacheEfficiency, 1e-9, "miss, hit, miss")
}

func TestService_ScanFileErrors(t *testing.T) {
	svc, _ := newTestService(t)
	root := t.TempDir()

	_, err := svc.ScanFile(context.Background(), writeFile(t, root, "notes.txt", "x"))
	assert.ErrorIs(t, err, parser.ErrUnsupportedFile)

	_, err = svc.ScanFile(context.Background(), filepath.Join(root, "missing.js"))
	assert.Error(t, err)

	assert.InDelta(t, 1.0, svc.PerformanceReport().ErrorRate, 1e-9)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.ScanFile(ctx, filepath.Join(root, "any.js"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_ScanWorkspace(t *testing.T) {
	svc, _ := newTestService(t)
	root := t.TempDir()
	app := writeFile(t, root, "src/app.js", "const a = 1;\n")
	conf := writeFile(t, root, "config.yaml", "name: demo\nport: 8080\n")
	writeFile(t, root, "node_modules/dep/index.js", "const hidden = 1;\n")
	writeFile(t, root, "README.md", "# docs\n")

	files, stats, err := svc.ScanWorkspace(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, []string{"a"}, names(files[app]))
	assert.Equal(t, []string{"name", "port"}, names(files[conf]))
	assert.Equal(t, 2, stats.FilesScanned)

	// Results went through the cache.
	assert.Equal(t, 2, svc.CacheStats().EntryCount)
	assert.Contains(t, svc.Monitor().Operations(), OpScanWorkspace)
}

func TestService_NotifyFileChangedDebounces(t *testing.T) {
	svc, _ := newTestService(t)
	path := writeFile(t, t.TempDir(), "main.py", "x = 1\n")

	c := &collector{}
	svc.OnUpdate(c.listen)

	_, err := svc.ScanFile(context.Background(), path)
	require.NoError(t, err)

	// Same-instant rewrite: the notification still forces a fresh scan.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("y = 2\n"), 0644))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

	for i := 0; i < 3; i++ {
		assert.True(t, svc.NotifyFileChanged(path))
	}
	assert.Equal(t, 1, svc.PendingUpdates())

	assert.Eventually(t, func() bool { return len(c.snapshot()) == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDelay)

	updates := c.snapshot()
	require.Len(t, updates, 1)
	assert.Equal(t, UpdateFile, updates[0].Kind)
	assert.Equal(t, path, updates[0].Path)
	assert.NoError(t, updates[0].Err)
	assert.Equal(t, []string{"y"}, names(updates[0].Variables))
}

func TestService_NotifyFileChangedUnsupported(t *testing.T) {
	svc, _ := newTestService(t)
	assert.False(t, svc.NotifyFileChanged("/tmp/readme.md"))
	assert.Equal(t, 0, svc.PendingUpdates())
}

func TestService_NotifyFileDeleted(t *testing.T) {
	svc, _ := newTestService(t)
	path := writeFile(t, t.TempDir(), "data.json", `{"k": 1}`)

	c := &collector{}
	svc.OnUpdate(c.listen)

	_, err := svc.ScanFile(context.Background(), path)
	require.NoError(t, err)
	require.True(t, svc.NotifyFileChanged(path))

	svc.NotifyFileDeleted(path)

	assert.Equal(t, 0, svc.PendingUpdates(), "deletion cancels the pending rescan")
	assert.Equal(t, 0, svc.Cache().Len())

	time.Sleep(3 * testDelay)
	updates := c.snapshot()
	require.Len(t, updates, 1)
	assert.Equal(t, UpdateDeleted, updates[0].Kind)
}

func TestService_NotifyWorkspaceChanged(t *testing.T) {
	svc, _ := newTestService(t)
	root := t.TempDir()
	writeFile(t, root, "a.js", "var a = true;\n")

	c := &collector{}
	svc.OnUpdate(c.listen)

	assert.True(t, svc.NotifyWorkspaceChanged(root))
	assert.True(t, svc.NotifyWorkspaceChanged(root))

	assert.Eventually(t, func() bool { return len(c.snapshot()) == 1 }, 2*time.Second, 5*time.Millisecond)

	u := c.snapshot()[0]
	assert.Equal(t, UpdateWorkspace, u.Kind)
	assert.NoError(t, u.Err)
	assert.Len(t, u.Files, 1)
	require.NotNil(t, u.Stats)
	assert.Equal(t, 1, u.Stats.FilesScanned)
}

func TestService_MemoryPressurePurgesCache(t *testing.T) {
	svc, heap := newTestService(t)
	root := t.TempDir()
	_, err := svc.ScanFile(context.Background(), writeFile(t, root, "a.js", "const a = 1;"))
	require.NoError(t, err)
	_, err = svc.ScanFile(context.Background(), writeFile(t, root, "b.js", "const b = 1;"))
	require.NoError(t, err)
	require.Equal(t, 2, svc.Cache().Len())

	assert.Equal(t, monitor.PressureLow, svc.MemoryPressure())

	heap.heap.Store(150 << 20)
	assert.Equal(t, monitor.PressureHigh, svc.MemoryPressure())
	svc.Memory().Check()

	assert.Equal(t, 0, svc.Cache().Len())
	assert.Equal(t, uint64(150<<20), svc.MemoryUsage().HeapUsed)

	// Content is reloaded on demand after the release.
	vars, err := svc.ScanFile(context.Background(), filepath.Join(root, "a.js"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(vars))
}

func TestService_ReferencesImportsRefactorings(t *testing.T) {
	svc, _ := newTestService(t)
	path := writeFile(t, t.TempDir(), "app.js",
		"import util from './util.js';\nconst total = util.sum();\nconsole.log(total);\n")

	refs, err := svc.FindReferences(path, "total")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, 2, refs[0].Line)
	assert.Equal(t, 3, refs[1].Line)

	imports, err := svc.Imports(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, "./util.js", imports[0].Path)

	refactorings, err := svc.Refactorings(path)
	require.NoError(t, err)
	assert.Contains(t, refactorings, parser.RefactoringRename)

	_, err = svc.Refactorings("x.txt")
	assert.ErrorIs(t, err, parser.ErrUnsupportedFile)
	_, err = svc.FindReferences("x.txt", "a")
	assert.ErrorIs(t, err, parser.ErrUnsupportedFile)
}

func TestService_ParseFile(t *testing.T) {
	svc, _ := newTestService(t)
	path := writeFile(t, t.TempDir(), "mod.py", "import os\nvalue = 3.5\n")

	result, err := svc.ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "python", result.LanguageName)
	assert.Equal(t, []string{"value"}, names(result.Variables))
	require.Len(t, result.Imports, 1)
	assert.Equal(t, "os", result.Imports[0].Name)

	// The parse refreshed the cache, so the next scan is a hit.
	_, err = svc.ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), svc.CacheStats().HitCount)
}

func TestService_CloseIsFinal(t *testing.T) {
	svc, _ := newTestService(t)
	path := writeFile(t, t.TempDir(), "a.js", "const a = 1;")

	svc.Start()
	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())

	assert.False(t, svc.NotifyFileChanged(path))
	assert.Equal(t, 0, svc.Cache().Len())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logger = util.NopLogger()
	cfg.Scan.Exclude = []string{"[bad"}
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Logger = util.NopLogger()
	cfg.Memory.CriticalBytes = cfg.Memory.WarningBytes
	_, err = New(cfg)
	assert.Error(t, err)
}
