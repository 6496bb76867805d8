package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danieljhkim/modlay/internal/catalog"
	"github.com/danieljhkim/modlay/internal/clock"
	"github.com/danieljhkim/modlay/internal/config"
	"github.com/danieljhkim/modlay/internal/engine"
	"github.com/danieljhkim/modlay/internal/fsops"
	"github.com/danieljhkim/modlay/internal/hash"
)

// testHarness wires a real engine against a temporary directory tree:
//
//	<tmp>/data  modlay data root (mods, archive, catalog.db, settings.yaml)
//	<tmp>/game  installation root
//	<tmp>/src   mod source directories
type testHarness struct {
	t       *testing.T
	paths   *config.Paths
	gameDir string
	srcDir  string
	clock   *clock.FakeClock
	store   *catalog.SQLiteStore
	eng     *engine.Engine
}

func setupHarness(t *testing.T) *testHarness {
	t.Helper()
	tmpDir := t.TempDir()

	h := &testHarness{
		t:       t,
		paths:   config.NewPaths(filepath.Join(tmpDir, "data")),
		gameDir: filepath.Join(tmpDir, "game"),
		srcDir:  filepath.Join(tmpDir, "src"),
		clock:   clock.NewSteppingClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), time.Second),
	}
	for _, dir := range []string{h.gameDir, h.srcDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	h.open()
	t.Cleanup(h.close)

	if err := config.NewSettingsStore(fsops.NewOsFS(), h.paths.Settings).SetInstallRoot(h.gameDir); err != nil {
		t.Fatalf("failed to set install root: %v", err)
	}
	return h
}

// open builds a fresh engine over the on-disk state, as a new process would.
func (h *testHarness) open() {
	h.t.Helper()
	fs := fsops.NewOsFS()
	if err := h.paths.EnsureDirectories(fs.Afero()); err != nil {
		h.t.Fatalf("failed to ensure directories: %v", err)
	}

	store, err := catalog.OpenSQLite(h.paths.Catalog)
	if err != nil {
		h.t.Fatalf("failed to open catalog: %v", err)
	}
	h.store = store

	settings := config.NewSettingsStore(fs, h.paths.Settings)
	h.eng = engine.New(store, fs, hash.NewSHA256Hasher(fs.Afero()), h.clock, settings, *h.paths)
}

func (h *testHarness) close() {
	if h.store != nil {
		_ = h.store.Close()
		h.store = nil
	}
}

// reopen simulates a process restart.
func (h *testHarness) reopen() {
	h.t.Helper()
	h.close()
	h.open()
}

// writeMod creates a mod source directory from a rel -> content map.
func (h *testHarness) writeMod(name string, files map[string]string) string {
	h.t.Helper()
	dir := filepath.Join(h.srcDir, name)
	for rel, content := range files {
		writeFile(h.t, filepath.Join(dir, rel), content)
	}
	return dir
}

func (h *testHarness) writeGame(files map[string]string) {
	h.t.Helper()
	for rel, content := range files {
		writeFile(h.t, filepath.Join(h.gameDir, rel), content)
	}
}

// gameFile returns the content of a game file and whether it exists.
func (h *testHarness) gameFile(rel string) (string, bool) {
	h.t.Helper()
	data, err := os.ReadFile(filepath.Join(h.gameDir, rel))
	if os.IsNotExist(err) {
		return "", false
	}
	if err != nil {
		h.t.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data), true
}

func (h *testHarness) expectGameFile(rel, want string) {
	h.t.Helper()
	got, ok := h.gameFile(rel)
	if !ok {
		h.t.Errorf("expected game file %s to exist", rel)
		return
	}
	if got != want {
		h.t.Errorf("game file %s = %q, want %q", rel, got, want)
	}
}

func (h *testHarness) expectNoGameFile(rel string) {
	h.t.Helper()
	if _, ok := h.gameFile(rel); ok {
		h.t.Errorf("expected game file %s to be absent", rel)
	}
}

func (h *testHarness) backedUpCount() int {
	h.t.Helper()
	set, err := h.store.BackedUpPaths()
	if err != nil {
		h.t.Fatalf("failed to read backed up paths: %v", err)
	}
	return len(set)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
