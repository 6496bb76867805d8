package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/modlay/internal/catalog"
	"github.com/danieljhkim/modlay/internal/clock"
	"github.com/danieljhkim/modlay/internal/config"
	"github.com/danieljhkim/modlay/internal/fsops"
	"github.com/danieljhkim/modlay/internal/hash"
)

const (
	testDataRoot = "/data"
	testGameRoot = "/game"
)

type testEnv struct {
	engine *Engine
	mem    afero.Fs
	fs     fsops.FS
	store  *catalog.SQLiteStore
	paths  *config.Paths
	clock  *clock.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mem := afero.NewMemMapFs()
	fs := fsops.NewAferoFS(mem)
	paths := config.NewPaths(testDataRoot)
	require.NoError(t, paths.EnsureDirectories(mem))
	require.NoError(t, mem.MkdirAll(testGameRoot, 0755))

	store, err := catalog.OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clk := clock.NewSteppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Minute)
	settings := config.NewSettingsStore(fs, paths.Settings)
	require.NoError(t, settings.SetInstallRoot(testGameRoot))

	eng := New(store, fs, hash.NewSHA256Hasher(mem), clk, settings, *paths)
	return &testEnv{engine: eng, mem: mem, fs: fs, store: store, paths: paths, clock: clk}
}

// writeFiles creates files under root from a rel -> content map.
func (env *testEnv) writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		require.NoError(t, env.fs.AtomicWrite(filepath.Join(root, rel), []byte(content), 0644))
	}
}

func (env *testEnv) read(t *testing.T, path string) string {
	t.Helper()
	data, err := env.fs.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func (env *testEnv) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := env.fs.Exists(path)
	require.NoError(t, err)
	return ok
}

func (env *testEnv) importDir(t *testing.T, dir string, files map[string]string) *catalog.Overlay {
	t.Helper()
	env.writeFiles(t, dir, files)
	res, err := env.engine.Import(context.Background(), &ImportRequest{SourceDir: dir})
	require.NoError(t, err)
	return res.Overlay
}

func (env *testEnv) backedUp(t *testing.T) []string {
	t.Helper()
	set, err := env.store.BackedUpPaths()
	require.NoError(t, err)
	return catalog.SortedPaths(set)
}

func game(rel string) string    { return filepath.Join(testGameRoot, rel) }
func archive(rel string) string { return filepath.Join(testDataRoot, config.ArchiveDirName, rel) }

// failingFS fails CopyFile for one destination.
type failingFS struct {
	fsops.FS
	failDst string
}

func (f *failingFS) CopyFile(src, dst string) error {
	if dst == f.failDst {
		return errors.New("disk full")
	}
	return f.FS.CopyFile(src, dst)
}

func TestImport_CopiesFilesAndRegisters(t *testing.T) {
	env := newTestEnv(t)

	overlay := env.importDir(t, "/src/hd-textures", map[string]string{
		"textures/rock.dds":  "rock",
		"textures/grass.dds": "grass",
		"config.ini":         "ini",
	})

	mods := filepath.Join(testDataRoot, config.ModsDirName, "hd-textures")
	assert.Equal(t, "hd-textures", overlay.Name)
	assert.False(t, overlay.Applied)
	assert.Equal(t, []string{
		filepath.Join(mods, "config.ini"),
		filepath.Join(mods, "textures/grass.dds"),
		filepath.Join(mods, "textures/rock.dds"),
	}, overlay.Files)
	assert.Equal(t, "rock", env.read(t, filepath.Join(mods, "textures/rock.dds")))

	stored, err := env.store.GetOverlay("hd-textures")
	require.NoError(t, err)
	assert.Equal(t, overlay.Files, stored.Files)
	assert.True(t, stored.CreatedAt.Equal(overlay.CreatedAt))
}

func TestImport_EmptyDirectoriesOnly(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.mem.MkdirAll("/src/empty/a/b", 0755))

	_, err := env.engine.Import(context.Background(), &ImportRequest{SourceDir: "/src/empty"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoFilesFound)

	exists, err := env.store.OverlayExists("empty")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.False(t, env.exists(t, filepath.Join(testDataRoot, config.ModsDirName, "empty")))
}

func TestImport_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.importDir(t, "/src/one/mod", map[string]string{"a.txt": "first"})

	env.writeFiles(t, "/src/two/mod", map[string]string{"a.txt": "second"})
	_, err := env.engine.Import(context.Background(), &ImportRequest{SourceDir: "/src/two/mod"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateOverlay)

	// Managed storage keeps the first import untouched.
	assert.Equal(t, "first", env.read(t, filepath.Join(testDataRoot, config.ModsDirName, "mod", "a.txt")))
}

func TestImport_SourceNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Import(context.Background(), &ImportRequest{SourceDir: "/src/missing"})
	assert.ErrorIs(t, err, ErrSourceNotFound)

	env.writeFiles(t, "/src", map[string]string{"file.txt": "x"})
	_, err = env.engine.Import(context.Background(), &ImportRequest{SourceDir: "/src/file.txt"})
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.writeFiles(t, "/src/mod", map[string]string{"a.txt": "a"})

	res, err := env.engine.Import(context.Background(), &ImportRequest{SourceDir: "/src/mod", DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Len(t, res.Overlay.Files, 1)

	exists, err := env.store.OverlayExists("mod")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.False(t, env.exists(t, res.Overlay.Files[0]))
}

func TestImport_CopyFailureCleansUp(t *testing.T) {
	env := newTestEnv(t)
	env.writeFiles(t, "/src/mod", map[string]string{"a.txt": "a", "b.txt": "b"})
	env.engine.fs = &failingFS{FS: env.fs, failDst: filepath.Join(testDataRoot, config.ModsDirName, "mod", "b.txt")}

	_, err := env.engine.Import(context.Background(), &ImportRequest{SourceDir: "/src/mod"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)

	var progress *ProgressError
	require.ErrorAs(t, err, &progress)
	assert.Equal(t, 1, progress.Processed)
	assert.Equal(t, 2, progress.Total)

	assert.False(t, env.exists(t, filepath.Join(testDataRoot, config.ModsDirName, "mod")))
	exists, err := env.store.OverlayExists("mod")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestApplyRetract_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.writeFiles(t, testGameRoot, map[string]string{"a": "orig-a"})
	env.importDir(t, "/src/m", map[string]string{"a": "mod-a", "b": "mod-b"})

	applied, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m"})
	require.NoError(t, err)
	assert.Equal(t, []string{game("a")}, applied.Archived)
	assert.Equal(t, []string{game("a"), game("b")}, applied.Applied)

	assert.Equal(t, "mod-a", env.read(t, game("a")))
	assert.Equal(t, "mod-b", env.read(t, game("b")))
	assert.Equal(t, "orig-a", env.read(t, archive("a")))
	assert.Equal(t, []string{game("a")}, env.backedUp(t))

	overlay, err := env.store.GetOverlay("m")
	require.NoError(t, err)
	assert.True(t, overlay.Applied)

	retracted, err := env.engine.Retract(ctx, &RetractRequest{Name: "m"})
	require.NoError(t, err)
	assert.Equal(t, []string{game("a")}, retracted.Restored)

	assert.Equal(t, "orig-a", env.read(t, game("a")))
	assert.False(t, env.exists(t, game("b")))
	assert.Empty(t, env.backedUp(t))

	overlay, err = env.store.GetOverlay("m")
	require.NoError(t, err)
	assert.False(t, overlay.Applied)
}

func TestApply_Errors(t *testing.T) {
	t.Run("install root unset", func(t *testing.T) {
		env := newTestEnv(t)
		env.importDir(t, "/src/m", map[string]string{"a": "a"})
		require.NoError(t, env.fs.Remove(env.paths.Settings))

		_, err := env.engine.Apply(context.Background(), &ApplyRequest{Name: "m"})
		assert.ErrorIs(t, err, ErrInstallRootUnset)
	})

	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.engine.Apply(context.Background(), &ApplyRequest{Name: "nope"})
		assert.ErrorIs(t, err, ErrOverlayNotFound)
	})

	t.Run("already applied", func(t *testing.T) {
		env := newTestEnv(t)
		env.importDir(t, "/src/m", map[string]string{"a": "a"})
		_, err := env.engine.Apply(context.Background(), &ApplyRequest{Name: "m"})
		require.NoError(t, err)

		_, err = env.engine.Apply(context.Background(), &ApplyRequest{Name: "m"})
		assert.ErrorIs(t, err, ErrAlreadyApplied)
	})

	t.Run("mapping", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.store.InsertOverlay(&catalog.Overlay{
			Name:      "bad",
			Files:     []string{"/elsewhere/a"},
			CreatedAt: time.Now(),
		}))

		_, err := env.engine.Apply(context.Background(), &ApplyRequest{Name: "bad"})
		assert.ErrorIs(t, err, ErrMapping)
	})
}

func TestApply_DryRun(t *testing.T) {
	env := newTestEnv(t)
	env.writeFiles(t, testGameRoot, map[string]string{"a": "orig"})
	env.importDir(t, "/src/m", map[string]string{"a": "mod", "b": "mod"})

	res, err := env.engine.Apply(context.Background(), &ApplyRequest{Name: "m", DryRun: true})
	require.NoError(t, err)
	assert.Len(t, res.Plan.Steps, 2)
	assert.Equal(t, 1, res.Plan.ArchiveCount())
	assert.Empty(t, res.Applied)

	assert.Equal(t, "orig", env.read(t, game("a")))
	assert.False(t, env.exists(t, game("b")))
	assert.Empty(t, env.backedUp(t))
}

func TestApply_FailureReportsProgress(t *testing.T) {
	env := newTestEnv(t)
	env.importDir(t, "/src/m", map[string]string{"a": "a", "b": "b", "c": "c"})
	env.engine.fs = &failingFS{FS: env.fs, failDst: game("b")}

	res, err := env.engine.Apply(context.Background(), &ApplyRequest{Name: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)

	var progress *ProgressError
	require.ErrorAs(t, err, &progress)
	assert.Equal(t, "apply", progress.Op)
	assert.Equal(t, 1, progress.Processed)
	assert.Equal(t, 3, progress.Total)
	assert.Equal(t, []string{game("a")}, res.Applied)

	overlay, err := env.store.GetOverlay("m")
	require.NoError(t, err)
	assert.False(t, overlay.Applied)
}

func TestApply_CanceledContext(t *testing.T) {
	env := newTestEnv(t)
	env.importDir(t, "/src/m", map[string]string{"a": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, env.exists(t, game("a")))
}

func TestRetract_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.writeFiles(t, testGameRoot, map[string]string{"a": "orig"})
	env.importDir(t, "/src/m", map[string]string{"a": "mod"})

	_, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m"})
	require.NoError(t, err)
	_, err = env.engine.Retract(ctx, &RetractRequest{Name: "m"})
	require.NoError(t, err)

	second, err := env.engine.Retract(ctx, &RetractRequest{Name: "m"})
	require.NoError(t, err)
	assert.Empty(t, second.Plan.Steps)
	assert.Empty(t, second.Removed)
	assert.Empty(t, second.Restored)

	assert.Equal(t, "orig", env.read(t, game("a")))
	assert.Empty(t, env.backedUp(t))
}

func TestRetract_ForceCleansUpInterruptedApply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.writeFiles(t, testGameRoot, map[string]string{"a": "orig"})
	env.importDir(t, "/src/m", map[string]string{"a": "mod-a", "b": "mod-b"})

	healthy := env.engine.fs
	env.engine.fs = &failingFS{FS: healthy, failDst: game("b")}
	_, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m"})
	require.Error(t, err)
	assert.Equal(t, "mod-a", env.read(t, game("a")))
	env.engine.fs = healthy

	res, err := env.engine.Retract(ctx, &RetractRequest{Name: "m"})
	require.NoError(t, err)
	assert.Empty(t, res.Removed)
	assert.Equal(t, "mod-a", env.read(t, game("a")))

	res, err = env.engine.Retract(ctx, &RetractRequest{Name: "m", Force: true})
	require.NoError(t, err)
	assert.Equal(t, []string{game("a")}, res.Restored)
	assert.Equal(t, "orig", env.read(t, game("a")))
	assert.Empty(t, env.backedUp(t))
}

func TestRetract_NeverAppliedIsHarmless(t *testing.T) {
	env := newTestEnv(t)
	env.importDir(t, "/src/m", map[string]string{"a": "mod"})

	res, err := env.engine.Retract(context.Background(), &RetractRequest{Name: "m"})
	require.NoError(t, err)
	assert.Empty(t, res.Removed)
	assert.Empty(t, res.Restored)
}

func TestSharedBackupPrecedence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.writeFiles(t, testGameRoot, map[string]string{"x": "original"})
	env.importDir(t, "/src/m1", map[string]string{"x": "from-m1"})
	env.importDir(t, "/src/m2", map[string]string{"x": "from-m2"})

	_, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m1"})
	require.NoError(t, err)

	second, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m2"})
	require.NoError(t, err)
	assert.Empty(t, second.Archived, "the first overlay's archive is never replaced")
	require.Len(t, second.Plan.Overlaps, 1)
	assert.Equal(t, []string{"m1"}, second.Plan.Overlaps[0].Overlays)
	assert.Equal(t, "original", env.read(t, archive("x")))
	assert.Equal(t, "from-m2", env.read(t, game("x")))

	retract, err := env.engine.Retract(ctx, &RetractRequest{Name: "m2"})
	require.NoError(t, err)
	assert.True(t, retract.Plan.HasOverlaps())
	assert.Equal(t, "original", env.read(t, game("x")))
	assert.Empty(t, env.backedUp(t))
}

func TestRemove(t *testing.T) {
	t.Run("retracted overlay", func(t *testing.T) {
		env := newTestEnv(t)
		overlay := env.importDir(t, "/src/m", map[string]string{"a": "a"})

		res, err := env.engine.Remove(context.Background(), &RemoveRequest{Name: "m"})
		require.NoError(t, err)
		assert.True(t, res.Deleted)
		assert.Equal(t, 1, res.FileCount)

		assert.False(t, env.exists(t, overlay.Files[0]))
		_, err = env.store.GetOverlay("m")
		assert.ErrorIs(t, err, ErrOverlayNotFound)
	})

	t.Run("applied overlay requires force", func(t *testing.T) {
		env := newTestEnv(t)
		overlay := env.importDir(t, "/src/m", map[string]string{"a": "a"})
		_, err := env.engine.Apply(context.Background(), &ApplyRequest{Name: "m"})
		require.NoError(t, err)

		res, err := env.engine.Remove(context.Background(), &RemoveRequest{Name: "m"})
		assert.ErrorIs(t, err, ErrOverlayApplied)
		require.NotNil(t, res)
		assert.False(t, res.Deleted)
		assert.True(t, env.exists(t, overlay.Files[0]))

		res, err = env.engine.Remove(context.Background(), &RemoveRequest{Name: "m", Force: true})
		require.NoError(t, err)
		assert.True(t, res.Deleted)
		assert.True(t, env.exists(t, game("a")), "projected files are left in place")
	})

	t.Run("dry run", func(t *testing.T) {
		env := newTestEnv(t)
		env.importDir(t, "/src/m", map[string]string{"a": "a"})

		res, err := env.engine.Remove(context.Background(), &RemoveRequest{Name: "m", DryRun: true})
		require.NoError(t, err)
		assert.False(t, res.Deleted)

		exists, err := env.store.OverlayExists("m")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestClearBackups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.writeFiles(t, testGameRoot, map[string]string{"a": "orig-a", "b": "orig-b"})
	env.importDir(t, "/src/m", map[string]string{"a": "mod-a", "b": "mod-b"})

	_, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m"})
	require.NoError(t, err)
	require.Len(t, env.backedUp(t), 2)

	dry, err := env.engine.ClearBackups(ctx, &ClearBackupsRequest{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, []string{game("a"), game("b")}, dry.Paths)
	assert.Equal(t, []string{"m"}, dry.AppliedOverlays)
	assert.Len(t, env.backedUp(t), 2)

	_, err = env.engine.ClearBackups(ctx, &ClearBackupsRequest{})
	require.NoError(t, err)
	assert.Empty(t, env.backedUp(t))
	assert.False(t, env.exists(t, env.paths.Archive))

	// Clearing again with no archive directory is fine.
	_, err = env.engine.ClearBackups(ctx, &ClearBackupsRequest{})
	require.NoError(t, err)

	// Originals are forgotten: retract only deletes.
	res, err := env.engine.Retract(ctx, &RetractRequest{Name: "m"})
	require.NoError(t, err)
	assert.Empty(t, res.Restored)
	assert.False(t, env.exists(t, game("a")))
}

func TestVerifyBackups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.writeFiles(t, testGameRoot, map[string]string{"a": "orig-a", "b": "orig-b"})
	env.importDir(t, "/src/m", map[string]string{"a": "mod-a", "b": "mod-b"})
	_, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m"})
	require.NoError(t, err)

	res, err := env.engine.VerifyBackups(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)
	assert.Zero(t, res.Missing)

	require.NoError(t, env.fs.Remove(archive("b")))

	res, err = env.engine.VerifyBackups(ctx)
	assert.ErrorIs(t, err, ErrBackupMissing)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Missing)
	assert.True(t, res.Entries[0].ArchivePresent)
	assert.False(t, res.Entries[1].ArchivePresent)
}

func TestListOverlays_MostRecentFirst(t *testing.T) {
	env := newTestEnv(t)
	env.importDir(t, "/src/first", map[string]string{"a": "a"})
	env.importDir(t, "/src/second", map[string]string{"a": "a"})
	env.importDir(t, "/src/third", map[string]string{"a": "a"})

	overlays, err := env.engine.ListOverlays(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(overlays))
	for _, o := range overlays {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"third", "second", "first"}, names)
}

func TestDescribe_ReportsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.writeFiles(t, testGameRoot, map[string]string{"a": "orig"})
	env.importDir(t, "/src/m", map[string]string{"a": "mod-a", "b": "mod-b"})
	_, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m"})
	require.NoError(t, err)

	res, err := env.engine.Describe(ctx, "m")
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Zero(t, res.Drifted)
	assert.True(t, res.Files[0].BackedUp)
	assert.False(t, res.Files[1].BackedUp)

	env.writeFiles(t, testGameRoot, map[string]string{"b": "patched by game update"})

	res, err = env.engine.Describe(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Drifted)
	assert.True(t, res.Files[0].Matches)
	assert.False(t, res.Files[1].Matches)
	assert.True(t, res.Files[1].TargetPresent)
}

func TestSetInstallRoot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.mem.MkdirAll("/other-game", 0755))

	_, err := env.engine.SetInstallRoot(ctx, &SetInstallRootRequest{Path: "/missing"})
	assert.ErrorIs(t, err, ErrValidation)

	env.importDir(t, "/src/m", map[string]string{"a": "a"})
	_, err = env.engine.Apply(ctx, &ApplyRequest{Name: "m"})
	require.NoError(t, err)

	_, err = env.engine.SetInstallRoot(ctx, &SetInstallRootRequest{Path: "/other-game"})
	assert.ErrorIs(t, err, ErrOverlayApplied)

	root, err := env.engine.SetInstallRoot(ctx, &SetInstallRootRequest{Path: "/other-game", Force: true})
	require.NoError(t, err)
	assert.Equal(t, "/other-game", root)

	got, err := env.engine.InstallRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/other-game", got)
}

func TestSetInstallRoot_RefusedWhileOriginalsRecorded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.writeFiles(t, testGameRoot, map[string]string{"x": "game-original"})
	env.writeFiles(t, "/other", map[string]string{"x": "other-original"})
	env.importDir(t, "/src/m1", map[string]string{"x": "from-m1"})
	env.importDir(t, "/src/m2", map[string]string{"x": "from-m2"})

	_, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m1"})
	require.NoError(t, err)
	// Forced removal leaves game x recorded as backed up.
	_, err = env.engine.Remove(ctx, &RemoveRequest{Name: "m1", Force: true})
	require.NoError(t, err)

	_, err = env.engine.SetInstallRoot(ctx, &SetInstallRootRequest{Path: "/other"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackupsRecorded)

	root, err := env.engine.InstallRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, testGameRoot, root)

	// Applying at the unchanged root keeps the recorded original intact.
	_, err = env.engine.Apply(ctx, &ApplyRequest{Name: "m2"})
	require.NoError(t, err)
	assert.Equal(t, "game-original", env.read(t, archive("x")))
	assert.Equal(t, []string{game("x")}, env.backedUp(t))
}

func TestSetInstallRoot_RefusedForParentRoot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.writeFiles(t, testGameRoot, map[string]string{"x": "orig"})
	env.importDir(t, "/src/m", map[string]string{"x": "mod"})
	_, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m"})
	require.NoError(t, err)
	_, err = env.engine.Remove(ctx, &RemoveRequest{Name: "m", Force: true})
	require.NoError(t, err)

	// /game/x is still under "/", but would map to archive/game/x.
	_, err = env.engine.SetInstallRoot(ctx, &SetInstallRootRequest{Path: "/"})
	assert.ErrorIs(t, err, ErrBackupsRecorded)

	_, err = env.engine.ClearBackups(ctx, &ClearBackupsRequest{})
	require.NoError(t, err)
	_, err = env.engine.SetInstallRoot(ctx, &SetInstallRootRequest{Path: "/"})
	require.NoError(t, err)
}

func TestListBackups_ReportsPathsFromPreviousRoot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.writeFiles(t, testGameRoot, map[string]string{"x": "orig-x", "y": "orig-y"})
	require.NoError(t, env.mem.MkdirAll("/other", 0755))
	env.importDir(t, "/src/m", map[string]string{"x": "mod-x"})
	_, err := env.engine.Apply(ctx, &ApplyRequest{Name: "m"})
	require.NoError(t, err)
	_, err = env.engine.Remove(ctx, &RemoveRequest{Name: "m", Force: true})
	require.NoError(t, err)

	_, err = env.engine.SetInstallRoot(ctx, &SetInstallRootRequest{Path: "/other", Force: true})
	require.NoError(t, err)

	res, err := env.engine.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, game("x"), res.Entries[0].TargetPath)
	assert.True(t, res.Entries[0].ForeignRoot)
	assert.False(t, res.Entries[0].ArchivePresent)
	assert.Empty(t, res.Entries[0].ArchivePath)
	assert.Equal(t, 1, res.Missing)

	res, err = env.engine.VerifyBackups(ctx)
	assert.ErrorIs(t, err, ErrBackupMissing)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Missing)
}

func TestImport_RejectsSourceInsideManagedStorage(t *testing.T) {
	env := newTestEnv(t)
	leftover := filepath.Join(env.paths.Mods, "leftover")
	env.writeFiles(t, leftover, map[string]string{"a.txt": "only copy"})

	_, err := env.engine.Import(context.Background(), &ImportRequest{SourceDir: leftover})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "only copy", env.read(t, filepath.Join(leftover, "a.txt")))

	_, err = env.engine.Import(context.Background(), &ImportRequest{SourceDir: env.paths.Mods})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.engine.Import(context.Background(), &ImportRequest{SourceDir: testDataRoot})
	assert.ErrorIs(t, err, ErrValidation)

	exists, err := env.store.OverlayExists("leftover")
	require.NoError(t, err)
	assert.False(t, exists)
}
