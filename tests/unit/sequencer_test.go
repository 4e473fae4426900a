package unit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fuelroute/fuel-route-backend/internal/entrypoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func treeContents(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func newTestSequencer(t *testing.T) (*entrypoint.Sequencer, *[]string) {
	t.Helper()

	src := t.TempDir()
	root := t.TempDir()
	writeFile(t, filepath.Join(src, "css", "app.css"), "body {}")
	writeFile(t, filepath.Join(src, "js", "map.js"), "render()")
	writeFile(t, filepath.Join(src, "index.html"), "<html></html>")

	var execCalls []string
	seq := entrypoint.NewSequencer(nil, entrypoint.NoIdentity, src, root)
	seq.Exec = func(argv0 string, argv []string, envv []string) error {
		execCalls = append(execCalls, argv0)
		return nil
	}
	return seq, &execCalls
}

func TestCollectStaticPopulatesEmptyVolume(t *testing.T) {
	seq, _ := newTestSequencer(t)

	seq.CollectStatic()

	got := treeContents(t, seq.StaticRoot)
	assert.Equal(t, treeContents(t, seq.StaticSrc), got)
	assert.Len(t, got, 3)
}

func TestCollectStaticIsIdempotent(t *testing.T) {
	seq, _ := newTestSequencer(t)

	seq.CollectStatic()
	once := treeContents(t, seq.StaticRoot)

	seq.CollectStatic()
	twice := treeContents(t, seq.StaticRoot)

	assert.Equal(t, once, twice)
}

func TestCollectStaticClearsStaleAssets(t *testing.T) {
	seq, _ := newTestSequencer(t)

	// Simulate a previous build's leftovers on the shared volume.
	writeFile(t, filepath.Join(seq.StaticRoot, "old-build.js"), "deprecated()")
	writeFile(t, filepath.Join(seq.StaticRoot, "css", "app.css"), "stale")

	seq.CollectStatic()

	got := treeContents(t, seq.StaticRoot)
	assert.Equal(t, treeContents(t, seq.StaticSrc), got, "bundle must exactly match the current build, never a merge")
	assert.NotContains(t, got, "old-build.js")
	assert.Equal(t, "body {}", got[filepath.Join("css", "app.css")])
}

func TestRunReachesHandoffWhenStaticRegenerationFails(t *testing.T) {
	seq, execCalls := newTestSequencer(t)
	seq.StaticSrc = filepath.Join(t.TempDir(), "does-not-exist")

	err := seq.Run([]string{"/bin/true"})

	require.NoError(t, err)
	assert.Len(t, *execCalls, 1, "a failed asset regeneration must not block handoff")
}

func TestRunReachesHandoffWhenOwnershipRepairFails(t *testing.T) {
	seq, execCalls := newTestSequencer(t)
	seq.Owner = entrypoint.Identity{UID: 1000, GID: 1000}
	seq.Volumes = []string{filepath.Join(t.TempDir(), "missing-mount"), seq.StaticRoot}
	seq.Chown = func(path string, uid, gid int) error {
		return errors.New("operation not permitted")
	}

	err := seq.Run([]string{"/bin/true"})

	require.NoError(t, err)
	assert.Len(t, *execCalls, 1, "ownership repair must never block startup")
}

func TestRunTwiceConvergesToSameState(t *testing.T) {
	seq, execCalls := newTestSequencer(t)

	require.NoError(t, seq.Run([]string{"/bin/true"}))
	once := treeContents(t, seq.StaticRoot)

	require.NoError(t, seq.Run([]string{"/bin/true"}))
	twice := treeContents(t, seq.StaticRoot)

	assert.Equal(t, once, twice)
	assert.Len(t, *execCalls, 2)
}

func TestHandoffFailureIsFatal(t *testing.T) {
	seq, _ := newTestSequencer(t)
	seq.Exec = func(argv0 string, argv []string, envv []string) error {
		return errors.New("exec format error")
	}

	err := seq.Run([]string{"/bin/true"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exec")
}

func TestHandoffRejectsEmptyCommand(t *testing.T) {
	seq, _ := newTestSequencer(t)

	err := seq.Handoff(nil)
	require.Error(t, err)
}

func TestHandoffPassesArgvAndEnvironment(t *testing.T) {
	seq, _ := newTestSequencer(t)

	var gotArgv0 string
	var gotArgv []string
	var gotEnv []string
	seq.Exec = func(argv0 string, argv []string, envv []string) error {
		gotArgv0 = argv0
		gotArgv = argv
		gotEnv = envv
		return nil
	}

	t.Setenv("ENTRYPOINT_TEST_MARKER", "1")
	require.NoError(t, seq.Handoff([]string{"/bin/true", "-flag", "value"}))

	assert.Equal(t, "/bin/true", gotArgv0)
	assert.Equal(t, []string{"/bin/true", "-flag", "value"}, gotArgv)
	assert.Contains(t, gotEnv, "ENTRYPOINT_TEST_MARKER=1")
}
