package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T, files []string) string {
	t.Helper()
	dir := t.TempDir()
	for _, file := range files {
		path := filepath.Join(dir, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
	}
	return dir
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	rel := make([]string, 0, len(paths))
	for _, path := range paths {
		r, err := filepath.Rel(root, path)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	return rel
}

func TestCollectPythonFiles_Recursive(t *testing.T) {
	dir := makeTree(t, []string{
		"app.py",
		"pkg/core.py",
		"pkg/sub/util.py",
		"readme.md",
		"types.pyi",
	})

	files, err := NewFileReader().CollectPythonFiles([]string{dir}, true, nil, nil)

	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"app.py", "pkg/core.py", "pkg/sub/util.py", "types.pyi"},
		relPaths(t, dir, files))
}

func TestCollectPythonFiles_NonRecursive(t *testing.T) {
	dir := makeTree(t, []string{
		"app.py",
		"pkg/core.py",
	})

	files, err := NewFileReader().CollectPythonFiles([]string{dir}, false, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, relPaths(t, dir, files))
}

func TestCollectPythonFiles_SkipsToolDirs(t *testing.T) {
	dir := makeTree(t, []string{
		"app.py",
		"__pycache__/cached.py",
		"venv/lib/site.py",
		".git/hook.py",
		".hidden/secret.py",
		"build/gen.py",
	})

	files, err := NewFileReader().CollectPythonFiles([]string{dir}, true, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, relPaths(t, dir, files))
}

func TestCollectPythonFiles_ExcludePatterns(t *testing.T) {
	dir := makeTree(t, []string{
		"app.py",
		"generated_pb2.py",
		"pkg/core.py",
	})

	files, err := NewFileReader().CollectPythonFiles([]string{dir}, true, nil, []string{"*_pb2.py"})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app.py", "pkg/core.py"}, relPaths(t, dir, files))
}

func TestCollectPythonFiles_DoublestarExclude(t *testing.T) {
	dir := makeTree(t, []string{
		"app.py",
		"legacy/old/stuff.py",
	})

	files, err := NewFileReader().CollectPythonFiles([]string{dir}, true, nil, []string{"**/legacy/**"})

	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, relPaths(t, dir, files))
}

func TestCollectPythonFiles_IncludePatterns(t *testing.T) {
	dir := makeTree(t, []string{
		"app.py",
		"helper.py",
	})

	files, err := NewFileReader().CollectPythonFiles([]string{dir}, true, []string{"app.py"}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, relPaths(t, dir, files))
}

func TestCollectPythonFiles_SingleFile(t *testing.T) {
	dir := makeTree(t, []string{"app.py"})

	files, err := NewFileReader().CollectPythonFiles([]string{filepath.Join(dir, "app.py")}, false, nil, nil)

	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestCollectPythonFiles_MissingPath(t *testing.T) {
	_, err := NewFileReader().CollectPythonFiles([]string{filepath.Join(t.TempDir(), "nope")}, true, nil, nil)

	assert.Error(t, err)
}

func TestCollectPythonFiles_SortedOutput(t *testing.T) {
	dir := makeTree(t, []string{"c.py", "a.py", "b.py"})

	files, err := NewFileReader().CollectPythonFiles([]string{dir}, false, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py", "c.py"}, relPaths(t, dir, files))
}

func TestIsValidPythonFile(t *testing.T) {
	reader := NewFileReader()

	assert.True(t, reader.IsValidPythonFile("a.py"))
	assert.True(t, reader.IsValidPythonFile("a.PY"))
	assert.True(t, reader.IsValidPythonFile("stub.pyi"))
	assert.False(t, reader.IsValidPythonFile("a.txt"))
	assert.False(t, reader.IsValidPythonFile("py"))
}

func TestReadFile(t *testing.T) {
	dir := makeTree(t, []string{"app.py"})

	content, err := NewFileReader().ReadFile(filepath.Join(dir, "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(content))

	_, err = NewFileReader().ReadFile(filepath.Join(dir, "absent.py"))
	assert.Error(t, err)
}
