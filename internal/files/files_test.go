package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, n int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, n), 0o644))
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	got, err := ExpandPath("~")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	got, err = ExpandPath("~/docs/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "docs", "notes.txt"), got)

	got, err = ExpandPath("$HOME/docs")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "docs"), got)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	got, err = ExpandPath("rel/file.bin")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "rel", "file.bin"), got)
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"/tmp/notes.txt":           "notes.txt",
		`C:\Users\alpha\photo.png`: "photo.png",
		"/tmp/project.tar.gz":      "project.tar.gz",
		"dir/":                     "dir",
		"plain":                    "plain",
		"":                         "download",
		"..":                       "download",
		"/":                        "download",
	}
	for in, want := range tests {
		assert.Equal(t, want, BaseName(in), "input %q", in)
	}
}

func TestDownloadPath_StaysInsideDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/srv/in", "passwd"), DownloadPath("/srv/in", "../../etc/passwd"))
}

func TestSizer_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, path, 4096)

	n, err := Sizer{}.Size(path, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), n)
}

func TestSizer_SymlinkedRootIsResolved(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "notes.txt")
	writeFile(t, target, 4096)
	link := filepath.Join(root, "latest.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	for _, follow := range []bool{false, true} {
		n, err := Sizer{}.Size(link, follow)
		require.NoError(t, err)
		assert.Equal(t, uint64(4096), n, "follow=%v", follow)
	}
}

func TestSizer_MissingPath(t *testing.T) {
	_, err := Sizer{}.Size(filepath.Join(t.TempDir(), "nope"), false)
	assert.Error(t, err)
}

func TestSizer_DirectoryWithLinks(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "project")
	writeFile(t, filepath.Join(dir, "a.txt"), 10)
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), 20)
	outside := filepath.Join(root, "outside.bin")
	writeFile(t, outside, 100)

	if err := os.Link(filepath.Join(dir, "a.txt"), filepath.Join(dir, "a-hard.txt")); err != nil {
		t.Skipf("hard links unsupported: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(dir, "outside-link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "sub", "loop")))

	n, err := Sizer{}.Size(dir, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), n)

	n, err = Sizer{}.Size(dir, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(130), n)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path  string
		isDir bool
		want  string
	}{
		{"/tmp/project", true, TypeDirectory},
		{"/tmp/notes.txt", false, "Text file"},
		{"/tmp/main.go", false, "go file"},
		{"/tmp/photo.jpg", false, "JPEG Image"},
		{"/tmp/Makefile", false, TypeFile},
		{"/tmp/data.unknownext", false, TypeFile},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.path, tt.isDir), tt.path)
	}
}
