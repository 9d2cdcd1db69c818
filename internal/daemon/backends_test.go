package daemon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_ReadWriteEdit(t *testing.T) {
	fs := newLocalFS(t.TempDir())
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "notes/a.txt", "one two three"))

	content, err := fs.Read(ctx, "notes/a.txt", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "one two three", content)

	n, err := fs.Edit(ctx, "notes/a.txt", "two", "2", false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	content, err = fs.Read(ctx, "notes/a.txt", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "one 2 three", content)
}

func TestLocalFS_ReadLineRange(t *testing.T) {
	fs := newLocalFS(t.TempDir())
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "f.txt", "l1\nl2\nl3\nl4"))

	content, err := fs.Read(ctx, "f.txt", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "l2\nl3", content)

	content, err = fs.Read(ctx, "f.txt", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestLocalFS_RejectsEscapes(t *testing.T) {
	fs := newLocalFS(t.TempDir())
	ctx := context.Background()

	_, err := fs.Read(ctx, "../outside.txt", 0, 0)
	assert.Error(t, err)

	err = fs.Write(ctx, "../../etc/passwd", "x")
	assert.Error(t, err)

	_, err = fs.Read(ctx, "https://example.com/f", 0, 0)
	assert.Error(t, err)
}

func TestLocalFS_ListAndSearch(t *testing.T) {
	root := t.TempDir()
	fs := newLocalFS(root)
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "main.go", "package main\nfunc main() {}"))
	require.NoError(t, fs.Write(ctx, "sub/util.go", "package sub"))
	require.NoError(t, fs.Write(ctx, "README.md", "# readme"))

	entries, err := fs.List(ctx, ".")
	require.NoError(t, err)
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	assert.True(t, names["main.go"])
	assert.True(t, names["sub"])

	matches, err := fs.Glob(ctx, ".", "*.go")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	hits, err := fs.Grep(ctx, ".", `^package`)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}
