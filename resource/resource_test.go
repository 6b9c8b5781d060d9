package resource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, d Directory) map[string]Entry {
	t.Helper()
	out := make(map[string]Entry)
	for e, err := range d.Entries(context.Background()) {
		require.NoError(t, err)
		out[e.Name()] = e
	}
	return out
}

func TestClamp(t *testing.T) {
	tests := []struct {
		start, end, size int64
		wantStart        int64
		wantEnd          int64
	}{
		{0, 24, 100, 0, 24},
		{0, 24, 10, 0, 10},
		{50, 60, 10, 10, 10},
		{-3, 4, 10, 0, 4},
		{6, 2, 10, 2, 2},
	}
	for _, tt := range tests {
		s, e := clamp(tt.start, tt.end, tt.size)
		assert.Equal(t, tt.wantStart, s)
		assert.Equal(t, tt.wantEnd, e)
	}
}

func TestLocalDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("0123456789"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.bin"), []byte("xy"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.png"), []byte("nested"), 0o644))

	d, err := NewLocalDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), d.Name())

	entries := collect(t, d)
	require.Len(t, entries, 3)
	assert.True(t, entries["a.png"].IsFile())
	assert.True(t, entries["b.bin"].IsFile())
	assert.False(t, entries["sub"].IsFile())

	// a second listing starts over
	assert.Len(t, collect(t, d), 3)

	ctx := context.Background()
	res, err := entries["a.png"].Open(ctx)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, "a.png", res.Name())
	assert.Equal(t, int64(10), res.Size())
	assert.Equal(t, "image/png", res.ContentType())

	b, err := res.ReadRange(ctx, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("234"), b)

	b, err = res.ReadRange(ctx, 8, 24)
	require.NoError(t, err)
	assert.Equal(t, []byte("89"), b)

	b, err = res.ReadRange(ctx, 20, 24)
	require.NoError(t, err)
	assert.Empty(t, b)

	all, err := ReadAll(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), all)
}

func TestLocalDirectorySymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.png")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	if err := os.Symlink(target, filepath.Join(dir, "link.png")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(dir, "linkdir")))

	d, err := NewLocalDirectory(dir)
	require.NoError(t, err)
	entries := collect(t, d)
	assert.True(t, entries["link.png"].IsFile())
	assert.False(t, entries["linkdir"].IsFile())
}

func TestNewLocalDirectoryErrors(t *testing.T) {
	_, err := NewLocalDirectory(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0o644))
	_, err = NewLocalDirectory(f)
	assert.ErrorContains(t, err, "not a directory")
}

func TestLocalDirectoryCanceled(t *testing.T) {
	d, err := NewLocalDirectory(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var gotErr error
	for _, err := range d.Entries(ctx) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, context.Canceled)
}

func TestMemoryDirectory(t *testing.T) {
	d := NewMemoryDirectory("mem").
		AddFile("one.png", "image/png", []byte{1, 2, 3}).
		AddDir("nested").
		AddFile("two", "", nil)

	var names []string
	for e, err := range d.Entries(context.Background()) {
		require.NoError(t, err)
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"one.png", "nested", "two"}, names)

	entries := collect(t, d)
	assert.False(t, entries["nested"].IsFile())

	res, err := entries["one.png"].Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType())

	b, err := res.ReadRange(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, b)

	// callers get a copy
	b[0] = 9
	again, _ := res.ReadRange(context.Background(), 1, 2)
	assert.Equal(t, []byte{2}, again)
}
