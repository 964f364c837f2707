package filestorage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files/")
	require.NoError(t, err)

	key := "images/a.png"
	require.NoError(t, s.SaveReader(ctx, key, bytes.NewReader(pngHeader), int64(len(pngHeader)), "image/png", &Metadata{Kind: "image"}))

	exist, err := s.Exist(ctx, key)
	require.NoError(t, err)
	assert.True(t, exist)

	r, err := s.LoadReader(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	r.Close()
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	info, err := s.GetFileInfo(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len(pngHeader)), info.Size)
	assert.Equal(t, "image/png", info.ContentType)

	var names []string
	require.NoError(t, s.ListRoot(ctx, func(fi FileInfo) error {
		names = append(names, fi.Name)
		return nil
	}))
	assert.Equal(t, []string{key}, names)

	assert.Equal(t, "http://localhost:8080/files/images/a.png", s.PublicURL(key))

	require.NoError(t, s.Delete(ctx, key))
	exist, err = s.Exist(ctx, key)
	require.NoError(t, err)
	assert.False(t, exist)

	_, err = s.LoadReader(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocalStorageKeyEscape(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, "")
	require.NoError(t, err)
	assert.Equal(t, root+"/etc/passwd", s.filePath("../../etc/passwd"))
}

func TestMetadataMap(t *testing.T) {
	assert.Equal(t, map[string]string{"kind": "cover", "writingId": "42"}, Metadata{Kind: "cover", WritingId: "42"}.GetMap())
	assert.Empty(t, Metadata{}.GetMap())
}
