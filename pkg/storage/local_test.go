package storage

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageLifecycle(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("students/abc_photo.png", []byte("png"))
	require.NoError(t, err)
	assert.True(t, store.Exists(name))

	f, err := store.Open(name)
	require.NoError(t, err)
	body, _ := io.ReadAll(f)
	_ = f.Close()
	assert.Equal(t, "png", string(body))

	require.NoError(t, store.Delete(name))
	require.NoError(t, store.Delete(name))
	assert.False(t, store.Exists(name))
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../secret", "students/../../etc/passwd", "/etc/passwd"} {
		_, err := store.Save(name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, name)
	}
}
