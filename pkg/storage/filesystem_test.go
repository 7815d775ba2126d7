package storage

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveUploadAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), 1024, []string{"image/png"})
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	rel, err := store.SaveUpload("profile-photos", "me.PNG", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "profile-photos/2024/03/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))

	f, err := store.Open(rel)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))

	require.NoError(t, store.Delete(rel))
	require.NoError(t, store.Delete(rel))
}

func TestValidateUpload(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), 10, []string{"image/jpeg"})
	require.NoError(t, err)

	assert.NoError(t, store.Validate("image/jpeg", 10))
	assert.True(t, errors.Is(store.Validate("image/jpeg", 11), ErrFileTooLarge))
	assert.True(t, errors.Is(store.Validate("application/pdf", 1), ErrUnsupportedMedia))
}

func TestSaveUploadRejectsOversizedStream(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), 4, nil)
	require.NoError(t, err)

	_, err = store.SaveUpload("profile-photos", "a.jpg", "image/jpeg", strings.NewReader("too large"))
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}

func TestResolveRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), 0, nil)
	require.NoError(t, err)

	_, err = store.Open("../../etc/passwd")
	assert.True(t, errors.Is(err, ErrInvalidPath))
}
