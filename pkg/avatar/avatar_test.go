package avatar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("fake-png-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	store, err := NewStore(dir, "/avatars")
	require.NoError(t, err)

	url, err := store.Download(context.Background(), 42, srv.URL+"/pic")
	require.NoError(t, err)
	assert.Equal(t, "/avatars/42.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "42.png"))
	require.NoError(t, err)
	assert.Equal(t, "fake-png-bytes", string(data))
}

func TestStore_DownloadDefaultsToJPEG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	store, err := NewStore(t.TempDir(), "/avatars")
	require.NoError(t, err)

	url, err := store.Download(context.Background(), 7, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "/avatars/7.jpg", url)
}

func TestStore_DownloadErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store, err := NewStore(t.TempDir(), "/avatars")
	require.NoError(t, err)

	_, err = store.Download(context.Background(), 1, srv.URL)
	assert.Error(t, err)

	_, err = store.Download(context.Background(), 1, "")
	assert.Error(t, err)
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "avatars")
	store, err := NewStore(dir, "/avatars")
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
