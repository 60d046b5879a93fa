package templatestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "landing.html")
	require.NoError(t, os.WriteFile(path, []byte("<html>v1</html>"), 0o644))

	s := New(path)
	assert.Equal(t, "<html>v1</html>", string(s.Get()))
	assert.Equal(t, "loaded", s.Loaded())
}

func TestStore_ReloadsOnModTimeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "landing.html")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	s := New(path)
	assert.Equal(t, "v1", string(s.Get()))

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	assert.Equal(t, "v2", string(s.Get()))
}

func TestStore_NeverLoaded_ReturnsSentinel(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.html"))
	assert.Equal(t, Sentinel, s.Get())
	assert.Equal(t, "unloaded", s.Loaded())
}

func TestStore_RemovedAfterLoad_ServesLastKnownBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "landing.html")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	s := New(path)
	assert.Equal(t, "v1", string(s.Get()))

	require.NoError(t, os.Remove(path))
	assert.Equal(t, "v1", string(s.Get()))
	assert.Equal(t, "stale", s.Loaded())
}
