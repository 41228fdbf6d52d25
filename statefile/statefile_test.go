package statefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentWithoutMarkers(t *testing.T) {
	store := NewStore(t.TempDir())

	mode, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, ModeUnknown, mode)
}

func TestSetCreatesMarker(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.Set(ModeHotspot))

	mode, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, ModeHotspot, mode)

	_, err = os.Stat(filepath.Join(dir, "hotspot"))
	assert.NoError(t, err)
}

func TestSetRemovesOppositeMarker(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.Set(ModeHotspot))
	require.NoError(t, store.Set(ModeClient))

	mode, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, ModeClient, mode)

	// at most one marker may exist at any time
	_, err = os.Stat(filepath.Join(dir, "hotspot"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "client"))
	assert.NoError(t, err)
}

func TestSetIsIdempotent(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.Set(ModeClient))
	require.NoError(t, store.Set(ModeClient))

	mode, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, ModeClient, mode)
}

func TestSetCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	store := NewStore(dir)

	require.NoError(t, store.Set(ModeHotspot))

	mode, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, ModeHotspot, mode)
}

func TestSetRejectsUnknownMode(t *testing.T) {
	store := NewStore(t.TempDir())

	assert.Error(t, store.Set(Mode("other")))
}
