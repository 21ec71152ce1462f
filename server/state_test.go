package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadState(t *testing.T) {
	seed := int64(42)

	t.Run("generate new seed", func(t *testing.T) {
		_, err := loadState(context.Background(), t.TempDir(), nil)
		require.NoError(t, err)
	})
	t.Run("use configured seed", func(t *testing.T) {
		s, err := loadState(context.Background(), t.TempDir(), &seed)
		require.NoError(t, err)
		require.Equal(t, seed, s.Seed)
	})
	t.Run("detect mismatch between persisted seed and config", func(t *testing.T) {
		dir := t.TempDir()
		s, err := loadState(context.Background(), dir, &seed)
		require.NoError(t, err)
		require.NoError(t, saveState(dir, s))

		other := seed + 1
		_, err = loadState(context.Background(), dir, &other)
		require.Error(t, err)
	})
	t.Run("persisting seed", func(t *testing.T) {
		dir := t.TempDir()
		s, err := loadState(context.Background(), dir, nil)
		require.NoError(t, err)
		require.NoError(t, saveState(dir, s))

		s2, err := loadState(context.Background(), dir, nil)
		require.NoError(t, err)
		require.Equal(t, s.Seed, s2.Seed)

		s3, err := loadState(context.Background(), dir, &s.Seed)
		require.NoError(t, err)
		require.Equal(t, s.Seed, s3.Seed)
	})
	t.Run("corrupted state", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, stateFilename), []byte{1}, 0o600))
		_, err := loadState(context.Background(), dir, nil)
		require.Error(t, err)
	})
}
