package xdg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirsHonorEnvironment(t *testing.T) {
	tests := []struct {
		env string
		fn  func() (string, error)
	}{
		{"XDG_CONFIG_HOME", ConfigDir},
		{"XDG_STATE_HOME", StateDir},
		{"XDG_CACHE_HOME", CacheDir},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			base := t.TempDir()
			t.Setenv(tt.env, base)

			dir, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(base, AppName), dir)

			fi, err := os.Stat(dir)
			require.NoError(t, err)
			assert.True(t, fi.IsDir())
			assert.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
		})
	}
}

func TestConfigDirFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", AppName), dir)
}
