package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "balag/internal/errors"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(paths.ExecutableDir))
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "raw"), paths.RawDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "analysis"), paths.AnalysisDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "login_ftp.txt"), paths.AccountFile)
}

func TestResolvePathsWithRoot(t *testing.T) {
	root := t.TempDir()
	paths, err := ResolvePaths(PathsConfig{RootDir: root})
	require.NoError(t, err)
	assert.Equal(t, root, paths.ExecutableDir)
	assert.Equal(t, filepath.Join(root, "data", "processed", "x.csv"), paths.GetProcessedPath("x.csv"))
}

func TestEnsureDirectories(t *testing.T) {
	paths := NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.RawDir, paths.ProcessedDir, paths.ReportsDir, paths.AnalysisDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestGetAccountPath(t *testing.T) {
	paths := NewPaths("/srv/balag")

	assert.Equal(t, "/srv/balag/login_ftp.txt", paths.GetAccountPath(""))
	assert.Equal(t, "/srv/balag/secrets/ftp.txt", paths.GetAccountPath("secrets/ftp.txt"))
	assert.Equal(t, "/etc/ftp.txt", paths.GetAccountPath("/etc/ftp.txt"))
}

func TestAnalysisDirs(t *testing.T) {
	paths := NewPaths(t.TempDir())

	_, err := paths.LastAnalysisDir()
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	require.NoError(t, paths.EnsureDirectories())
	_, err = paths.LastAnalysisDir()
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	now := time.Date(2016, 4, 5, 14, 30, 0, 0, time.UTC)
	first, err := paths.NextAnalysisDir(now)
	require.NoError(t, err)
	assert.Equal(t, "0_05-04-16_14-30", filepath.Base(first))

	second, err := paths.NextAnalysisDir(now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "1_05-04-16_14-31", filepath.Base(second))

	// stray files are counted but never picked as a run
	require.NoError(t, os.WriteFile(filepath.Join(paths.AnalysisDir, "notes.txt"), nil, 0644))

	last, err := paths.LastAnalysisDir()
	require.NoError(t, err)
	assert.Equal(t, second, last)

	third, err := paths.NextAnalysisDir(now.Add(2 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "3_05-04-16_14-32", filepath.Base(third))
}
