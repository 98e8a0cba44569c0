package dataset

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, data := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(data)),
		}))
		_, err := tw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestExtractArchiveKeepsOnlyBinEntries(t *testing.T) {
	archive := buildArchive(t, map[string][]byte{
		"cifar-10-batches-bin/data_batch_1.bin": {1, 2, 3},
		"cifar-10-batches-bin/batches.meta.txt": []byte("airplane\n"),
	})
	dir := t.TempDir()
	require.NoError(t, extractArchive(bytes.NewReader(archive), dir))

	data, err := os.ReadFile(filepath.Join(dir, "data_batch_1.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	_, err = os.Stat(filepath.Join(dir, "batches.meta.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractArchiveRejectsGarbage(t *testing.T) {
	err := extractArchive(bytes.NewReader([]byte("not a gzip stream")), t.TempDir())
	require.Error(t, err)
}

func TestPresent(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, Present(dir))
	for _, name := range trainFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	assert.False(t, Present(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, testFile), nil, 0o644))
	assert.True(t, Present(dir))
}
