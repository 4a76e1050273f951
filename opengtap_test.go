package opengtap

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleFile(t *testing.T) *HarFile {
	t.Helper()

	file := NewHarFile()
	require.NoError(t, file.Add(stringTestArray(t)))
	require.NoError(t, file.Add(denseTestArray(t)))
	return file
}

func requireSameFile(t *testing.T, want, got *HarFile) {
	t.Helper()

	require.Equal(t, want.Len(), got.Len())
	for i, arr := range got.Arrays() {
		if !arr.Equal(want.Arrays()[i]) {
			t.Errorf("array %d (%s) differs", i, arr.Header())
		}
	}
}

func TestReadWriteFile_Binary(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.har")
	original := sampleFile(t)
	require.NoError(t, WriteFile(path, original))

	got, err := ReadFile(path)
	require.NoError(t, err)
	requireSameFile(t, original, got)
}

func TestReadWriteFile_Compressed(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"data.har.gz", "data.har.xz", "data.har.zst"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)
			original := sampleFile(t)
			require.NoError(t, WriteFile(path, original))

			got, err := ReadFile(path)
			require.NoError(t, err)
			requireSameFile(t, original, got)
		})
	}
}

func TestReadWriteFile_Harx(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.harx")
	original := sampleFile(t)
	require.NoError(t, WriteFile(path, original))

	got, err := ReadFile(path)
	require.NoError(t, err)
	requireSameFile(t, original, got)
}

func TestConvert(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	harPath := filepath.Join(dir, "data.har")
	harxPath := filepath.Join(dir, "data.harx")
	backPath := filepath.Join(dir, "back.har")

	original := sampleFile(t)
	require.NoError(t, WriteFile(harPath, original))

	require.NoError(t, Convert(harPath, harxPath))
	require.NoError(t, Convert(harxPath, backPath))

	got, err := ReadFile(backPath)
	require.NoError(t, err)
	requireSameFile(t, original, got)
}

func TestReadFile_Unsupported(t *testing.T) {
	t.Parallel()

	if _, err := ReadFile("data.txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ReadFile() error = %v, want ErrUnsupportedFormat", err)
	}
	if err := WriteFile("data.txt", NewHarFile()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("WriteFile() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.har")); err == nil {
		t.Error("ReadFile() should fail for a missing file")
	}
}
