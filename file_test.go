package opengtap

import (
	"testing"
)

func TestDetectFileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want FileType
	}{
		{"basedata.har", FileTypeHAR},
		{"basedata.HAR", FileTypeHAR},
		{"basedata.har.gz", FileTypeHAR},
		{"basedata.har.zst", FileTypeHAR},
		{"solution.sl4", FileTypeSL4},
		{"solution.sl4.bz2", FileTypeSL4},
		{"solution.sl4.xz", FileTypeSL4},
		{"portable.harx", FileTypeHARX},
		{"report.xlsx", FileTypeXLSX},
		{"report.parquet", FileTypeParquet},
		{"notes.txt", FileTypeUnsupported},
		{"archive.gz", FileTypeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if got := detectFileType(tt.path); got != tt.want {
				t.Errorf("detectFileType(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsSupportedFile(t *testing.T) {
	t.Parallel()

	if !isSupportedFile("data.har") {
		t.Error("isSupportedFile(data.har) = false, want true")
	}
	if isSupportedFile("data.csv") {
		t.Error("isSupportedFile(data.csv) = true, want false")
	}
}

func TestDetectCompression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want CompressionType
	}{
		{"data.har", CompressionNone},
		{"data.har.gz", CompressionGZ},
		{"data.har.bz2", CompressionBZ2},
		{"data.har.xz", CompressionXZ},
		{"data.har.zst", CompressionZSTD},
	}
	for _, tt := range tests {
		if got := detectCompression(tt.path); got != tt.want {
			t.Errorf("detectCompression(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestStripCompressionExtension(t *testing.T) {
	t.Parallel()

	if got := stripCompressionExtension("data.har.gz"); got != "data.har" {
		t.Errorf("stripCompressionExtension() = %q, want %q", got, "data.har")
	}
	if got := stripCompressionExtension("data.har"); got != "data.har" {
		t.Errorf("stripCompressionExtension() = %q, want %q", got, "data.har")
	}
}

func TestFile_OpenReaderMissing(t *testing.T) {
	t.Parallel()

	f := newFile(t.TempDir() + "/missing.har")
	if _, _, err := f.openReader(); err == nil {
		t.Error("openReader() should fail for a missing file")
	}
}
