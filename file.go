package opengtap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileType represents supported file types
type FileType int

const (
	// FileTypeHAR represents a binary header array file
	FileTypeHAR FileType = iota
	// FileTypeSL4 represents a binary solution file (HAR layout)
	FileTypeSL4
	// FileTypeHARX represents a JSON-in-ZIP header array archive
	FileTypeHARX
	// FileTypeXLSX represents an Excel workbook export
	FileTypeXLSX
	// FileTypeParquet represents a Parquet export
	FileTypeParquet
	// FileTypeUnsupported represents unsupported file type
	FileTypeUnsupported
)

// File extensions
const (
	// ExtHAR is the binary header array extension
	ExtHAR = ".har"
	// ExtSL4 is the solution file extension
	ExtSL4 = ".sl4"
	// ExtHARX is the JSON-in-ZIP archive extension
	ExtHARX = ".harx"
	// ExtXLSX is the Excel workbook extension
	ExtXLSX = ".xlsx"
	// ExtParquet is the Parquet extension
	ExtParquet = ".parquet"
)

// file represents one input or output path with its detected type and
// compression.
type file struct {
	path        string
	fileType    FileType
	compression CompressionType
}

// newFile creates a new file with type and compression detected from the
// path.
func newFile(path string) *file {
	return &file{
		path:        path,
		fileType:    detectFileType(path),
		compression: detectCompression(strings.ToLower(path)),
	}
}

// detectFileType determines the file type from the path, looking through
// a trailing compression extension.
func detectFileType(path string) FileType {
	name := strings.ToLower(filepath.Base(path))
	name = stripCompressionExtension(name)
	switch filepath.Ext(name) {
	case ExtHAR:
		return FileTypeHAR
	case ExtSL4:
		return FileTypeSL4
	case ExtHARX:
		return FileTypeHARX
	case ExtXLSX:
		return FileTypeXLSX
	case ExtParquet:
		return FileTypeParquet
	default:
		return FileTypeUnsupported
	}
}

// isSupportedFile checks whether the path carries a supported extension.
func isSupportedFile(path string) bool {
	return detectFileType(path) != FileTypeUnsupported
}

// isBinary reports whether the file holds the binary HAR encoding.
func (f *file) isBinary() bool {
	return f.fileType == FileTypeHAR || f.fileType == FileTypeSL4
}

// getPath returns the file path.
func (f *file) getPath() string {
	return f.path
}

// getFileType returns the detected file type.
func (f *file) getFileType() FileType {
	return f.fileType
}

// isCompressed reports whether the path carries a compression extension.
func (f *file) isCompressed() bool {
	return f.compression != CompressionNone
}

// openReader opens the file for reading, wrapping it with a decompression
// reader when needed. The returned cleanup closes both layers.
func (f *file) openReader() (io.Reader, func() error, error) {
	handle, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("failed to load file: path does not exist: %s", f.path)
		}
		return nil, nil, fmt.Errorf("failed to open file %s: %w", f.path, err)
	}

	reader, closeReader, err := f.compression.CreateReader(handle)
	if err != nil {
		_ = handle.Close()
		return nil, nil, err
	}
	cleanup := func() error {
		readerErr := closeReader()
		if err := handle.Close(); err != nil {
			return err
		}
		return readerErr
	}
	return reader, cleanup, nil
}

// createWriter opens the file for writing, wrapping it with a compression
// writer when needed. The returned cleanup flushes and closes both
// layers.
func (f *file) createWriter() (io.Writer, func() error, error) {
	handle, err := os.Create(f.path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file %s: %w", f.path, err)
	}

	writer, closeWriter, err := f.compression.CreateWriter(handle)
	if err != nil {
		_ = handle.Close()
		return nil, nil, err
	}
	cleanup := func() error {
		if err := closeWriter(); err != nil {
			_ = handle.Close()
			return err
		}
		return handle.Close()
	}
	return writer, cleanup, nil
}
