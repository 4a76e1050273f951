package opengtap

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/devchoca/OpenGTAP/domain/model"
)

// ReadFile reads a header array file of any supported format. Binary
// inputs (.har, .sl4) may carry a gzip, bzip2, xz or zstandard
// compression extension; .harx inputs are ZIP archives.
func ReadFile(path string) (*HarFile, error) {
	f := newFile(path)
	switch f.getFileType() {
	case FileTypeHAR, FileTypeSL4:
		reader, cleanup, err := f.openReader()
		if err != nil {
			return nil, err
		}
		file, err := NewHarReader(reader).ReadAll()
		if closeErr := cleanup(); err == nil && closeErr != nil {
			return nil, closeErr
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return file, nil

	case FileTypeHARX:
		handle, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file %s: %w", path, err)
		}
		defer handle.Close()
		info, err := handle.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
		}
		file, err := ReadHarx(handle, info.Size())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return file, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// WriteFile writes the file in the format named by the path extension:
// binary HAR for .har/.sl4 (with optional compression extension), HARX
// for .harx, Excel for .xlsx and Parquet for .parquet.
func WriteFile(path string, file *HarFile, opts ...HarWriterOption) error {
	f := newFile(path)
	switch f.getFileType() {
	case FileTypeHAR, FileTypeSL4:
		writer, cleanup, err := f.createWriter()
		if err != nil {
			return err
		}
		if err := NewHarWriter(writer, opts...).WriteFile(file); err != nil {
			_ = cleanup()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return cleanup()

	case FileTypeHARX:
		handle, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create file %s: %w", path, err)
		}
		if err := WriteHarx(handle, file); err != nil {
			_ = handle.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return handle.Close()

	case FileTypeXLSX:
		return ExportXLSX(path, file)

	case FileTypeParquet:
		return ExportParquet(path, file)

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Convert reads the input file and re-encodes it in the format named by
// the output path extension.
func Convert(inPath, outPath string, opts ...HarWriterOption) error {
	file, err := ReadFile(inPath)
	if err != nil {
		return err
	}
	return WriteFile(outPath, file, opts...)
}

// ReadSolutionFile reads a solution file and assembles the back-solved
// and condensed variables in ascending variable-index order.
func ReadSolutionFile(ctx context.Context, path string) ([]*model.HeaderArray, error) {
	file, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	sr, err := NewSolutionReader(file)
	if err != nil {
		return nil, err
	}
	return sr.Assemble(ctx)
}

// Validate runs the set validator over the file, reporting mismatches to
// the optional sink, and reports whether all same-named sets carry
// identical element lists.
func Validate(file *HarFile, sink io.Writer) bool {
	v := NewSetValidator(sink)
	for _, arr := range file.Arrays() {
		v.Check(arr)
	}
	return v.Consistent()
}
