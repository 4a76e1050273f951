package opengtap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	"github.com/devchoca/OpenGTAP/domain/model"
)

// maxSheetNameLength is the Excel limit on worksheet names.
const maxSheetNameLength = 31

// parquetChunkSize is the row-group size used for Parquet exports.
const parquetChunkSize = 64 * 1024

// ExportXLSX renders the file as an Excel workbook: one sheet per header
// array, a column per defining set plus a value column, one row per
// logical entry.
func ExportXLSX(path string, file *HarFile) error {
	wb := excelize.NewFile()
	defer wb.Close()

	for i, arr := range file.Arrays() {
		sheet := sheetName(arr.Header(), i)
		if i == 0 {
			if err := wb.SetSheetName(wb.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("failed to rename sheet for header %q: %w", arr.Header(), err)
			}
		} else if _, err := wb.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet for header %q: %w", arr.Header(), err)
		}
		if err := writeSheet(wb, sheet, arr); err != nil {
			return err
		}
	}
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// writeSheet fills one worksheet with an array's expanded logical view.
func writeSheet(wb *excelize.File, sheet string, arr *model.HeaderArray) error {
	columns := columnNames(arr.Sets())
	for col, name := range append(columns, sqlValueColumn) {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := wb.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}

	strDict, hasStr := arr.Strings()
	intDict, hasInt := arr.Ints()

	row := 2
	for key := range expandedKeys(arr) {
		for col, component := range key.Keys() {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := wb.SetCellValue(sheet, cell, component); err != nil {
				return err
			}
		}
		cell, err := excelize.CoordinatesToCellName(key.Len()+1, row)
		if err != nil {
			return err
		}
		var value any
		switch {
		case hasStr:
			value = strDict.Get(key)
		case hasInt:
			value = intDict.Get(key)
		default:
			value = arr.GetReal(key.Keys()...)
		}
		if err := wb.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
		row++
	}
	return nil
}

// ExportParquet renders the file as Parquet. A single-array file is
// written to the path itself; a multi-array file becomes a directory of
// one "{header}.parquet" per array.
func ExportParquet(path string, file *HarFile) error {
	if file.Len() == 1 {
		return exportParquetArray(path, file.Arrays()[0])
	}
	dir := strings.TrimSuffix(path, ExtParquet)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	for _, arr := range file.Arrays() {
		name := strings.TrimRight(arr.Header(), " ") + ExtParquet
		if err := exportParquetArray(filepath.Join(dir, name), arr); err != nil {
			return err
		}
	}
	return nil
}

// exportParquetArray writes one array's expanded logical view as a
// Parquet table.
func exportParquetArray(path string, arr *model.HeaderArray) error {
	columns := columnNames(arr.Sets())
	fields := make([]arrow.Field, 0, len(columns)+1)
	for _, name := range columns {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.BinaryTypes.String})
	}
	fields = append(fields, arrow.Field{Name: sqlValueColumn, Type: valueArrowType(arr)})
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	strDict, hasStr := arr.Strings()
	intDict, hasInt := arr.Ints()
	for key := range expandedKeys(arr) {
		for col, component := range key.Keys() {
			builder.Field(col).(*array.StringBuilder).Append(component)
		}
		valueField := builder.Field(len(columns))
		switch {
		case hasStr:
			valueField.(*array.StringBuilder).Append(strDict.Get(key))
		case hasInt:
			valueField.(*array.Int32Builder).Append(intDict.Get(key))
		default:
			valueField.(*array.Float32Builder).Append(arr.GetReal(key.Keys()...))
		}
	}

	record := builder.NewRecord()
	defer record.Release()
	table := array.NewTableFromRecords(schema, []arrow.Record{record})
	defer table.Release()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	if err := pqarrow.WriteTable(table, out, parquetChunkSize, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write parquet table %s: %w", path, err)
	}
	return nil
}

// valueArrowType picks the Arrow type of the value column from the
// payload type.
func valueArrowType(arr *model.HeaderArray) arrow.DataType {
	switch arr.Type() {
	case model.ArrayTypeString:
		return arrow.BinaryTypes.String
	case model.ArrayTypeInteger:
		return arrow.PrimitiveTypes.Int32
	default:
		return arrow.PrimitiveTypes.Float32
	}
}

// expandedKeys enumerates the expanded key tuples of whichever payload
// the array holds.
func expandedKeys(arr *model.HeaderArray) func(yield func(model.KeySequence) bool) {
	if dict, ok := arr.Strings(); ok {
		return dict.ExpandedKeys()
	}
	if dict, ok := arr.Ints(); ok {
		return dict.ExpandedKeys()
	}
	if dict, ok := arr.Reals(); ok {
		return dict.ExpandedKeys()
	}
	return func(func(model.KeySequence) bool) {}
}

// sheetName derives a unique worksheet name from a header.
func sheetName(header string, index int) string {
	name := strings.TrimRight(header, " ")
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		default:
			return r
		}
	}, name)
	if name == "" {
		name = fmt.Sprintf("Sheet%d", index+1)
	}
	if len(name) > maxSheetNameLength {
		name = name[:maxSheetNameLength]
	}
	return name
}
