package opengtap

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/devchoca/OpenGTAP/domain/model"
)

// setNameBytes is the fixed width of a set name or set element label on
// the wire.
const setNameBytes = 12

// HarReader parses header arrays from a binary HAR byte stream, one array
// per Next call. The stream is forward-only; the reader owns it for the
// duration of the read session.
type HarReader struct {
	rec *recordReader
}

// NewHarReader creates a reader over the byte stream.
func NewHarReader(r io.Reader) *HarReader {
	return &HarReader{rec: newRecordReader(r)}
}

// Next reads one header array. It returns io.EOF when the stream ends
// cleanly at an array boundary and ErrUnexpectedEOF when it ends
// mid-array.
func (hr *HarReader) Next() (*model.HeaderArray, error) {
	nameRecord, err := hr.rec.next()
	if err != nil {
		return nil, err
	}
	if len(nameRecord) != model.HeaderLength {
		return nil, fmt.Errorf("%w: header record has %d bytes, want %d", ErrInvalidData, len(nameRecord), model.HeaderLength)
	}
	header := string(nameRecord)

	payload, err := hr.rec.mustNext()
	if err != nil {
		return nil, err
	}
	payload, err = stripPadding(payload)
	if err != nil {
		return nil, err
	}
	if len(payload) < 80 {
		return nil, fmt.Errorf("%w: description record has %d bytes, want at least 80", ErrInvalidData, len(payload))
	}

	code := string(payload[0:2])
	full := string(payload[2:6]) == denseMarker
	description := model.TrimDescription(string(payload[6:76]))
	rank := int(getInt32(payload, 76))
	if rank < 0 || rank > model.MaxDimensions {
		return nil, fmt.Errorf("%w: rank %d out of range", ErrInvalidData, rank)
	}
	if len(payload) < 80+4*rank {
		return nil, fmt.Errorf("%w: description record truncated before dimensions", ErrInvalidData)
	}
	dims := make([]int32, rank)
	for i := range dims {
		dims[i] = getInt32(payload, 80+4*i)
	}

	arrayType, err := model.ArrayTypeFromCode(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	switch arrayType {
	case model.ArrayTypeString:
		return hr.readStringArray(header, description, dims)
	case model.ArrayTypeRealElement:
		if full {
			return hr.readDenseRealArray(header, description, dims)
		}
		return hr.readSparseRealArray(header, description, dims)
	case model.ArrayTypeRealList, model.ArrayTypeReal:
		return hr.readRealList(header, description, arrayType, dims)
	case model.ArrayTypeInteger:
		return hr.readIntegerList(header, description, dims)
	default:
		return nil, fmt.Errorf("%w: unknown type code %q", ErrInvalidData, code)
	}
}

// ReadAll collects the remaining arrays into a HarFile.
func (hr *HarReader) ReadAll() (*HarFile, error) {
	file := NewHarFile()
	for {
		arr, err := hr.Next()
		if err == io.EOF {
			return file, nil
		}
		if err != nil {
			return nil, err
		}
		if err := file.Add(arr); err != nil {
			return nil, err
		}
	}
}

// Arrays returns a lazy sequence over the remaining arrays. Iteration
// stops at the first error; a clean end of stream yields no error.
func (hr *HarReader) Arrays() iter.Seq2[*model.HeaderArray, error] {
	return func(yield func(*model.HeaderArray, error) bool) {
		for {
			arr, err := hr.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(arr, nil) {
				return
			}
		}
	}
}

// readSetLabels reads the labels header record and the per-set label
// blocks that open 1C and RE payloads, returning the defining sets. When
// the array declares no sets, positional index sets are synthesized from
// the dimension vector.
func (hr *HarReader) readSetLabels(dims []int32) ([]model.Set, error) {
	payload, err := hr.rec.mustNext()
	if err != nil {
		return nil, err
	}
	if len(payload) < 12+8 {
		return nil, fmt.Errorf("%w: set label record has %d bytes, want at least 20", ErrInvalidData, len(payload))
	}
	count := int(getInt32(payload, 0))
	if count < 0 || count > model.MaxDimensions {
		return nil, fmt.Errorf("%w: set count %d out of range", ErrInvalidData, count)
	}
	if len(payload) < 20+setNameBytes*count {
		return nil, fmt.Errorf("%w: set label record truncated before set names", ErrInvalidData)
	}
	names := make([]string, count)
	for i := range names {
		offset := 20 + setNameBytes*i
		names[i] = strings.TrimRight(string(payload[offset:offset+setNameBytes]), " ")
	}

	sets := make([]model.Set, 0, count)
	for block := 0; block < max(count, 1); block++ {
		want := 0
		if block < count && block < len(dims) {
			want = int(dims[block])
		}
		elements := make([]string, 0, want)
		for {
			record, err := hr.rec.mustNext()
			if err != nil {
				return nil, err
			}
			if len(record) < 12 {
				return nil, fmt.Errorf("%w: set element record has %d bytes, want at least 12", ErrInvalidData, len(record))
			}
			stored := int(getInt32(record, 4))
			if stored < 0 || len(record) < 12+setNameBytes*stored {
				return nil, fmt.Errorf("%w: label-count mismatch in set element record", ErrInvalidData)
			}
			for j := range stored {
				offset := 12 + setNameBytes*j
				elements = append(elements, strings.TrimRight(string(record[offset:offset+setNameBytes]), " "))
			}
			if len(elements) >= want {
				break
			}
		}
		if count > 0 {
			if len(elements) != want {
				return nil, fmt.Errorf("%w: label-count mismatch: set %q has %d elements, dimensions require %d",
					ErrInvalidData, names[block], len(elements), want)
			}
			sets = append(sets, model.NewSet(names[block], elements))
		}
	}
	if count == 0 {
		sets = indexSets(dims)
	}
	return sets, nil
}

// readExtents reads the extent record: the trailing-record count, the
// dimension limit and the seven dimension extents.
func (hr *HarReader) readExtents() (trailing int, extents [model.MaxDimensions]int32, err error) {
	payload, err := hr.rec.mustNext()
	if err != nil {
		return 0, extents, err
	}
	if len(payload) < 8+4*model.MaxDimensions {
		return 0, extents, fmt.Errorf("%w: extent record has %d bytes, want %d", ErrInvalidData, len(payload), 8+4*model.MaxDimensions)
	}
	trailing = int(getInt32(payload, 0))
	if limit := getInt32(payload, 4); limit != model.MaxDimensions {
		return 0, extents, fmt.Errorf("%w: dimension limit %d, want %d", ErrInvalidData, limit, model.MaxDimensions)
	}
	for i := range extents {
		extents[i] = getInt32(payload, 8+4*i)
	}
	return trailing, extents, nil
}

// readStringArray parses a 1C payload: the set label records followed by
// one or more value records in the chunked string encoding.
func (hr *HarReader) readStringArray(header, description string, dims []int32) (*model.HeaderArray, error) {
	sets, err := hr.readSetLabels(dims)
	if err != nil {
		return nil, err
	}
	entries := model.NewSequenceDictionary[string](sets...)

	total := entries.Size()
	if product(dims) != total {
		return nil, fmt.Errorf("%w: dimensional-product disagreement: dimensions hold %d strings, sets hold %d",
			ErrInvalidData, product(dims), total)
	}

	values := make([]string, 0, total)
	vectors := 0
	for len(values) < total {
		record, err := hr.rec.mustNext()
		if err != nil {
			return nil, err
		}
		if len(record) < 12 {
			return nil, fmt.Errorf("%w: string record has %d bytes, want at least 12", ErrInvalidData, len(record))
		}
		if vectors == 0 {
			vectors = int(getInt32(record, 0))
			if declared := int(getInt32(record, 4)); declared != total {
				return nil, fmt.Errorf("%w: string record declares %d strings, dimensions hold %d", ErrInvalidData, declared, total)
			}
		}
		perRecord := int(getInt32(record, 8))
		if perRecord <= 0 {
			return nil, fmt.Errorf("%w: string record declares %d strings per record", ErrInvalidData, perRecord)
		}
		size := (len(record) - 12) / perRecord
		if size <= 0 {
			return nil, fmt.Errorf("%w: string record element size is not positive", ErrInvalidData)
		}
		for j := 0; j < perRecord && len(values) < total; j++ {
			offset := 12 + j*size
			if offset+size > len(record) {
				break
			}
			values = append(values, strings.TrimRight(string(record[offset:offset+size]), "\x00 "))
		}
	}

	index := 0
	for key := range entries.ExpandedKeys() {
		entries.Insert(key, values[index])
		index++
	}
	return model.NewStringArray(header, description, entries).WithSerializedVectors(vectors), nil
}

// readDenseRealArray parses an RE FULL payload: set labels, the extent
// record, the skip-decoded dimension descriptor and the column-major data
// record.
func (hr *HarReader) readDenseRealArray(header, description string, dims []int32) (*model.HeaderArray, error) {
	sets, err := hr.readSetLabels(dims)
	if err != nil {
		return nil, err
	}
	_, extents, err := hr.readExtents()
	if err != nil {
		return nil, err
	}
	total := product(extents[:])
	if product(dims) != total {
		return nil, fmt.Errorf("%w: dimensional-product disagreement: header holds %d elements, extents hold %d",
			ErrInvalidData, product(dims), total)
	}

	entries := model.NewSequenceDictionary[float32](sets...)
	if entries.Size() != total {
		return nil, fmt.Errorf("%w: dimensional-product disagreement: sets hold %d elements, extents hold %d",
			ErrInvalidData, entries.Size(), total)
	}

	labelled := hasNamedSet(sets)
	if labelled && total > 0 {
		// Dimension descriptor: slice bounds per set, skip-decoded on full
		// reads.
		if _, err := hr.rec.mustNext(); err != nil {
			return nil, err
		}
	}

	record, err := hr.rec.mustNext()
	if err != nil {
		return nil, err
	}
	if len(record) < 4+4*total {
		return nil, fmt.Errorf("%w: data record has %d bytes, want %d", ErrInvalidData, len(record), 4+4*total)
	}

	index := 0
	for key := range entries.ExpandedKeys() {
		entries.Insert(key, getFloat32(record, 4+4*index))
		index++
	}
	return model.NewRealArray(header, description, model.ArrayTypeRealElement, entries), nil
}

// readSparseRealArray parses a non-FULL RE payload: set labels, the
// value-count record and one or more index/value data records. Linear
// indices are one-based on the wire and map into the row-major expansion
// of the dimension space.
func (hr *HarReader) readSparseRealArray(header, description string, dims []int32) (*model.HeaderArray, error) {
	sets, err := hr.readSetLabels(dims)
	if err != nil {
		return nil, err
	}
	countRecord, err := hr.rec.mustNext()
	if err != nil {
		return nil, err
	}
	if len(countRecord) < 12 {
		return nil, fmt.Errorf("%w: value-count record has %d bytes, want 12", ErrInvalidData, len(countRecord))
	}
	stored := int(getInt32(countRecord, 0))
	if stored < 0 {
		return nil, fmt.Errorf("%w: negative stored-value count %d", ErrInvalidData, stored)
	}

	entries := model.NewSequenceDictionary[float32](sets...)
	total := entries.Size()
	if product(dims) != total {
		return nil, fmt.Errorf("%w: dimensional-product disagreement: dimensions hold %d elements, sets hold %d",
			ErrInvalidData, product(dims), total)
	}
	extents := paddedExtents(dims)

	remaining := stored
	for remaining > 0 {
		record, err := hr.rec.mustNext()
		if err != nil {
			return nil, err
		}
		if len(record) < 12 {
			return nil, fmt.Errorf("%w: sparse data record has %d bytes, want at least 12", ErrInvalidData, len(record))
		}
		chunk := int(getInt32(record, 8))
		if chunk <= 0 || chunk > remaining {
			return nil, fmt.Errorf("%w: sparse data record holds %d values, %d expected", ErrInvalidData, chunk, remaining)
		}
		if len(record) < 12+8*chunk {
			return nil, fmt.Errorf("%w: sparse data record truncated", ErrInvalidData)
		}
		for j := range chunk {
			linear := int(getInt32(record, 12+4*j)) - 1
			if linear < 0 || linear >= total {
				return nil, fmt.Errorf("%w: sparse index %d outside array of %d elements", ErrInvalidData, linear+1, total)
			}
			value := getFloat32(record, 12+4*chunk+4*j)
			entries.Insert(keyFromRowMajor(sets, extents, linear), value)
		}
		remaining -= chunk
	}
	return model.NewRealArray(header, description, model.ArrayTypeRealElement, entries), nil
}

// readRealList parses an RL or 2R payload: the extent record, one
// skip-decoded dimension-description record and a single data record.
func (hr *HarReader) readRealList(header, description string, arrayType model.ArrayType, dims []int32) (*model.HeaderArray, error) {
	total, err := hr.readListPreamble(dims)
	if err != nil {
		return nil, err
	}
	record, err := hr.rec.mustNext()
	if err != nil {
		return nil, err
	}
	if len(record) < 4+4*total {
		return nil, fmt.Errorf("%w: data record has %d bytes, want %d", ErrInvalidData, len(record), 4+4*total)
	}
	entries := model.NewSequenceDictionary[float32](indexSets(dims)...)
	index := 0
	for key := range entries.ExpandedKeys() {
		entries.Insert(key, getFloat32(record, 4+4*index))
		index++
	}
	return model.NewRealArray(header, description, arrayType, entries), nil
}

// readIntegerList parses a 2I payload, laid out like a real list with an
// integer data record.
func (hr *HarReader) readIntegerList(header, description string, dims []int32) (*model.HeaderArray, error) {
	total, err := hr.readListPreamble(dims)
	if err != nil {
		return nil, err
	}
	record, err := hr.rec.mustNext()
	if err != nil {
		return nil, err
	}
	if len(record) < 4+4*total {
		return nil, fmt.Errorf("%w: data record has %d bytes, want %d", ErrInvalidData, len(record), 4+4*total)
	}
	entries := model.NewSequenceDictionary[int32](indexSets(dims)...)
	index := 0
	for key := range entries.ExpandedKeys() {
		entries.Insert(key, getInt32(record, 4+4*index))
		index++
	}
	return model.NewIntegerArray(header, description, entries), nil
}

// readListPreamble reads the extent record and the dimension-description
// record shared by the list layouts and returns the element count.
func (hr *HarReader) readListPreamble(dims []int32) (int, error) {
	_, extents, err := hr.readExtents()
	if err != nil {
		return 0, err
	}
	total := product(extents[:])
	if product(dims) != total {
		return 0, fmt.Errorf("%w: dimensional-product disagreement: header holds %d elements, extents hold %d",
			ErrInvalidData, product(dims), total)
	}
	if _, err := hr.rec.mustNext(); err != nil {
		return 0, err
	}
	return total, nil
}

// indexSets synthesizes one anonymous positional set per dimension.
func indexSets(dims []int32) []model.Set {
	sets := make([]model.Set, len(dims))
	for i, d := range dims {
		sets[i] = model.NewIndexSet(int(d))
	}
	return sets
}

// hasNamedSet reports whether any defining set carries a name.
func hasNamedSet(sets []model.Set) bool {
	for _, s := range sets {
		if s.Name() != "" {
			return true
		}
	}
	return false
}

// product multiplies the dimension extents; the empty vector has product
// one.
func product(dims []int32) int {
	total := 1
	for _, d := range dims {
		total *= int(d)
	}
	return total
}

// paddedExtents pads a dimension vector with trailing ones to the fixed
// seven slots.
func paddedExtents(dims []int32) [model.MaxDimensions]int32 {
	var extents [model.MaxDimensions]int32
	for i := range extents {
		extents[i] = 1
	}
	copy(extents[:], dims)
	return extents
}

// keyFromRowMajor converts a zero-based linear index in the row-major
// expansion of the dimension space to the key tuple it addresses.
func keyFromRowMajor(sets []model.Set, extents [model.MaxDimensions]int32, linear int) model.KeySequence {
	var positions [model.MaxDimensions]int
	for i := model.MaxDimensions - 1; i >= 0; i-- {
		positions[i] = linear % int(extents[i])
		linear /= int(extents[i])
	}
	keys := make([]string, len(sets))
	for i, s := range sets {
		keys[i] = s.At(positions[i])
	}
	return model.NewKeySequence(keys...)
}
