package opengtap

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/devchoca/OpenGTAP/domain/model"
)

const (
	// denseMarker marks a dense RE payload in the description record.
	denseMarker = "FULL"
	// sparseMarker marks a sparse RE payload in the description record.
	sparseMarker = "SPSE"
)

// DefaultSparseThreshold is the stored-value density below which RE
// arrays are written in the sparse encoding.
const DefaultSparseThreshold = 0.5

// HarWriter emits header arrays in the binary HAR encoding.
type HarWriter struct {
	rec             *recordWriter
	sparseThreshold float64
}

// HarWriterOption configures a HarWriter.
type HarWriterOption func(*HarWriter)

// WithSparseThreshold sets the stored-value density below which RE arrays
// are written sparse. A threshold of 0 forces dense output, a threshold
// above 1 forces sparse output.
func WithSparseThreshold(threshold float64) HarWriterOption {
	return func(hw *HarWriter) {
		hw.sparseThreshold = threshold
	}
}

// NewHarWriter creates a writer over the byte stream.
func NewHarWriter(w io.Writer, opts ...HarWriterOption) *HarWriter {
	hw := &HarWriter{
		rec:             newRecordWriter(w),
		sparseThreshold: DefaultSparseThreshold,
	}
	for _, opt := range opts {
		opt(hw)
	}
	return hw
}

// WriteFile emits every array of the file in order.
func (hw *HarWriter) WriteFile(file *HarFile) error {
	for _, arr := range file.Arrays() {
		if err := hw.WriteArray(arr); err != nil {
			return fmt.Errorf("failed to write header %q: %w", arr.Header(), err)
		}
	}
	return nil
}

// WriteArray emits one header array: the header name record, the
// description record and the type-specific payload records.
func (hw *HarWriter) WriteArray(arr *model.HeaderArray) error {
	if err := hw.rec.write([]byte(arr.Header())); err != nil {
		return err
	}

	sparse := hw.useSparse(arr)
	if err := hw.writeDescriptionRecord(arr, sparse); err != nil {
		return err
	}

	switch arr.Type() {
	case model.ArrayTypeString:
		return hw.writeStringArray(arr)
	case model.ArrayTypeRealElement:
		if sparse {
			return hw.writeSparseRealArray(arr)
		}
		return hw.writeDenseRealArray(arr)
	case model.ArrayTypeRealList, model.ArrayTypeReal:
		return hw.writeRealList(arr)
	case model.ArrayTypeInteger:
		return hw.writeIntegerList(arr)
	default:
		return fmt.Errorf("%w: unknown type code %q", ErrInvalidData, arr.Type().Code())
	}
}

// useSparse decides the RE encoding from the stored-value density.
func (hw *HarWriter) useSparse(arr *model.HeaderArray) bool {
	if arr.Type() != model.ArrayTypeRealElement {
		return false
	}
	reals, ok := arr.Reals()
	if !ok || reals.Size() == 0 {
		return false
	}
	return float64(reals.Len()) < hw.sparseThreshold*float64(reals.Size())
}

// writeDescriptionRecord emits the padded description record: type code,
// dense/sparse marker, padded description, rank and dimension sizes.
func (hw *HarWriter) writeDescriptionRecord(arr *model.HeaderArray, sparse bool) error {
	marker := denseMarker
	if sparse {
		marker = sparseMarker
	}
	rank := max(arr.Rank(), 1)
	dims := arr.Dimensions()

	payload := make([]byte, 0, 4+2+4+model.MaxDescriptionLength+4+4*rank)
	payload = append(payload, recordPadding...)
	payload = append(payload, arr.Type().Code()...)
	payload = append(payload, marker...)
	payload = append(payload, padRight(arr.Description(), model.MaxDescriptionLength)...)
	payload = appendInt32(payload, int32(rank))
	for i := range rank {
		payload = appendInt32(payload, dims[i])
	}
	return hw.rec.write(payload)
}

// writeSetLabels emits the labels header record and the per-set label
// blocks. Arrays whose sets are all anonymous are written with a set
// count of zero and a single empty label block.
func (hw *HarWriter) writeSetLabels(sets []model.Set) error {
	named := hasNamedSet(sets)
	count := 0
	if named {
		count = len(sets)
	}

	payload := make([]byte, 0, 20+setNameBytes*count)
	payload = appendInt32(payload, int32(count))
	payload = appendInt32(payload, int32(count))
	payload = appendInt32(payload, 0)
	payload = append(payload, strings.Repeat(" ", 8)...)
	if named {
		for _, s := range sets {
			payload = append(payload, padRight(s.Name(), setNameBytes)...)
		}
	}
	if err := hw.rec.write(payload); err != nil {
		return err
	}

	if !named {
		block := make([]byte, 0, 12)
		block = appendInt32(block, 1)
		block = appendInt32(block, 0)
		block = appendInt32(block, 0)
		return hw.rec.write(block)
	}
	for _, s := range sets {
		block := make([]byte, 0, 12+setNameBytes*s.Len())
		block = appendInt32(block, 1)
		block = appendInt32(block, int32(s.Len()))
		block = appendInt32(block, int32(s.Len()))
		for _, element := range s.Elements() {
			block = append(block, padRight(element, setNameBytes)...)
		}
		if err := hw.rec.write(block); err != nil {
			return err
		}
	}
	return nil
}

// writeExtents emits the extent record: the trailing-record count, the
// dimension limit and the seven dimension extents.
func (hw *HarWriter) writeExtents(trailing int, extents [model.MaxDimensions]int32) error {
	payload := make([]byte, 0, 8+4*model.MaxDimensions)
	payload = appendInt32(payload, int32(trailing))
	payload = appendInt32(payload, model.MaxDimensions)
	for _, d := range extents {
		payload = appendInt32(payload, d)
	}
	return hw.rec.write(payload)
}

// writeDimensionDescriptor emits the slice-bound record: full lower and
// upper bounds per defining set.
func (hw *HarWriter) writeDimensionDescriptor(sets []model.Set) error {
	payload := make([]byte, 0, 8*len(sets))
	for _, s := range sets {
		payload = appendInt32(payload, 1)
		payload = appendInt32(payload, int32(s.Len()))
	}
	return hw.rec.write(payload)
}

// writeStringArray emits a 1C payload: the set label records and the
// chunked value records. Every value record carries the dimension triple
// and a full complement of fixed-width slots; unused trailing slots are
// space-filled.
func (hw *HarWriter) writeStringArray(arr *model.HeaderArray) error {
	if err := hw.writeSetLabels(arr.Sets()); err != nil {
		return err
	}

	values := arr.StringValues()
	total := len(values)
	if total == 0 {
		return nil
	}
	size := 1
	for _, v := range values {
		size = max(size, len(v))
	}

	perRecord := max((maxStringRecordBytes-12)/size, 1)
	if arr.SerializedVectors() > 0 {
		perRecord = (total + arr.SerializedVectors() - 1) / arr.SerializedVectors()
	}
	perRecord = min(max(perRecord, 1), max(total, 1))
	records := max((total+perRecord-1)/perRecord, 1)

	for i := range records {
		payload := make([]byte, 0, 12+perRecord*size)
		payload = appendInt32(payload, int32(records))
		payload = appendInt32(payload, int32(total))
		payload = appendInt32(payload, int32(perRecord))
		for j := range perRecord {
			index := i*perRecord + j
			if index < total {
				payload = append(payload, padRight(values[index], size)...)
			} else {
				payload = append(payload, strings.Repeat(" ", size)...)
			}
		}
		if err := hw.rec.write(payload); err != nil {
			return err
		}
	}
	return nil
}

// writeDenseRealArray emits an RE FULL payload: set labels, the extent
// record, the dimension descriptor and the column-major data record.
func (hw *HarWriter) writeDenseRealArray(arr *model.HeaderArray) error {
	sets := arr.Sets()
	if err := hw.writeSetLabels(sets); err != nil {
		return err
	}

	extents := arr.Dimensions()
	total := product(extents[:])
	descriptor := hasNamedSet(sets) && total > 0

	trailing := 1
	if descriptor {
		trailing = 2
	}
	if err := hw.writeExtents(trailing, extents); err != nil {
		return err
	}
	if descriptor {
		if err := hw.writeDimensionDescriptor(sets); err != nil {
			return err
		}
	}

	payload := make([]byte, 0, 4+4*total)
	payload = appendInt32(payload, 1)
	for _, v := range arr.RealValues() {
		payload = appendFloat32(payload, v)
	}
	return hw.rec.write(payload)
}

// writeSparseRealArray emits a non-FULL RE payload: set labels, the
// value-count record and chunked index/value data records with one-based
// row-major linear indices in ascending order.
func (hw *HarWriter) writeSparseRealArray(arr *model.HeaderArray) error {
	sets := arr.Sets()
	if err := hw.writeSetLabels(sets); err != nil {
		return err
	}

	reals, _ := arr.Reals()
	extents := arr.Dimensions()

	type pair struct {
		linear int
		value  float32
	}
	pairs := make([]pair, 0, reals.Len())
	for _, key := range reals.StoredKeys() {
		linear, err := rowMajorIndex(sets, extents, key)
		if err != nil {
			return err
		}
		pairs = append(pairs, pair{linear: linear, value: reals.Get(key)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].linear < pairs[j].linear })

	countRecord := make([]byte, 0, 12)
	countRecord = appendInt32(countRecord, int32(len(pairs)))
	countRecord = appendInt32(countRecord, 0)
	countRecord = appendInt32(countRecord, 0)
	if err := hw.rec.write(countRecord); err != nil {
		return err
	}

	for start := 0; start < len(pairs); start += maxSparseChunk {
		chunk := min(len(pairs)-start, maxSparseChunk)
		payload := make([]byte, 0, 12+8*chunk)
		payload = appendInt32(payload, 1)
		payload = appendInt32(payload, 0)
		payload = appendInt32(payload, int32(chunk))
		for _, p := range pairs[start : start+chunk] {
			payload = appendInt32(payload, int32(p.linear+1))
		}
		for _, p := range pairs[start : start+chunk] {
			payload = appendFloat32(payload, p.value)
		}
		if err := hw.rec.write(payload); err != nil {
			return err
		}
	}
	return nil
}

// writeRealList emits an RL or 2R payload: the extent record, one
// dimension-description record and a single data record.
func (hw *HarWriter) writeRealList(arr *model.HeaderArray) error {
	total, err := hw.writeListPreamble(arr)
	if err != nil {
		return err
	}
	payload := make([]byte, 0, 4+4*total)
	payload = appendInt32(payload, 1)
	for _, v := range arr.RealValues() {
		payload = appendFloat32(payload, v)
	}
	return hw.rec.write(payload)
}

// writeIntegerList emits a 2I payload, laid out like a real list with an
// integer data record.
func (hw *HarWriter) writeIntegerList(arr *model.HeaderArray) error {
	total, err := hw.writeListPreamble(arr)
	if err != nil {
		return err
	}
	payload := make([]byte, 0, 4+4*total)
	payload = appendInt32(payload, 1)
	for _, v := range arr.IntValues() {
		payload = appendInt32(payload, v)
	}
	return hw.rec.write(payload)
}

// writeListPreamble emits the extent record and the dimension-description
// record shared by the list layouts and returns the element count.
func (hw *HarWriter) writeListPreamble(arr *model.HeaderArray) (int, error) {
	extents := arr.Dimensions()
	if err := hw.writeExtents(2, extents); err != nil {
		return 0, err
	}
	payload := make([]byte, 0, 8*model.MaxDimensions)
	for _, d := range extents {
		payload = appendInt32(payload, 1)
		payload = appendInt32(payload, d)
	}
	if err := hw.rec.write(payload); err != nil {
		return 0, err
	}
	return product(extents[:]), nil
}

// rowMajorIndex converts a key tuple to its zero-based linear index in
// the row-major expansion of the dimension space.
func rowMajorIndex(sets []model.Set, extents [model.MaxDimensions]int32, key model.KeySequence) (int, error) {
	index := 0
	for i := range model.MaxDimensions {
		index *= int(extents[i])
		if i < len(sets) {
			pos := sets[i].Index(key.At(i))
			if pos < 0 {
				return 0, fmt.Errorf("%w: key %q is not an element of set %q", ErrInvalidData, key.At(i), sets[i].Name())
			}
			index += pos
		}
	}
	return index, nil
}

// padRight space-pads a string to the given width, truncating longer
// values.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}
