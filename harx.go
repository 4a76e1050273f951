package opengtap

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/devchoca/OpenGTAP/domain/model"
)

// harxSet is the JSON form of one defining set.
type harxSet struct {
	Key   string   `json:"Key"`
	Value []string `json:"Value"`
}

// harxArray is the JSON form of one header array: one such object per
// "{header}.json" blob in the HARX archive. Entries hold the stored
// (non-default) values keyed by the canonical key-sequence string.
type harxArray struct {
	Header            string          `json:"Header"`
	Description       string          `json:"Description"`
	Type              string          `json:"Type"`
	Dimensions        []int32         `json:"Dimensions"`
	Sets              []harxSet       `json:"Sets"`
	SerializedVectors int             `json:"SerializedVectors"`
	Entries           map[string]any  `json:"Entries"`
}

// WriteHarx writes the file as a HARX archive: a ZIP of one JSON blob per
// header array, deflate-compressed.
func WriteHarx(w io.Writer, file *HarFile) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	for _, arr := range file.Arrays() {
		name := strings.TrimRight(arr.Header(), " ") + ".json"
		entry, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("failed to create archive entry %s: %w", name, err)
		}
		blob, err := marshalHarxArray(arr)
		if err != nil {
			return fmt.Errorf("failed to encode header %q: %w", arr.Header(), err)
		}
		if _, err := entry.Write(blob); err != nil {
			return fmt.Errorf("failed to write archive entry %s: %w", name, err)
		}
	}
	return zw.Close()
}

// ReadHarx reads a HARX archive into a HarFile, preserving archive order.
func ReadHarx(r io.ReaderAt, size int64) (*HarFile, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", ErrInvalidData, err)
	}
	zr.RegisterDecompressor(zip.Deflate, func(in io.Reader) io.ReadCloser {
		return flate.NewReader(in)
	})

	file := NewHarFile()
	for _, entry := range zr.File {
		if !strings.HasSuffix(entry.Name, ".json") {
			continue
		}
		arr, err := readHarxEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", entry.Name, err)
		}
		if err := file.Add(arr); err != nil {
			return nil, err
		}
	}
	return file, nil
}

// ReadHarxBytes reads a HARX archive held in memory.
func ReadHarxBytes(data []byte) (*HarFile, error) {
	return ReadHarx(bytes.NewReader(data), int64(len(data)))
}

// marshalHarxArray encodes one header array as its JSON blob.
func marshalHarxArray(arr *model.HeaderArray) ([]byte, error) {
	dims := arr.Dimensions()
	out := harxArray{
		Header:            arr.Header(),
		Description:       arr.Description(),
		Type:              arr.Type().Code(),
		Dimensions:        dims[:],
		Sets:              make([]harxSet, 0, arr.Rank()),
		SerializedVectors: arr.SerializedVectors(),
		Entries:           make(map[string]any),
	}
	for _, s := range arr.Sets() {
		out.Sets = append(out.Sets, harxSet{Key: s.Name(), Value: s.Elements()})
	}
	switch {
	case hasStrings(arr):
		dict, _ := arr.Strings()
		for _, key := range dict.StoredKeys() {
			out.Entries[key.String()] = dict.Get(key)
		}
	case hasReals(arr):
		dict, _ := arr.Reals()
		for _, key := range dict.StoredKeys() {
			out.Entries[key.String()] = dict.Get(key)
		}
	case hasInts(arr):
		dict, _ := arr.Ints()
		for _, key := range dict.StoredKeys() {
			out.Entries[key.String()] = dict.Get(key)
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// readHarxEntry decodes one JSON blob into a header array.
func readHarxEntry(entry *zip.File) (*model.HeaderArray, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	decoder := json.NewDecoder(rc)
	decoder.UseNumber()
	var in harxArray
	if err := decoder.Decode(&in); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidData, err)
	}
	return unmarshalHarxArray(in)
}

// unmarshalHarxArray rebuilds a header array from its JSON form.
func unmarshalHarxArray(in harxArray) (*model.HeaderArray, error) {
	arrayType, err := model.ArrayTypeFromCode(in.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	sets := make([]model.Set, len(in.Sets))
	for i, s := range in.Sets {
		sets[i] = model.NewSet(s.Key, s.Value)
	}

	var arr *model.HeaderArray
	switch arrayType {
	case model.ArrayTypeString:
		entries := model.NewSequenceDictionary[string](sets...)
		for key, raw := range in.Entries {
			value, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: entry %s of string array is not a string", ErrInvalidData, key)
			}
			entries.Insert(model.ParseKeySequence(key), value)
		}
		arr = model.NewStringArray(in.Header, in.Description, entries)
	case model.ArrayTypeInteger:
		entries := model.NewSequenceDictionary[int32](sets...)
		for key, raw := range in.Entries {
			value, err := harxInt(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %s: %v", ErrInvalidData, key, err)
			}
			entries.Insert(model.ParseKeySequence(key), value)
		}
		arr = model.NewIntegerArray(in.Header, in.Description, entries)
	default:
		entries := model.NewSequenceDictionary[float32](sets...)
		for key, raw := range in.Entries {
			value, err := harxReal(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %s: %v", ErrInvalidData, key, err)
			}
			entries.Insert(model.ParseKeySequence(key), value)
		}
		arr = model.NewRealArray(in.Header, in.Description, arrayType, entries)
	}

	if len(in.Dimensions) == model.MaxDimensions {
		var dims [model.MaxDimensions]int32
		copy(dims[:], in.Dimensions)
		arr = arr.WithDimensions(dims)
	}
	if in.SerializedVectors > 0 {
		arr = arr.WithSerializedVectors(in.SerializedVectors)
	}
	return arr, nil
}

// harxReal converts a decoded JSON entry value to a float32.
func harxReal(raw any) (float32, error) {
	number, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("value %v is not a number", raw)
	}
	f, err := number.Float64()
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}

// harxInt converts a decoded JSON entry value to an int32.
func harxInt(raw any) (int32, error) {
	number, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("value %v is not a number", raw)
	}
	n, err := number.Int64()
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// hasStrings reports whether the array holds a string payload.
func hasStrings(arr *model.HeaderArray) bool {
	_, ok := arr.Strings()
	return ok
}

// hasReals reports whether the array holds a real payload.
func hasReals(arr *model.HeaderArray) bool {
	_, ok := arr.Reals()
	return ok
}

// hasInts reports whether the array holds an integer payload.
func hasInts(arr *model.HeaderArray) bool {
	_, ok := arr.Ints()
	return ok
}
